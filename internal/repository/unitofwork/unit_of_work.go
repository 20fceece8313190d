package unitofwork

import (
	"context"

	"ai-docpilot-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	DocumentRepository() contract.DocumentRepository
	DocumentEmbeddingRepository() contract.DocumentEmbeddingRepository

	AnalysisRunRepository() contract.AnalysisRunRepository
	SuggestionRecordRepository() contract.SuggestionRecordRepository
	DiagramRecordRepository() contract.DiagramRecordRepository

	SubscriptionRepository() contract.SubscriptionRepository
}
