package contract

import (
	"context"

	"ai-docpilot-be/internal/entity"
	"ai-docpilot-be/internal/repository/specification"

	"github.com/google/uuid"
)

type SuggestionRecordRepository interface {
	Create(ctx context.Context, record *entity.SuggestionRecord) error
	CreateBulk(ctx context.Context, records []*entity.SuggestionRecord) error
	Update(ctx context.Context, record *entity.SuggestionRecord) error
	// UpdateStatus flips one record by its model-facing suggestion id.
	UpdateStatus(ctx context.Context, documentId uuid.UUID, suggestionId string, status entity.SuggestionStatus) error
	// SupersedePending marks every pending record of the document as
	// superseded; a new batch replaces the old one.
	SupersedePending(ctx context.Context, documentId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SuggestionRecord, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SuggestionRecord, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
