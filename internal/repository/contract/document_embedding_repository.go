package contract

import (
	"context"

	"ai-docpilot-be/internal/entity"
	"ai-docpilot-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredDocumentEmbedding wraps DocumentEmbedding with its similarity score
type ScoredDocumentEmbedding struct {
	Embedding  *entity.DocumentEmbedding
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type DocumentEmbeddingRepository interface {
	Create(ctx context.Context, embedding *entity.DocumentEmbedding) error
	CreateBulk(ctx context.Context, embeddings []*entity.DocumentEmbedding) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	DeleteAllByUserIdUnscoped(ctx context.Context, userId uuid.UUID) error // Hard delete embeddings
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentEmbedding, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentEmbedding, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilar retrieves nearest chunks for a user, excluding one
	// document (the one being analyzed).
	SearchSimilar(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, excludeDocumentId uuid.UUID) ([]*ScoredDocumentEmbedding, error)
}
