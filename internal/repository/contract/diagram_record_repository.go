package contract

import (
	"context"

	"ai-docpilot-be/internal/entity"
	"ai-docpilot-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DiagramRecordRepository interface {
	Create(ctx context.Context, record *entity.DiagramRecord) error
	CreateBulk(ctx context.Context, records []*entity.DiagramRecord) error
	Update(ctx context.Context, record *entity.DiagramRecord) error
	// MarkInserted records the outcome of an accepted insertion.
	MarkInserted(ctx context.Context, id uuid.UUID, exactMatch bool) error
	SkipPending(ctx context.Context, documentId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DiagramRecord, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DiagramRecord, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
