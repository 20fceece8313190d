package contract

import (
	"context"
	"time"

	"ai-docpilot-be/internal/entity"
	"ai-docpilot-be/internal/repository/specification"

	"github.com/google/uuid"
)

type AnalysisRunRepository interface {
	Create(ctx context.Context, run *entity.AnalysisRun) error
	Update(ctx context.Context, run *entity.AnalysisRun) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AnalysisRun, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AnalysisRun, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// CountForUserSince supports the daily quota check.
	CountForUserSince(ctx context.Context, userId uuid.UUID, since time.Time) (int64, error)
}
