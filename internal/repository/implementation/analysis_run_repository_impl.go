package implementation

import (
	"context"
	"errors"
	"time"

	"ai-docpilot-be/internal/entity"
	"ai-docpilot-be/internal/mapper"
	"ai-docpilot-be/internal/model"
	"ai-docpilot-be/internal/repository/contract"
	"ai-docpilot-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AnalysisRunRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AnalysisRunMapper
}

func NewAnalysisRunRepository(db *gorm.DB) contract.AnalysisRunRepository {
	return &AnalysisRunRepositoryImpl{
		db:     db,
		mapper: mapper.NewAnalysisRunMapper(),
	}
}

func (r *AnalysisRunRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *AnalysisRunRepositoryImpl) Create(ctx context.Context, run *entity.AnalysisRun) error {
	m := r.mapper.ToModel(run)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*run = *r.mapper.ToEntity(m)
	return nil
}

func (r *AnalysisRunRepositoryImpl) Update(ctx context.Context, run *entity.AnalysisRun) error {
	m := r.mapper.ToModel(run)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*run = *r.mapper.ToEntity(m)
	return nil
}

func (r *AnalysisRunRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AnalysisRun, error) {
	var m model.AnalysisRun
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *AnalysisRunRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AnalysisRun, error) {
	var models []*model.AnalysisRun
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *AnalysisRunRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.AnalysisRun{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AnalysisRunRepositoryImpl) CountForUserSince(ctx context.Context, userId uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.AnalysisRun{}).
		Where("user_id = ? AND started_at >= ?", userId, since).
		Count(&count).Error
	return count, err
}
