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

type DiagramRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DiagramRecordMapper
}

func NewDiagramRecordRepository(db *gorm.DB) contract.DiagramRecordRepository {
	return &DiagramRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewDiagramRecordMapper(),
	}
}

func (r *DiagramRecordRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DiagramRecordRepositoryImpl) Create(ctx context.Context, record *entity.DiagramRecord) error {
	m := r.mapper.ToModel(record)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*record = *r.mapper.ToEntity(m)
	return nil
}

func (r *DiagramRecordRepositoryImpl) CreateBulk(ctx context.Context, records []*entity.DiagramRecord) error {
	if len(records) == 0 {
		return nil
	}
	models := make([]*model.DiagramRecord, len(records))
	for i, rec := range records {
		models[i] = r.mapper.ToModel(rec)
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	for i, m := range models {
		*records[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *DiagramRecordRepositoryImpl) Update(ctx context.Context, record *entity.DiagramRecord) error {
	m := r.mapper.ToModel(record)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*record = *r.mapper.ToEntity(m)
	return nil
}

func (r *DiagramRecordRepositoryImpl) MarkInserted(ctx context.Context, id uuid.UUID, exactMatch bool) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&model.DiagramRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      string(entity.DiagramStatusInserted),
			"exact_match": exactMatch,
			"inserted_at": now,
		}).Error
}

func (r *DiagramRecordRepositoryImpl) SkipPending(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.DiagramRecord{}).
		Where("document_id = ? AND status = ?", documentId, string(entity.DiagramStatusPending)).
		Update("status", string(entity.DiagramStatusSkipped)).Error
}

func (r *DiagramRecordRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DiagramRecord, error) {
	var m model.DiagramRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *DiagramRecordRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DiagramRecord, error) {
	var models []*model.DiagramRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *DiagramRecordRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.DiagramRecord{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
