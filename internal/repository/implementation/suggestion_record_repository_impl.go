package implementation

import (
	"context"
	"errors"

	"ai-docpilot-be/internal/entity"
	"ai-docpilot-be/internal/mapper"
	"ai-docpilot-be/internal/model"
	"ai-docpilot-be/internal/repository/contract"
	"ai-docpilot-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SuggestionRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SuggestionRecordMapper
}

func NewSuggestionRecordRepository(db *gorm.DB) contract.SuggestionRecordRepository {
	return &SuggestionRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewSuggestionRecordMapper(),
	}
}

func (r *SuggestionRecordRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SuggestionRecordRepositoryImpl) Create(ctx context.Context, record *entity.SuggestionRecord) error {
	m := r.mapper.ToModel(record)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*record = *r.mapper.ToEntity(m)
	return nil
}

func (r *SuggestionRecordRepositoryImpl) CreateBulk(ctx context.Context, records []*entity.SuggestionRecord) error {
	if len(records) == 0 {
		return nil
	}
	models := make([]*model.SuggestionRecord, len(records))
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

func (r *SuggestionRecordRepositoryImpl) Update(ctx context.Context, record *entity.SuggestionRecord) error {
	m := r.mapper.ToModel(record)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*record = *r.mapper.ToEntity(m)
	return nil
}

func (r *SuggestionRecordRepositoryImpl) UpdateStatus(ctx context.Context, documentId uuid.UUID, suggestionId string, status entity.SuggestionStatus) error {
	return r.db.WithContext(ctx).
		Model(&model.SuggestionRecord{}).
		Where("document_id = ? AND suggestion_id = ?", documentId, suggestionId).
		Update("status", string(status)).Error
}

func (r *SuggestionRecordRepositoryImpl) SupersedePending(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.SuggestionRecord{}).
		Where("document_id = ? AND status = ?", documentId, string(entity.SuggestionStatusPending)).
		Update("status", string(entity.SuggestionStatusSuperseded)).Error
}

func (r *SuggestionRecordRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SuggestionRecord, error) {
	var m model.SuggestionRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SuggestionRecordRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SuggestionRecord, error) {
	var models []*model.SuggestionRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *SuggestionRecordRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.SuggestionRecord{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
