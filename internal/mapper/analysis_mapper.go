package mapper

import (
	"time"

	"ai-docpilot-be/internal/entity"
	"ai-docpilot-be/internal/model"

	"gorm.io/datatypes"
)

type AnalysisRunMapper struct{}

func NewAnalysisRunMapper() *AnalysisRunMapper {
	return &AnalysisRunMapper{}
}

func (m *AnalysisRunMapper) ToEntity(r *model.AnalysisRun) *entity.AnalysisRun {
	if r == nil {
		return nil
	}
	return &entity.AnalysisRun{
		Id:          r.Id,
		DocumentId:  r.DocumentId,
		UserId:      r.UserId,
		Agent:       r.Agent,
		Status:      entity.AnalysisRunStatus(r.Status),
		Error:       r.Error,
		Suggestions: r.Suggestions,
		Diagrams:    r.Diagrams,
		Discarded:   r.Discarded,
		Repaired:    r.Repaired,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
	}
}

func (m *AnalysisRunMapper) ToModel(r *entity.AnalysisRun) *model.AnalysisRun {
	if r == nil {
		return nil
	}
	return &model.AnalysisRun{
		Id:          r.Id,
		DocumentId:  r.DocumentId,
		UserId:      r.UserId,
		Agent:       r.Agent,
		Status:      string(r.Status),
		Error:       r.Error,
		Suggestions: r.Suggestions,
		Diagrams:    r.Diagrams,
		Discarded:   r.Discarded,
		Repaired:    r.Repaired,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
	}
}

func (m *AnalysisRunMapper) ToEntities(runs []*model.AnalysisRun) []*entity.AnalysisRun {
	entities := make([]*entity.AnalysisRun, len(runs))
	for i, r := range runs {
		entities[i] = m.ToEntity(r)
	}
	return entities
}

type SuggestionRecordMapper struct{}

func NewSuggestionRecordMapper() *SuggestionRecordMapper {
	return &SuggestionRecordMapper{}
}

func (m *SuggestionRecordMapper) ToEntity(s *model.SuggestionRecord) *entity.SuggestionRecord {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.SuggestionRecord{
		Id:           s.Id,
		RunId:        s.RunId,
		DocumentId:   s.DocumentId,
		SuggestionId: s.SuggestionId,
		MergedIds:    []string(s.MergedIds),
		Type:         s.Type,
		Severity:     s.Severity,
		Paragraph:    s.Paragraph,
		Description:  s.Description,
		OriginalText: s.OriginalText,
		ReplaceTo:    s.ReplaceTo,
		Confidence:   s.Confidence,
		Agent:        s.Agent,
		Stale:        s.Stale,
		Status:       entity.SuggestionStatus(s.Status),
		RawArgs:      string(s.RawArgs),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *SuggestionRecordMapper) ToModel(s *entity.SuggestionRecord) *model.SuggestionRecord {
	if s == nil {
		return nil
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.SuggestionRecord{
		Id:           s.Id,
		RunId:        s.RunId,
		DocumentId:   s.DocumentId,
		SuggestionId: s.SuggestionId,
		MergedIds:    datatypes.NewJSONSlice(s.MergedIds),
		Type:         s.Type,
		Severity:     s.Severity,
		Paragraph:    s.Paragraph,
		Description:  s.Description,
		OriginalText: s.OriginalText,
		ReplaceTo:    s.ReplaceTo,
		Confidence:   s.Confidence,
		Agent:        s.Agent,
		Stale:        s.Stale,
		Status:       string(s.Status),
		RawArgs:      datatypes.JSON(s.RawArgs),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *SuggestionRecordMapper) ToEntities(records []*model.SuggestionRecord) []*entity.SuggestionRecord {
	entities := make([]*entity.SuggestionRecord, len(records))
	for i, s := range records {
		entities[i] = m.ToEntity(s)
	}
	return entities
}

func (m *SuggestionRecordMapper) ToModels(records []*entity.SuggestionRecord) []*model.SuggestionRecord {
	models := make([]*model.SuggestionRecord, len(records))
	for i, s := range records {
		models[i] = m.ToModel(s)
	}
	return models
}

type DiagramRecordMapper struct{}

func NewDiagramRecordMapper() *DiagramRecordMapper {
	return &DiagramRecordMapper{}
}

func (m *DiagramRecordMapper) ToEntity(d *model.DiagramRecord) *entity.DiagramRecord {
	if d == nil {
		return nil
	}
	return &entity.DiagramRecord{
		Id:              d.Id,
		RunId:           d.RunId,
		DocumentId:      d.DocumentId,
		InsertAfterText: d.InsertAfterText,
		DiagramSyntax:   d.DiagramSyntax,
		DiagramType:     d.DiagramType,
		Title:           d.Title,
		Status:          entity.DiagramStatus(d.Status),
		ExactMatch:      d.ExactMatch,
		InsertedAt:      d.InsertedAt,
		CreatedAt:       d.CreatedAt,
	}
}

func (m *DiagramRecordMapper) ToModel(d *entity.DiagramRecord) *model.DiagramRecord {
	if d == nil {
		return nil
	}
	return &model.DiagramRecord{
		Id:              d.Id,
		RunId:           d.RunId,
		DocumentId:      d.DocumentId,
		InsertAfterText: d.InsertAfterText,
		DiagramSyntax:   d.DiagramSyntax,
		DiagramType:     d.DiagramType,
		Title:           d.Title,
		Status:          string(d.Status),
		ExactMatch:      d.ExactMatch,
		InsertedAt:      d.InsertedAt,
		CreatedAt:       d.CreatedAt,
	}
}

func (m *DiagramRecordMapper) ToEntities(records []*model.DiagramRecord) []*entity.DiagramRecord {
	entities := make([]*entity.DiagramRecord, len(records))
	for i, d := range records {
		entities[i] = m.ToEntity(d)
	}
	return entities
}

func (m *DiagramRecordMapper) ToModels(records []*entity.DiagramRecord) []*model.DiagramRecord {
	models := make([]*model.DiagramRecord, len(records))
	for i, d := range records {
		models[i] = m.ToModel(d)
	}
	return models
}
