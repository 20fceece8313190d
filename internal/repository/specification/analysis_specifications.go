package specification

import (
	"gorm.io/gorm"

	"github.com/google/uuid"
)

type ByRunID struct {
	RunID uuid.UUID
}

func (s ByRunID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("run_id = ?", s.RunID)
}

// BySuggestionId matches the model-facing suggestion id, not the row primary key.
type BySuggestionId struct {
	SuggestionId string
}

func (s BySuggestionId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("suggestion_id = ?", s.SuggestionId)
}

type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

type ByAgent struct {
	Agent string
}

func (s ByAgent) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("agent = ?", s.Agent)
}
