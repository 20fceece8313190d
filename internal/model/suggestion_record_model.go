package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SuggestionRecord struct {
	Id           uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RunId        uuid.UUID                   `gorm:"type:uuid;not null;index"`
	DocumentId   uuid.UUID                   `gorm:"type:uuid;not null;index:idx_suggestion_records_doc_status,priority:1"`
	SuggestionId string                      `gorm:"type:varchar(100);not null;index"`
	MergedIds    datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Type         string                      `gorm:"type:varchar(50)"`
	Severity     string                      `gorm:"type:varchar(10);not null;default:'medium'"`
	Paragraph    int                         `gorm:"default:1"`
	Description  string                      `gorm:"type:text"`
	OriginalText string                      `gorm:"type:text"`
	ReplaceTo    string                      `gorm:"type:text"`
	Confidence   float64                     `gorm:"default:0"`
	Agent        string                      `gorm:"type:varchar(100)"`
	Stale        bool                        `gorm:"default:false"`
	Status       string                      `gorm:"type:varchar(20);not null;default:'pending';index:idx_suggestion_records_doc_status,priority:2"`
	RawArgs      datatypes.JSON              `gorm:"type:jsonb"`
	CreatedAt    time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt    time.Time                   `gorm:"autoUpdateTime"`
}

func (SuggestionRecord) TableName() string {
	return "suggestion_records"
}
