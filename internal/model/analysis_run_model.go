package model

import (
	"time"

	"github.com/google/uuid"
)

type AnalysisRun struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId  uuid.UUID `gorm:"type:uuid;not null;index"`
	UserId      uuid.UUID `gorm:"type:uuid;not null;index"`
	Agent       string    `gorm:"type:varchar(100)"`
	Status      string    `gorm:"type:varchar(20);not null;default:'running'"`
	Error       string    `gorm:"type:text"`
	Suggestions int       `gorm:"default:0"`
	Diagrams    int       `gorm:"default:0"`
	Discarded   int       `gorm:"default:0"`
	Repaired    int       `gorm:"default:0"`
	StartedAt   time.Time `gorm:"not null"`
	FinishedAt  *time.Time
}

func (AnalysisRun) TableName() string {
	return "analysis_runs"
}
