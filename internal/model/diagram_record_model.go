package model

import (
	"time"

	"github.com/google/uuid"
)

type DiagramRecord struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RunId           uuid.UUID `gorm:"type:uuid;not null;index"`
	DocumentId      uuid.UUID `gorm:"type:uuid;not null;index"`
	InsertAfterText string    `gorm:"type:text"`
	DiagramSyntax   string    `gorm:"type:text;not null"`
	DiagramType     string    `gorm:"type:varchar(50)"`
	Title           string    `gorm:"type:varchar(255)"`
	Status          string    `gorm:"type:varchar(20);not null;default:'pending'"`
	ExactMatch      *bool
	InsertedAt      *time.Time
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}

func (DiagramRecord) TableName() string {
	return "diagram_records"
}
