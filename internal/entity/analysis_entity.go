package entity

import (
	"time"

	"github.com/google/uuid"
)

type AnalysisRunStatus string
type SuggestionStatus string
type DiagramStatus string

const (
	AnalysisRunStatusRunning  AnalysisRunStatus = "running"
	AnalysisRunStatusComplete AnalysisRunStatus = "complete"
	AnalysisRunStatusFailed   AnalysisRunStatus = "failed"

	SuggestionStatusPending    SuggestionStatus = "pending"
	SuggestionStatusApplied    SuggestionStatus = "applied"
	SuggestionStatusDismissed  SuggestionStatus = "dismissed"
	SuggestionStatusSuperseded SuggestionStatus = "superseded"

	DiagramStatusPending  DiagramStatus = "pending"
	DiagramStatusInserted DiagramStatus = "inserted"
	DiagramStatusSkipped  DiagramStatus = "skipped"
)

// AnalysisRun is one pass of the AI over a document: counters for the
// run report plus the failure reason when the stream broke.
type AnalysisRun struct {
	Id          uuid.UUID
	DocumentId  uuid.UUID
	UserId      uuid.UUID
	Agent       string
	Status      AnalysisRunStatus
	Error       string
	Suggestions int
	Diagrams    int
	Discarded   int
	Repaired    int
	StartedAt   time.Time
	FinishedAt  *time.Time
}

// SuggestionRecord is the persisted form of one merged suggestion.
// SuggestionId is the model-facing id the editor addresses it by;
// MergedIds lists every original id it subsumed.
type SuggestionRecord struct {
	Id           uuid.UUID
	RunId        uuid.UUID
	DocumentId   uuid.UUID
	SuggestionId string
	MergedIds    []string
	Type         string
	Severity     string
	Paragraph    int
	Description  string
	OriginalText string
	ReplaceTo    string
	Confidence   float64
	Agent        string
	Stale        bool
	Status       SuggestionStatus
	RawArgs      string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// DiagramRecord is a proposed diagram insertion and its outcome.
// ExactMatch is nil until the insertion is accepted, then reports
// whether the anchor text was found or the cursor fallback was used.
type DiagramRecord struct {
	Id              uuid.UUID
	RunId           uuid.UUID
	DocumentId      uuid.UUID
	InsertAfterText string
	DiagramSyntax   string
	DiagramType     string
	Title           string
	Status          DiagramStatus
	ExactMatch      *bool
	InsertedAt      *time.Time
	CreatedAt       time.Time
}
