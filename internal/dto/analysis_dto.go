package dto

import (
	"time"

	"github.com/google/uuid"
)

type RunAnalysisRequest struct {
	SessionId string `json:"session_id" validate:"required"`
}

// PublishAnalyzeDocumentMessage is the worker job queued when a run is
// triggered. The run row already exists when the worker picks it up.
type PublishAnalyzeDocumentMessage struct {
	RunId     uuid.UUID `json:"run_id"`
	SessionId string    `json:"session_id"`
}

// RunAnalysisResponse acknowledges the queued run. Results arrive over
// the websocket once the worker finishes.
type RunAnalysisResponse struct {
	RunId     uuid.UUID `json:"run_id"`
	Status    string    `json:"status"` // "running"
	StartedAt time.Time `json:"started_at"`
}

type AnalysisRunResponse struct {
	RunId       uuid.UUID  `json:"run_id"`
	DocumentId  uuid.UUID  `json:"document_id"`
	Agent       string     `json:"agent"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	Suggestions int        `json:"suggestions"`
	Diagrams    int        `json:"diagrams"`
	Discarded   int        `json:"discarded"`
	Repaired    int        `json:"repaired"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// SuggestionItem is the display shape of one merged suggestion.
type SuggestionItem struct {
	Id           string    `json:"id"`
	Type         string    `json:"type"`
	Severity     string    `json:"severity"`
	Paragraph    int       `json:"paragraph"`
	Description  string    `json:"description"`
	OriginalText string    `json:"originalText"`
	ReplaceTo    string    `json:"replaceTo"`
	Confidence   float64   `json:"confidence"`
	Agent        string    `json:"agent,omitempty"`
	MergedIds    []string  `json:"merged_ids,omitempty"`
	Stale        bool      `json:"stale,omitempty"`
	Applicable   bool      `json:"applicable"`
	CreatedAt    time.Time `json:"created_at"`
}

type DiagramItem struct {
	InsertAfterText string `json:"insertAfterText,omitempty"`
	DiagramSyntax   string `json:"diagramSyntax"`
	DiagramType     string `json:"diagramType,omitempty"`
	Title           string `json:"title,omitempty"`
}

// AnalysisCompletedPayload is pushed to the owning user over the
// websocket hub when a run finishes.
type AnalysisCompletedPayload struct {
	RunId       uuid.UUID        `json:"run_id"`
	SessionId   string           `json:"session_id"`
	DocumentId  uuid.UUID        `json:"document_id"`
	Status      string           `json:"status"`
	Suggestions []SuggestionItem `json:"suggestions"`
	Diagrams    []DiagramItem    `json:"diagrams"`
	Discarded   int              `json:"discarded"`
	Repaired    int              `json:"repaired"`
	AnalyzedAt  time.Time        `json:"analyzed_at"`
}

// --- Limit Exceeded Error Types ---

// LimitExceededError is a custom error that carries usage details
type LimitExceededError struct {
	Limit      int       `json:"limit"`
	Used       int       `json:"used"`
	ResetAfter time.Time `json:"reset_after"`
}

func (e *LimitExceededError) Error() string {
	return "daily AI analysis limit exceeded"
}

// LimitExceededData is the data payload for 429 responses
type LimitExceededData struct {
	Limit            int       `json:"limit"`
	Used             int       `json:"used"`
	ResetAfter       time.Time `json:"reset_after"`
	ShowModalPricing bool      `json:"show_modal_pricing"`
}

// LimitExceededResponse is the full 429 response structure
type LimitExceededResponse struct {
	Success   bool              `json:"success"`
	Code      int               `json:"code"`
	Message   string            `json:"message"`
	ErrorType string            `json:"error_type"`
	Data      LimitExceededData `json:"data"`
}
