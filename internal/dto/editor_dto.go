package dto

import (
	"time"

	"github.com/google/uuid"
)

type OpenEditorRequest struct {
	DocumentId uuid.UUID `json:"document_id" validate:"required"`
}

type OpenEditorResponse struct {
	SessionId  string    `json:"session_id"`
	DocumentId uuid.UUID `json:"document_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"` // Current Lexical JSON of the live session
	OpenedAt   time.Time `json:"opened_at"`
}

type EditorSessionResponse struct {
	SessionId   string               `json:"session_id"`
	DocumentId  uuid.UUID            `json:"document_id"`
	OpenedAt    time.Time            `json:"opened_at"`
	Suggestions []SuggestionItem     `json:"suggestions"`
	Diagrams    []DiagramItem        `json:"diagrams"`
	Highlight   *ActiveHighlightItem `json:"highlight,omitempty"`
	AnalyzedAt  *time.Time           `json:"analyzed_at,omitempty"`
}

type ActiveHighlightItem struct {
	From      int       `json:"from"`
	To        int       `json:"to"`
	Severity  string    `json:"severity"`
	ExpiresAt time.Time `json:"expires_at"`
}
