package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateDocumentRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content"` // Raw Lexical JSON; empty means a blank document
}

type CreateDocumentResponse struct {
	Id uuid.UUID `json:"id"`
}

type ShowDocumentResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type UpdateDocumentRequest struct {
	Id      uuid.UUID
	Title   string `json:"title" validate:"required"`
	Content string `json:"content"`
}

type UpdateDocumentResponse struct {
	Id uuid.UUID `json:"id"`
}

type DocumentListItem struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type ListDocumentsResponse struct {
	Documents []DocumentListItem `json:"documents"`
	Total     int64              `json:"total"`
}

type SearchDocumentResponse struct {
	Id             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Content        string     `json:"content"` // Plain text, not Lexical JSON
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
	SearchType     string     `json:"search_type,omitempty"`     // "literal_filter" | "literal" | "semantic"
	RelevanceScore *float64   `json:"relevance_score,omitempty"` // 0.0-1.0, only for semantic search
}

// PublishEmbedDocumentMessage rides the in-process bus from the document
// service to the embedding consumer.
type PublishEmbedDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
