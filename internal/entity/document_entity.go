package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document is a saved Lexical document. Content holds the serialized
// editor state JSON, not the plain-text projection.
type Document struct {
	Id        uuid.UUID
	Title     string
	Content   string
	UserId    uuid.UUID
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

// DocumentEmbedding is one chunk of a document's plain-text projection
// with its vector, used to retrieve related documents as analysis
// context.
type DocumentEmbedding struct {
	Id             uuid.UUID
	Chunk          string
	EmbeddingValue []float32
	DocumentId     uuid.UUID
	ChunkIndex     int
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
