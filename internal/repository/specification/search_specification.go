package specification

import "gorm.io/gorm"

// DocumentSearchQuery filters documents by title or serialized content.
// Content is stored as Lexical JSON so the pattern still hits text nodes.
type DocumentSearchQuery struct {
	Query string
}

func (s DocumentSearchQuery) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + s.Query + "%"
	// Using ILIKE for Postgres (case insensitive)
	return db.Where("title ILIKE ? OR content ILIKE ?", pattern, pattern)
}

// ByDocumentTitle filters documents by partial title match (case-insensitive)
type ByDocumentTitle struct {
	Title string
}

func (s ByDocumentTitle) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + s.Title + "%"
	return db.Where("title ILIKE ?", pattern)
}
