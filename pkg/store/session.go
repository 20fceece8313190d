package store

import (
	"sync"
	"time"

	"ai-docpilot-be/pkg/highlight"
	"ai-docpilot-be/pkg/lexical"
	"ai-docpilot-be/pkg/suggestion"
)

// EditorSession is the live in-memory state of one open document: the
// parsed Lexical tree, its highlight manager and the latest analysis
// batch. The analysis worker and the HTTP handlers share it, so every
// document mutation goes through WithDocument under the session lock.
type EditorSession struct {
	Id         string
	UserId     string
	DocumentId string
	OpenedAt   time.Time

	mu         sync.Mutex
	doc        *lexical.Document
	highlights *highlight.Manager
	batch      []suggestion.MergedSuggestion
	diagrams   []suggestion.DiagramInsertion
	analyzedAt time.Time
}

// NewEditorSession wraps an opened document. highlightTTL of zero means
// the manager's default.
func NewEditorSession(id, userId, documentId string, doc *lexical.Document, highlightTTL time.Duration) *EditorSession {
	return &EditorSession{
		Id:         id,
		UserId:     userId,
		DocumentId: documentId,
		OpenedAt:   time.Now(),
		doc:        doc,
		highlights: highlight.NewManager(doc, highlightTTL),
	}
}

// WithDocument runs fn with exclusive access to the document and its
// highlight manager. Edits and decoration remapping belong in the same
// fn so no reader observes one without the other.
func (s *EditorSession) WithDocument(fn func(doc *lexical.Document, hl *highlight.Manager) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.doc, s.highlights)
}

// PlainText returns the document's current plain-text projection.
func (s *EditorSession) PlainText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.PlainText()
}

// Serialize returns the document's current Lexical JSON.
func (s *EditorSession) Serialize() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Serialize()
}

// SetBatch installs the result of an analysis run, superseding whatever
// batch was showing before.
func (s *EditorSession) SetBatch(batch []suggestion.MergedSuggestion, diagrams []suggestion.DiagramInsertion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batch = batch
	s.diagrams = diagrams
	s.analyzedAt = time.Now()
}

// Batch returns a copy of the current merged batch.
func (s *EditorSession) Batch() []suggestion.MergedSuggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]suggestion.MergedSuggestion, len(s.batch))
	copy(out, s.batch)
	return out
}

// FindSuggestion looks a suggestion up by its id or by any id it merged.
func (s *EditorSession) FindSuggestion(id string) (suggestion.MergedSuggestion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.batch[i], true
	}
	return suggestion.MergedSuggestion{}, false
}

// RemoveSuggestion takes a suggestion out of the live batch, by its id
// or by any merged id. Applying and dismissing both end here; the
// persistent record keeps the final status.
func (s *EditorSession) RemoveSuggestion(id string) (suggestion.MergedSuggestion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return suggestion.MergedSuggestion{}, false
	}
	removed := s.batch[i]
	s.batch = append(s.batch[:i], s.batch[i+1:]...)
	return removed, true
}

func (s *EditorSession) indexOf(id string) int {
	for i, m := range s.batch {
		if m.Id == id {
			return i
		}
		for _, merged := range m.MergedIds {
			if merged == id {
				return i
			}
		}
	}
	return -1
}

// Diagrams returns a copy of the pending diagram insertions.
func (s *EditorSession) Diagrams() []suggestion.DiagramInsertion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]suggestion.DiagramInsertion, len(s.diagrams))
	copy(out, s.diagrams)
	return out
}

// TakeDiagrams removes and returns the pending diagram insertions.
// Accepting them consumes them; a later analysis run refills the list.
func (s *EditorSession) TakeDiagrams() []suggestion.DiagramInsertion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.diagrams
	s.diagrams = nil
	return out
}

// AnalyzedAt reports when the current batch was installed, zero if no
// run has completed yet.
func (s *EditorSession) AnalyzedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyzedAt
}

// ActiveHighlight returns the current temporary decoration, nil if none.
func (s *EditorSession) ActiveHighlight() *highlight.Decoration {
	return s.highlights.Active()
}

// Close tears the session down and cancels any pending highlight timer.
// Safe to call more than once; cache eviction and explicit close may
// race.
func (s *EditorSession) Close() {
	s.highlights.Close()
}
