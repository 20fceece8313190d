// FILE: internal/service/suggestion_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"ai-docpilot-be/internal/dto"
	"ai-docpilot-be/internal/entity"
	"ai-docpilot-be/internal/repository/memory"
	"ai-docpilot-be/internal/repository/unitofwork"
	"ai-docpilot-be/pkg/anchor"
	"ai-docpilot-be/pkg/events"
	"ai-docpilot-be/pkg/highlight"
	"ai-docpilot-be/pkg/lexical"
	pktNats "ai-docpilot-be/pkg/nats"
	"ai-docpilot-be/pkg/store"

	"github.com/google/uuid"
)

type ISuggestionService interface {
	List(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.ListSuggestionsResponse, error)
	Apply(ctx context.Context, userId uuid.UUID, request *dto.ApplySuggestionRequest) (*dto.ApplySuggestionResponse, error)
	Highlight(ctx context.Context, userId uuid.UUID, request *dto.HighlightSuggestionRequest) (*dto.HighlightSuggestionResponse, error)
	Dismiss(ctx context.Context, userId uuid.UUID, request *dto.DismissSuggestionRequest) (*dto.DismissSuggestionResponse, error)
	ClearHighlight(ctx context.Context, userId uuid.UUID, request *dto.ClearHighlightRequest) error
}

// suggestionService works the current batch of a live editor session.
// The session holds the document; records only track final status.
type suggestionService struct {
	uowFactory     unitofwork.RepositoryFactory
	sessionRepo    *memory.SessionRepository
	eventPublisher *pktNats.Publisher
}

func NewSuggestionService(
	uowFactory unitofwork.RepositoryFactory,
	sessionRepo *memory.SessionRepository,
	eventPublisher *pktNats.Publisher,
) ISuggestionService {
	return &suggestionService{
		uowFactory:     uowFactory,
		sessionRepo:    sessionRepo,
		eventPublisher: eventPublisher,
	}
}

func (s *suggestionService) ownedSession(userId uuid.UUID, sessionId string) *store.EditorSession {
	session, ok := s.sessionRepo.Get(sessionId)
	if !ok {
		return nil
	}
	if session.UserId != userId.String() {
		return nil
	}
	return session
}

func (s *suggestionService) List(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.ListSuggestionsResponse, error) {
	session := s.ownedSession(userId, sessionId)
	if session == nil {
		return nil, nil
	}
	s.sessionRepo.Touch(sessionId)

	return &dto.ListSuggestionsResponse{
		SessionId:   session.Id,
		Suggestions: toSuggestionItems(session.Batch()),
	}, nil
}

// Apply resolves the suggestion's anchor against the live document and
// performs the replacement. An unresolvable anchor is a reported
// outcome, not an error: the text drifted and the client should
// refresh. Only a successful edit consumes the suggestion.
func (s *suggestionService) Apply(ctx context.Context, userId uuid.UUID, request *dto.ApplySuggestionRequest) (*dto.ApplySuggestionResponse, error) {
	session := s.ownedSession(userId, request.SessionId)
	if session == nil {
		return nil, nil
	}

	m, ok := session.FindSuggestion(request.SuggestionId)
	if !ok {
		return nil, nil
	}
	if !m.Applicable() {
		return nil, fmt.Errorf("suggestion %s is missing a replacement and cannot be applied", m.Id)
	}

	var (
		edit       lexical.Edit
		found      bool
		serialized string
	)
	err := session.WithDocument(func(doc *lexical.Document, hl *highlight.Manager) error {
		a := anchor.Resolve(m.OriginalText, doc)
		if a == nil {
			return nil
		}
		found = true

		applied, err := doc.ReplaceRange(a.From, a.To, m.ReplaceTo)
		if err != nil {
			return err
		}
		edit = applied

		// Decorations survive the edit in remapped coordinates.
		hl.RemapThrough(edit.From, edit.To, edit.NewLen)

		serialized, err = doc.Serialize()
		return err
	})
	if err != nil {
		return nil, err
	}

	if !found {
		return &dto.ApplySuggestionResponse{
			SuggestionId: m.Id,
			Applied:      false,
			AnchorFound:  false,
		}, nil
	}

	session.RemoveSuggestion(m.Id)
	s.sessionRepo.Save(session)

	documentId, err := uuid.Parse(session.DocumentId)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SuggestionRecordRepository().UpdateStatus(ctx, documentId, m.Id, entity.SuggestionStatusApplied); err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: "SUGGESTION_APPLIED",
			Data: map[string]interface{}{
				"document_id":   documentId,
				"suggestion_id": m.Id,
				"user_id":       userId,
			},
			OccurredAt: time.Now(),
		}
		// We log error but don't fail the request as notification is auxiliary
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish SUGGESTION_APPLIED event: %v\n", err)
		}
	}

	return &dto.ApplySuggestionResponse{
		SuggestionId: m.Id,
		Applied:      true,
		AnchorFound:  true,
		From:         edit.From,
		To:           edit.From + edit.NewLen,
		Content:      serialized,
	}, nil
}

// Highlight places the temporary decoration on the suggestion's span.
// The manager's single timer makes a rapid second highlight supersede
// the first.
func (s *suggestionService) Highlight(ctx context.Context, userId uuid.UUID, request *dto.HighlightSuggestionRequest) (*dto.HighlightSuggestionResponse, error) {
	session := s.ownedSession(userId, request.SessionId)
	if session == nil {
		return nil, nil
	}

	m, ok := session.FindSuggestion(request.SuggestionId)
	if !ok {
		return nil, nil
	}

	var decoration *highlight.Decoration
	err := session.WithDocument(func(doc *lexical.Document, hl *highlight.Manager) error {
		a := anchor.Resolve(m.OriginalText, doc)
		if a == nil {
			return nil
		}
		d, err := hl.AddTemporary(a.From, a.To, string(m.Severity))
		if err != nil {
			return err
		}
		decoration = &d
		return nil
	})
	if err != nil {
		return nil, err
	}

	if decoration == nil {
		return &dto.HighlightSuggestionResponse{
			SuggestionId: m.Id,
			AnchorFound:  false,
		}, nil
	}

	return &dto.HighlightSuggestionResponse{
		SuggestionId: m.Id,
		AnchorFound:  true,
		Highlight: &dto.ActiveHighlightItem{
			From:      decoration.From,
			To:        decoration.To,
			Severity:  decoration.Severity,
			ExpiresAt: decoration.ExpiresAt,
		},
	}, nil
}

// Dismiss drops the suggestion from the live batch and records the
// decision.
func (s *suggestionService) Dismiss(ctx context.Context, userId uuid.UUID, request *dto.DismissSuggestionRequest) (*dto.DismissSuggestionResponse, error) {
	session := s.ownedSession(userId, request.SessionId)
	if session == nil {
		return nil, nil
	}

	removed, ok := session.RemoveSuggestion(request.SuggestionId)
	if !ok {
		return nil, nil
	}
	s.sessionRepo.Save(session)

	documentId, err := uuid.Parse(session.DocumentId)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SuggestionRecordRepository().UpdateStatus(ctx, documentId, removed.Id, entity.SuggestionStatusDismissed); err != nil {
		return nil, err
	}

	return &dto.DismissSuggestionResponse{
		SuggestionId: removed.Id,
		Dismissed:    true,
	}, nil
}

// ClearHighlight removes the temporary decoration early. Clearing an
// expired or absent session is a no-op.
func (s *suggestionService) ClearHighlight(ctx context.Context, userId uuid.UUID, request *dto.ClearHighlightRequest) error {
	session := s.ownedSession(userId, request.SessionId)
	if session == nil {
		return nil
	}

	return session.WithDocument(func(doc *lexical.Document, hl *highlight.Manager) error {
		hl.ClearTemporary()
		return nil
	})
}
