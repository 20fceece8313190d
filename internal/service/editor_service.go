// FILE: internal/service/editor_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-docpilot-be/internal/dto"
	"ai-docpilot-be/internal/repository/memory"
	"ai-docpilot-be/internal/repository/specification"
	"ai-docpilot-be/internal/repository/unitofwork"
	"ai-docpilot-be/pkg/lexical"
	"ai-docpilot-be/pkg/store"

	"github.com/google/uuid"
)

type IEditorService interface {
	Open(ctx context.Context, userId uuid.UUID, req *dto.OpenEditorRequest) (*dto.OpenEditorResponse, error)
	State(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.EditorSessionResponse, error)
	Save(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.UpdateDocumentResponse, error)
	Close(ctx context.Context, userId uuid.UUID, sessionId string) error
}

type editorService struct {
	uowFactory       unitofwork.RepositoryFactory
	sessions         *memory.SessionRepository
	publisherService IPublisherService
	highlightTTL     time.Duration
}

func NewEditorService(
	uowFactory unitofwork.RepositoryFactory,
	sessions *memory.SessionRepository,
	publisherService IPublisherService,
	highlightTTL time.Duration,
) IEditorService {
	return &editorService{
		uowFactory:       uowFactory,
		sessions:         sessions,
		publisherService: publisherService,
		highlightTTL:     highlightTTL,
	}
}

// ownedSession fetches a live session and checks it belongs to the caller.
// Expired and foreign sessions look identical to the client (nil).
func (s *editorService) ownedSession(userId uuid.UUID, sessionId string) *store.EditorSession {
	session, ok := s.sessions.Get(sessionId)
	if !ok {
		return nil
	}
	if session.UserId != userId.String() {
		return nil
	}
	return session
}

func (s *editorService) Open(ctx context.Context, userId uuid.UUID, req *dto.OpenEditorRequest) (*dto.OpenEditorResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: req.DocumentId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, nil
	}

	doc, err := lexical.NewDocument(document.Content)
	if err != nil {
		return nil, fmt.Errorf("document %s cannot be opened: %w", document.Id, err)
	}

	session := store.NewEditorSession(uuid.NewString(), userId.String(), document.Id.String(), doc, s.highlightTTL)
	s.sessions.Save(session)

	return &dto.OpenEditorResponse{
		SessionId:  session.Id,
		DocumentId: document.Id,
		Title:      document.Title,
		Content:    document.Content,
		OpenedAt:   session.OpenedAt,
	}, nil
}

func (s *editorService) State(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.EditorSessionResponse, error) {
	session := s.ownedSession(userId, sessionId)
	if session == nil {
		return nil, nil
	}
	s.sessions.Touch(sessionId)

	documentId, err := uuid.Parse(session.DocumentId)
	if err != nil {
		return nil, err
	}

	res := &dto.EditorSessionResponse{
		SessionId:   session.Id,
		DocumentId:  documentId,
		OpenedAt:    session.OpenedAt,
		Suggestions: toSuggestionItems(session.Batch()),
		Diagrams:    toDiagramItems(session.Diagrams()),
	}

	if d := session.ActiveHighlight(); d != nil {
		res.Highlight = &dto.ActiveHighlightItem{
			From:      d.From,
			To:        d.To,
			Severity:  d.Severity,
			ExpiresAt: d.ExpiresAt,
		}
	}
	if at := session.AnalyzedAt(); !at.IsZero() {
		res.AnalyzedAt = &at
	}

	return res, nil
}

// Save persists the live session content back to the documents table and
// re-queues the embedding job, same as a client-side save would.
func (s *editorService) Save(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.UpdateDocumentResponse, error) {
	session := s.ownedSession(userId, sessionId)
	if session == nil {
		return nil, nil
	}

	serialized, err := session.Serialize()
	if err != nil {
		return nil, err
	}

	documentId, err := uuid.Parse(session.DocumentId)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: documentId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, nil
	}

	now := time.Now()
	document.Content = serialized
	document.UpdatedAt = &now

	if err := uow.DocumentRepository().Update(ctx, document); err != nil {
		return nil, err
	}

	payload := dto.PublishEmbedDocumentMessage{DocumentId: document.Id}
	payloadJson, _ := json.Marshal(payload)
	if err := s.publisherService.Publish(ctx, payloadJson); err != nil {
		return nil, err
	}

	return &dto.UpdateDocumentResponse{Id: document.Id}, nil
}

func (s *editorService) Close(ctx context.Context, userId uuid.UUID, sessionId string) error {
	session := s.ownedSession(userId, sessionId)
	if session == nil {
		return nil // already gone, closing is idempotent
	}
	// Eviction hook tears the session down (timer cancel included)
	s.sessions.Delete(sessionId)
	return nil
}
