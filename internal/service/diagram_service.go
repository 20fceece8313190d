// FILE: internal/service/diagram_service.go
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"ai-docpilot-be/internal/dto"
	"ai-docpilot-be/internal/entity"
	"ai-docpilot-be/internal/repository/memory"
	"ai-docpilot-be/internal/repository/specification"
	"ai-docpilot-be/internal/repository/unitofwork"
	"ai-docpilot-be/pkg/diagram"
	"ai-docpilot-be/pkg/events"
	"ai-docpilot-be/pkg/highlight"
	"ai-docpilot-be/pkg/lexical"
	pktNats "ai-docpilot-be/pkg/nats"
	"ai-docpilot-be/pkg/store"

	"github.com/google/uuid"
)

type IDiagramService interface {
	Accept(ctx context.Context, userId uuid.UUID, request *dto.AcceptDiagramsRequest) (*dto.AcceptDiagramsResponse, error)
}

// diagramService lands the pending insertions of a session into its
// document, in batch order, and records where each one went.
type diagramService struct {
	uowFactory     unitofwork.RepositoryFactory
	sessionRepo    *memory.SessionRepository
	eventPublisher *pktNats.Publisher
}

func NewDiagramService(
	uowFactory unitofwork.RepositoryFactory,
	sessionRepo *memory.SessionRepository,
	eventPublisher *pktNats.Publisher,
) IDiagramService {
	return &diagramService{
		uowFactory:     uowFactory,
		sessionRepo:    sessionRepo,
		eventPublisher: eventPublisher,
	}
}

func (s *diagramService) ownedSession(userId uuid.UUID, sessionId string) *store.EditorSession {
	session, ok := s.sessionRepo.Get(sessionId)
	if !ok {
		return nil
	}
	if session.UserId != userId.String() {
		return nil
	}
	return session
}

// Accept consumes the session's pending insertions and applies them
// strictly in order, each anchored against the document state the
// previous one left behind. Consuming is one-way: a failed batch does
// not restore the tail, the next analysis run refills the list.
func (s *diagramService) Accept(ctx context.Context, userId uuid.UUID, request *dto.AcceptDiagramsRequest) (*dto.AcceptDiagramsResponse, error) {
	session := s.ownedSession(userId, request.SessionId)
	if session == nil {
		return nil, nil
	}
	s.sessionRepo.Touch(request.SessionId)

	pending := session.TakeDiagrams()
	if len(pending) == 0 {
		return &dto.AcceptDiagramsResponse{
			SessionId:  session.Id,
			Placements: []dto.DiagramPlacement{},
		}, nil
	}

	var (
		results    []diagram.Result
		serialized string
	)
	err := session.WithDocument(func(doc *lexical.Document, hl *highlight.Manager) error {
		var err error
		results, err = diagram.InsertBatch(doc, pending)
		if err != nil {
			return err
		}

		// Insertions shift offsets under the active decoration; drop it
		// rather than show it somewhere wrong.
		hl.ClearTemporary()

		serialized, err = doc.Serialize()
		return err
	})
	if err != nil {
		return nil, err
	}

	documentId, parseErr := uuid.Parse(session.DocumentId)
	if parseErr != nil {
		return nil, parseErr
	}

	s.markInserted(ctx, documentId, results)

	placements := make([]dto.DiagramPlacement, 0, len(results))
	for i, r := range results {
		placements = append(placements, dto.DiagramPlacement{
			Title:      pending[i].Title,
			Inserted:   r.Inserted,
			ExactMatch: r.ExactMatch,
			At:         r.At,
		})
	}

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: "DIAGRAM_INSERTED",
			Data: map[string]interface{}{
				"document_id": documentId,
				"user_id":     userId,
				"count":       len(results),
			},
			OccurredAt: time.Now(),
		}
		// We log error but don't fail the request as notification is auxiliary
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish DIAGRAM_INSERTED event: %v\n", err)
		}
	}

	return &dto.AcceptDiagramsResponse{
		SessionId:  session.Id,
		Placements: placements,
		Content:    serialized,
	}, nil
}

// markInserted flips the persisted records for the applied batch. The
// pending rows are created in batch order, so row i matches result i.
// Record updates are best-effort: the document mutation already
// happened and must not be rolled back over bookkeeping.
func (s *diagramService) markInserted(ctx context.Context, documentId uuid.UUID, results []diagram.Result) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	records, err := uow.DiagramRecordRepository().FindAll(ctx,
		specification.ByDocumentID{DocumentID: documentId},
		specification.ByStatus{Status: string(entity.DiagramStatusPending)},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		log.Printf("[ERROR] Failed to load diagram records for document %s: %v", documentId, err)
		return
	}

	for i, r := range results {
		if i >= len(records) {
			break
		}
		if !r.Inserted {
			continue
		}
		if err := uow.DiagramRecordRepository().MarkInserted(ctx, records[i].Id, r.ExactMatch); err != nil {
			log.Printf("[ERROR] Failed to mark diagram record %s inserted: %v", records[i].Id, err)
		}
	}
}
