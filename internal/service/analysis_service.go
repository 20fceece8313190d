// FILE: internal/service/analysis_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ai-docpilot-be/internal/constant"
	"ai-docpilot-be/internal/dto"
	"ai-docpilot-be/internal/entity"
	"ai-docpilot-be/internal/repository/memory"
	"ai-docpilot-be/internal/repository/specification"
	"ai-docpilot-be/internal/repository/unitofwork"
	internalWS "ai-docpilot-be/internal/websocket"
	"ai-docpilot-be/pkg/access"
	"ai-docpilot-be/pkg/analysis"
	"ai-docpilot-be/pkg/embedding"
	"ai-docpilot-be/pkg/events"
	"ai-docpilot-be/pkg/llm"
	pktNats "ai-docpilot-be/pkg/nats"
	"ai-docpilot-be/pkg/store"
	"ai-docpilot-be/pkg/suggestion"
	"ai-docpilot-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const (
	// Context retrieval for a pass: how many related chunks to pull and
	// how similar they must be to make it into the prompt.
	analysisContextLimit     = 5
	analysisContextThreshold = 0.45

	// Embedding models cap input length; the head of the projection is
	// enough retrieval signal for a whole-document query.
	analysisQueryChars = 4000
)

type IAnalysisService interface {
	Run(ctx context.Context, userId uuid.UUID, request *dto.RunAnalysisRequest) (*dto.RunAnalysisResponse, error)
	GetRun(ctx context.Context, userId uuid.UUID, runId uuid.UUID) (*dto.AnalysisRunResponse, error)
	Consume(ctx context.Context) error
}

// analysisService triggers analysis runs and works them off the bus.
// The trigger side debits usage and queues the job; the consumer side
// owns the LLM stream, persistence and the websocket push.
type analysisService struct {
	uowFactory        unitofwork.RepositoryFactory
	sessionRepo       *memory.SessionRepository
	pubSub            *gochannel.GoChannel
	topicName         string
	publisherService  IPublisherService
	embeddingProvider embedding.EmbeddingProvider
	eventPublisher    *pktNats.Publisher
	hub               *internalWS.Hub
	agentName         string

	engine         *analysis.Engine
	accessVerifier *access.Verifier
	llmLogger      *log.Logger
}

func NewAnalysisService(
	uowFactory unitofwork.RepositoryFactory,
	sessionRepo *memory.SessionRepository,
	pubSub *gochannel.GoChannel,
	topicName string,
	publisherService IPublisherService,
	toolProvider llm.ToolCapableProvider,
	embeddingProvider embedding.EmbeddingProvider,
	eventPublisher *pktNats.Publisher,
	hub *internalWS.Hub,
	agentName string,
) IAnalysisService {

	llmLogger := initLLMLogger()

	return &analysisService{
		uowFactory:        uowFactory,
		sessionRepo:       sessionRepo,
		pubSub:            pubSub,
		topicName:         topicName,
		publisherService:  publisherService,
		embeddingProvider: embeddingProvider,
		eventPublisher:    eventPublisher,
		hub:               hub,
		agentName:         agentName,

		engine:         analysis.NewEngine(toolProvider, llmLogger),
		accessVerifier: access.NewVerifier(),
		llmLogger:      llmLogger,
	}
}

func initLLMLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "llm_analysis.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[LLM-ANALYSIS] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

// Run checks the quota, records the run and queues the worker job.
// Results arrive over the websocket; the response only acknowledges.
func (as *analysisService) Run(ctx context.Context, userId uuid.UUID, request *dto.RunAnalysisRequest) (*dto.RunAnalysisResponse, error) {
	session, found := as.sessionRepo.Get(request.SessionId)
	if !found || session.UserId != userId.String() {
		return nil, nil
	}

	uow := as.uowFactory.NewUnitOfWork(ctx)

	if err := as.accessVerifier.VerifyAnalysisAccess(ctx, uow, userId); err != nil {
		return nil, err
	}

	documentId, err := uuid.Parse(session.DocumentId)
	if err != nil {
		return nil, fmt.Errorf("invalid document id on session: %w", err)
	}

	run := entity.AnalysisRun{
		Id:         uuid.New(),
		DocumentId: documentId,
		UserId:     userId,
		Agent:      as.agentName,
		Status:     entity.AnalysisRunStatusRunning,
		StartedAt:  time.Now(),
	}
	if err := uow.AnalysisRunRepository().Create(ctx, &run); err != nil {
		return nil, err
	}

	// Debit at trigger time so a queued run counts even if the client
	// disconnects before the worker finishes.
	if err := as.accessVerifier.IncrementUsage(ctx, uow, userId); err != nil {
		return nil, err
	}

	msgJson, err := json.Marshal(dto.PublishAnalyzeDocumentMessage{
		RunId:     run.Id,
		SessionId: session.Id,
	})
	if err != nil {
		return nil, err
	}
	if err := as.publisherService.Publish(ctx, msgJson); err != nil {
		return nil, err
	}

	return &dto.RunAnalysisResponse{
		RunId:     run.Id,
		Status:    string(run.Status),
		StartedAt: run.StartedAt,
	}, nil
}

// GetRun returns the run report for polling clients.
func (as *analysisService) GetRun(ctx context.Context, userId uuid.UUID, runId uuid.UUID) (*dto.AnalysisRunResponse, error) {
	uow := as.uowFactory.NewUnitOfWork(ctx)

	run, err := uow.AnalysisRunRepository().FindOne(ctx,
		specification.ByID{ID: runId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, nil
	}

	return &dto.AnalysisRunResponse{
		RunId:       run.Id,
		DocumentId:  run.DocumentId,
		Agent:       run.Agent,
		Status:      string(run.Status),
		Error:       run.Error,
		Suggestions: run.Suggestions,
		Diagrams:    run.Diagrams,
		Discarded:   run.Discarded,
		Repaired:    run.Repaired,
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
	}, nil
}

// Consume starts the analysis worker loop.
func (as *analysisService) Consume(ctx context.Context) error {
	messages, err := as.pubSub.Subscribe(ctx, as.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			as.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (as *analysisService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishAnalyzeDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal analysis message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Processing analysis run %s", payload.RunId)

	uow := as.uowFactory.NewUnitOfWork(ctx)

	run, err := uow.AnalysisRunRepository().FindOne(ctx, specification.ByID{ID: payload.RunId})
	if err != nil {
		log.Printf("[ERROR] Failed to get analysis run %s: %v", payload.RunId, err)
		msg.Nack() // DB hiccup, retry later
		return
	}
	if run == nil {
		log.Printf("[WARN] Analysis run %s not found, skipping", payload.RunId)
		msg.Ack()
		return
	}

	session, found := as.sessionRepo.Get(payload.SessionId)
	if !found || session.UserId != run.UserId.String() {
		// Session expired between trigger and pickup. Retrying cannot
		// bring it back.
		as.failRun(ctx, uow, run, "editor session expired before analysis started")
		msg.Ack()
		return
	}

	batch, merged, err := as.analyze(ctx, uow, run, session)
	if err != nil {
		// A broken stream would break the same way on redelivery; the
		// client re-triggers instead.
		as.failRun(ctx, uow, run, err.Error())
		msg.Ack()
		return
	}

	if err := as.persistBatch(ctx, uow, run, batch, merged); err != nil {
		log.Printf("[ERROR] Failed to persist analysis run %s: %v", run.Id, err)
		msg.Nack()
		return
	}

	session.SetBatch(merged, batch.Diagrams)
	as.sessionRepo.Save(session)

	as.notifyCompleted(ctx, run, session, batch, merged)

	log.Printf("[INFO] Analysis run %s complete: %d suggestions, %d diagrams, %d discarded",
		run.Id, len(merged), len(batch.Diagrams), len(batch.Discarded))
	msg.Ack()
}

// analyze builds the pass prompt, streams the model and merges the
// result against the live projection.
func (as *analysisService) analyze(ctx context.Context, uow unitofwork.UnitOfWork, run *entity.AnalysisRun, session *store.EditorSession) (*analysis.Batch, []suggestion.MergedSuggestion, error) {
	plainText := session.PlainText()
	if strings.TrimSpace(plainText) == "" {
		return nil, nil, fmt.Errorf("document is empty, nothing to analyze")
	}

	builder := analysis.NewPromptBuilder(plainText)
	if chunks := as.retrieveContext(ctx, uow, run, plainText); len(chunks) > 0 {
		builder = builder.WithContext(chunks)
	}

	history := []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: constant.AnalysisSystemPromptV1},
		{Role: constant.ChatMessageRoleUser, Content: builder.Build()},
	}

	as.llmLogger.Printf("[RUN %s] agent=%s document=%s chars=%d", run.Id, run.Agent, run.DocumentId, len(plainText))

	batch, err := as.engine.Analyze(ctx, analysis.Pass{
		Agent:   run.Agent,
		History: history,
	}, llm.WithTemperature(0.2))
	if err != nil {
		return nil, nil, err
	}

	merged := suggestion.Merge(batch.Suggestions, plainText)
	return batch, merged, nil
}

// retrieveContext pulls the nearest chunks from the user's other
// documents. Retrieval is best-effort: failures degrade the pass to
// document-only analysis instead of failing the run.
func (as *analysisService) retrieveContext(ctx context.Context, uow unitofwork.UnitOfWork, run *entity.AnalysisRun, plainText string) []analysis.ContextChunk {
	queryText := utils.SplitText(plainText, analysisQueryChars, 0)[0]

	res, err := as.embeddingProvider.Generate(queryText, "RETRIEVAL_QUERY")
	if err != nil {
		as.llmLogger.Printf("[WARN] Context embedding failed for run %s: %v", run.Id, err)
		return nil
	}

	scored, err := uow.DocumentEmbeddingRepository().SearchSimilar(ctx, res.Embedding.Values, analysisContextLimit, run.UserId, run.DocumentId)
	if err != nil {
		as.llmLogger.Printf("[WARN] Context retrieval failed for run %s: %v", run.Id, err)
		return nil
	}

	var documentIds []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, s := range scored {
		if !seen[s.Embedding.DocumentId] {
			seen[s.Embedding.DocumentId] = true
			documentIds = append(documentIds, s.Embedding.DocumentId)
		}
	}

	titles := make(map[uuid.UUID]string, len(documentIds))
	if len(documentIds) > 0 {
		documents, err := uow.DocumentRepository().FindAll(ctx, specification.ByIDs{IDs: documentIds})
		if err != nil {
			as.llmLogger.Printf("[WARN] Context title lookup failed for run %s: %v", run.Id, err)
		} else {
			for _, d := range documents {
				titles[d.Id] = d.Title
			}
		}
	}

	chunks := make([]analysis.ContextChunk, 0, len(scored))
	for _, s := range scored {
		if s.Similarity < analysisContextThreshold {
			continue
		}
		title := titles[s.Embedding.DocumentId]
		if title == "" {
			title = "Untitled document"
		}
		chunks = append(chunks, analysis.ContextChunk{
			Title:      title,
			Chunk:      s.Embedding.Chunk,
			Similarity: s.Similarity,
		})
	}

	if len(chunks) > 0 {
		as.llmLogger.Printf("[RUN %s] context: %d chunks from %d documents", run.Id, len(chunks), len(documentIds))
	}
	return chunks
}

// persistBatch writes the run outcome in one transaction: the previous
// pending batch is superseded, the new records land, the run closes.
func (as *analysisService) persistBatch(ctx context.Context, uow unitofwork.UnitOfWork, run *entity.AnalysisRun, batch *analysis.Batch, merged []suggestion.MergedSuggestion) error {
	now := time.Now()

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.SuggestionRecordRepository().SupersedePending(ctx, run.DocumentId); err != nil {
		return err
	}
	if err := uow.DiagramRecordRepository().SkipPending(ctx, run.DocumentId); err != nil {
		return err
	}

	if len(merged) > 0 {
		records := make([]*entity.SuggestionRecord, 0, len(merged))
		for _, m := range merged {
			rawArgs, err := json.Marshal(m.Suggestion)
			if err != nil {
				return err
			}
			records = append(records, &entity.SuggestionRecord{
				Id:           uuid.New(),
				RunId:        run.Id,
				DocumentId:   run.DocumentId,
				SuggestionId: m.Id,
				MergedIds:    m.MergedIds,
				Type:         m.Type,
				Severity:     string(m.Severity),
				Paragraph:    m.Paragraph,
				Description:  m.Description,
				OriginalText: m.OriginalText,
				ReplaceTo:    m.ReplaceTo,
				Confidence:   m.Confidence,
				Agent:        m.Agent,
				Stale:        m.Stale,
				Status:       entity.SuggestionStatusPending,
				RawArgs:      string(rawArgs),
				CreatedAt:    now,
			})
		}
		if err := uow.SuggestionRecordRepository().CreateBulk(ctx, records); err != nil {
			return err
		}
	}

	if len(batch.Diagrams) > 0 {
		records := make([]*entity.DiagramRecord, 0, len(batch.Diagrams))
		for i, d := range batch.Diagrams {
			records = append(records, &entity.DiagramRecord{
				Id:              uuid.New(),
				RunId:           run.Id,
				DocumentId:      run.DocumentId,
				InsertAfterText: d.InsertAfterText,
				DiagramSyntax:   d.DiagramSyntax,
				DiagramType:     d.DiagramType,
				Title:           d.Title,
				Status:          entity.DiagramStatusPending,
				// Millisecond offsets keep accept-time ordering stable;
				// the session applies insertions in batch order.
				CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
			})
		}
		if err := uow.DiagramRecordRepository().CreateBulk(ctx, records); err != nil {
			return err
		}
	}

	finishedAt := time.Now()
	run.Status = entity.AnalysisRunStatusComplete
	run.Error = ""
	run.Suggestions = len(merged)
	run.Diagrams = len(batch.Diagrams)
	run.Discarded = len(batch.Discarded)
	run.Repaired = batch.Repaired
	run.FinishedAt = &finishedAt
	if err := uow.AnalysisRunRepository().Update(ctx, run); err != nil {
		return err
	}

	return uow.Commit()
}

// failRun closes the run with a reason and tells the client to stop
// waiting. Failures here are logged, never propagated.
func (as *analysisService) failRun(ctx context.Context, uow unitofwork.UnitOfWork, run *entity.AnalysisRun, reason string) {
	now := time.Now()
	run.Status = entity.AnalysisRunStatusFailed
	run.Error = reason
	run.FinishedAt = &now
	if err := uow.AnalysisRunRepository().Update(ctx, run); err != nil {
		log.Printf("[ERROR] Failed to mark analysis run %s failed: %v", run.Id, err)
	}

	log.Printf("[WARN] Analysis run %s failed: %s", run.Id, reason)

	if as.hub != nil {
		as.hub.Send(run.UserId, internalWS.Message{
			Type: "analysis_failed",
			Data: map[string]interface{}{
				"run_id": run.Id,
				"error":  reason,
			},
		})
	}
}

// notifyCompleted pushes the batch to the owning user and emits the
// domain event. Both are auxiliary to the persisted run.
func (as *analysisService) notifyCompleted(ctx context.Context, run *entity.AnalysisRun, session *store.EditorSession, batch *analysis.Batch, merged []suggestion.MergedSuggestion) {
	if as.hub != nil {
		as.hub.Send(run.UserId, internalWS.Message{
			Type: "analysis_completed",
			Data: dto.AnalysisCompletedPayload{
				RunId:       run.Id,
				SessionId:   session.Id,
				DocumentId:  run.DocumentId,
				Status:      string(run.Status),
				Suggestions: toSuggestionItems(merged),
				Diagrams:    toDiagramItems(batch.Diagrams),
				Discarded:   len(batch.Discarded),
				Repaired:    batch.Repaired,
				AnalyzedAt:  session.AnalyzedAt(),
			},
		})
	}

	if as.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: "DOCUMENT_ANALYZED",
			Data: map[string]interface{}{
				"run_id":      run.Id,
				"document_id": run.DocumentId,
				"user_id":     run.UserId,
				"suggestions": len(merged),
				"diagrams":    len(batch.Diagrams),
			},
			OccurredAt: time.Now(),
		}
		// We log error but don't fail the run as notification is auxiliary
		if err := as.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish DOCUMENT_ANALYZED event: %v\n", err)
		}
	}
}

func toSuggestionItems(merged []suggestion.MergedSuggestion) []dto.SuggestionItem {
	items := make([]dto.SuggestionItem, 0, len(merged))
	for _, m := range merged {
		items = append(items, dto.SuggestionItem{
			Id:           m.Id,
			Type:         m.Type,
			Severity:     string(m.Severity),
			Paragraph:    m.Paragraph,
			Description:  m.Description,
			OriginalText: m.OriginalText,
			ReplaceTo:    m.ReplaceTo,
			Confidence:   m.Confidence,
			Agent:        m.Agent,
			MergedIds:    m.MergedIds,
			Stale:        m.Stale,
			Applicable:   m.Applicable(),
			CreatedAt:    m.CreatedAt,
		})
	}
	return items
}

func toDiagramItems(diagrams []suggestion.DiagramInsertion) []dto.DiagramItem {
	items := make([]dto.DiagramItem, 0, len(diagrams))
	for _, d := range diagrams {
		items = append(items, dto.DiagramItem{
			InsertAfterText: d.InsertAfterText,
			DiagramSyntax:   d.DiagramSyntax,
			DiagramType:     d.DiagramType,
			Title:           d.Title,
		})
	}
	return items
}
