// FILE: internal/service/document_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-docpilot-be/internal/dto"
	"ai-docpilot-be/internal/entity"
	"ai-docpilot-be/internal/repository/specification"
	"ai-docpilot-be/internal/repository/unitofwork"
	"ai-docpilot-be/pkg/access"
	"ai-docpilot-be/pkg/embedding"
	"ai-docpilot-be/pkg/events"
	"ai-docpilot-be/pkg/lexical"
	pktNats "ai-docpilot-be/pkg/nats"
	pkgSearch "ai-docpilot-be/pkg/search"

	"github.com/google/uuid"
)

// emptyLexicalDocument is what a blank editor serializes to.
const emptyLexicalDocument = `{"root":{"type":"root","version":1,"children":[{"type":"paragraph","version":1,"children":[]}]}}`

// searchSimilarityThreshold drops weakly related vector hits from search results.
const searchSimilarityThreshold = 0.35

type IDocumentService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowDocumentResponse, error)
	List(ctx context.Context, userId uuid.UUID) (*dto.ListDocumentsResponse, error)
	Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateDocumentRequest) (*dto.UpdateDocumentResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
	Search(ctx context.Context, userId uuid.UUID, search string) ([]*dto.SearchDocumentResponse, error)
}

type documentService struct {
	uowFactory        unitofwork.RepositoryFactory
	publisherService  IPublisherService
	embeddingProvider embedding.EmbeddingProvider
	eventPublisher    *pktNats.Publisher
	accessVerifier    *access.Verifier
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	embeddingProvider embedding.EmbeddingProvider,
	eventPublisher *pktNats.Publisher,
) IDocumentService {
	return &documentService{
		uowFactory:        uowFactory,
		publisherService:  publisherService,
		embeddingProvider: embeddingProvider,
		eventPublisher:    eventPublisher,
		accessVerifier:    access.NewVerifier(),
	}
}

func (c *documentService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	if err := c.accessVerifier.VerifyDocumentLimit(ctx, uow, userId); err != nil {
		return nil, err
	}

	content := req.Content
	if content == "" {
		content = emptyLexicalDocument
	}
	// Reject content the editor could never load
	if _, err := lexical.NewDocument(content); err != nil {
		return nil, fmt.Errorf("invalid document content: %w", err)
	}

	document := entity.Document{
		Id:        uuid.New(),
		Title:     req.Title,
		Content:   content,
		UserId:    userId,
		CreatedAt: time.Now(),
	}

	err := uow.DocumentRepository().Create(ctx, &document)
	if err != nil {
		return nil, err
	}

	msgPayload := dto.PublishEmbedDocumentMessage{
		DocumentId: document.Id,
	}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		return nil, err
	}

	err = c.publisherService.Publish(ctx, msgJson)
	if err != nil {
		return nil, err
	}

	// Publish Event for Notification System
	if c.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: "DOCUMENT_CREATED",
			Data: map[string]interface{}{
				"title":       document.Title,
				"document_id": document.Id,
				"user_id":     userId,
			},
			OccurredAt: time.Now(),
		}
		// We log error but don't fail the request as notification is auxiliary
		if err := c.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish DOCUMENT_CREATED event: %v\n", err)
		}
	}

	return &dto.CreateDocumentResponse{
		Id: document.Id,
	}, nil
}

func (c *documentService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowDocumentResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, nil // Not found
	}

	res := dto.ShowDocumentResponse{
		Id:        document.Id,
		Title:     document.Title,
		Content:   document.Content,
		CreatedAt: document.CreatedAt,
		UpdatedAt: document.UpdatedAt,
	}

	return &res, nil
}

func (c *documentService) List(ctx context.Context, userId uuid.UUID) (*dto.ListDocumentsResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	documents, err := uow.DocumentRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	items := make([]dto.DocumentListItem, 0, len(documents))
	for _, d := range documents {
		items = append(items, dto.DocumentListItem{
			Id:        d.Id,
			Title:     d.Title,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		})
	}

	return &dto.ListDocumentsResponse{
		Documents: items,
		Total:     int64(len(items)),
	}, nil
}

func (c *documentService) Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateDocumentRequest) (*dto.UpdateDocumentResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: req.Id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, nil
	}

	if req.Content != "" {
		if _, err := lexical.NewDocument(req.Content); err != nil {
			return nil, fmt.Errorf("invalid document content: %w", err)
		}
		document.Content = req.Content
	}

	now := time.Now()
	document.Title = req.Title
	document.UpdatedAt = &now

	err = uow.DocumentRepository().Update(ctx, document)
	if err != nil {
		return nil, err
	}

	// Saving re-queues the embedding job so analysis context stays fresh
	payload := dto.PublishEmbedDocumentMessage{
		DocumentId: document.Id,
	}
	payloadJson, _ := json.Marshal(payload)
	err = c.publisherService.Publish(ctx, payloadJson)
	if err != nil {
		return nil, err
	}

	return &dto.UpdateDocumentResponse{
		Id: document.Id,
	}, nil
}

func (c *documentService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if document == nil {
		return nil
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return err
	}

	if err := uow.DocumentEmbeddingRepository().DeleteByDocumentId(ctx, id); err != nil {
		return err
	}

	return uow.Commit()
}

func (c *documentService) Search(ctx context.Context, userId uuid.UUID, search string) ([]*dto.SearchDocumentResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	var err error
	var documents []*entity.Document
	var searchType string
	scoreMap := make(map[uuid.UUID]float64) // Track scores for semantic results

	// === SLASH COMMAND PARSING ===
	// Extract filters like /doc:, /title:
	filters := pkgSearch.ParseQuery(search)
	hasFilters := filters.Title != ""

	if hasFilters {
		// STRATEGY: LITERAL FILTER (Bypass AI)
		searchType = "literal_filter"

		specs := []specification.Specification{
			specification.DocumentOwnedByUser{UserID: userId},
			specification.ByDocumentTitle{Title: filters.Title},
		}
		if filters.SearchQuery != "" {
			// If there's text remaining, search it in Title OR Content
			specs = append(specs, specification.DocumentSearchQuery{Query: filters.SearchQuery})
		}

		documents, err = uow.DocumentRepository().FindAll(ctx, specs...)
		if err != nil {
			return nil, err
		}

	} else {
		// === SMART SEARCH STRATEGY ===
		// No manual filters -> decide between Literal or Semantic based on query
		strategy := pkgSearch.DetermineStrategy(search)

		if strategy == pkgSearch.StrategyLiteral {
			searchType = "literal"
			// Literal Search: SQL ILIKE
			documents, err = uow.DocumentRepository().FindAll(ctx,
				specification.UserOwnedBy{UserID: userId},
				specification.DocumentSearchQuery{Query: search},
			)
			if err != nil {
				return nil, err
			}
		} else {
			searchType = "semantic"
			// Semantic Search: Vector Embedding
			embeddingRes, err := c.embeddingProvider.Generate(
				search,
				"RETRIEVAL_QUERY",
			)
			if err != nil {
				return nil, err
			}

			scoredResults, err := uow.DocumentEmbeddingRepository().SearchSimilar(ctx, embeddingRes.Embedding.Values, 10, userId, uuid.Nil)
			if err != nil {
				return nil, err
			}

			// Extract Document IDs and track scores (Deduplicated)
			ids := make([]uuid.UUID, 0)
			seen := make(map[uuid.UUID]bool)

			for _, sr := range scoredResults {
				if sr.Similarity < searchSimilarityThreshold {
					continue
				}
				if !seen[sr.Embedding.DocumentId] {
					ids = append(ids, sr.Embedding.DocumentId)
					seen[sr.Embedding.DocumentId] = true
					scoreMap[sr.Embedding.DocumentId] = sr.Similarity
				}
			}

			if len(ids) == 0 {
				return []*dto.SearchDocumentResponse{}, nil
			}

			fetchedDocuments, err := uow.DocumentRepository().FindAll(ctx, specification.ByIDs{IDs: ids}, specification.UserOwnedBy{UserID: userId})
			if err != nil {
				return nil, err
			}

			// Preserve order of Scored Results (highly relevant first)
			documents = make([]*entity.Document, 0)
			added := make(map[uuid.UUID]bool)

			for _, sr := range scoredResults {
				if added[sr.Embedding.DocumentId] || !seen[sr.Embedding.DocumentId] {
					continue
				}
				for _, document := range fetchedDocuments {
					if sr.Embedding.DocumentId == document.Id {
						documents = append(documents, document)
						added[document.Id] = true
						break
					}
				}
			}
		}
	}

	// === NORMALIZATION ===
	// Convert Raw Lexical JSON -> Plain Text for Frontend
	response := make([]*dto.SearchDocumentResponse, 0)
	for _, document := range documents {
		parsedContent := lexical.ParseContent(document.Content)

		resp := &dto.SearchDocumentResponse{
			Id:         document.Id,
			Title:      document.Title,
			Content:    parsedContent,
			CreatedAt:  document.CreatedAt,
			UpdatedAt:  document.UpdatedAt,
			SearchType: searchType,
		}

		// Include relevance score for semantic search results
		if score, ok := scoreMap[document.Id]; ok {
			resp.RelevanceScore = &score
		}

		response = append(response, resp)
	}

	return response, nil
}
