package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"ai-docpilot-be/internal/entity"
	"ai-docpilot-be/internal/repository/specification"
	"ai-docpilot-be/internal/repository/unitofwork"
	"ai-docpilot-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.DocumentRepository())
	assert.NotNil(t, uow.DocumentEmbeddingRepository())
	assert.NotNil(t, uow.AnalysisRunRepository())
	assert.NotNil(t, uow.SuggestionRecordRepository())
	assert.NotNil(t, uow.DiagramRecordRepository())
	assert.NotNil(t, uow.SubscriptionRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check User Repository", func(t *testing.T) {
		count, err := uow.UserRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("User count: %d", count)
	})

	t.Run("Check Document Embedding Repository", func(t *testing.T) {
		// Count implies the table and vector column exist
		count, err := uow.DocumentEmbeddingRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("DocumentEmbedding count: %d", count)
	})

	t.Run("Document And Analysis Run Lifecycle", func(t *testing.T) {
		ctx := context.Background()

		userId := uuid.New()
		user := &entity.User{
			Id:       userId,
			Email:    "test-integration-" + uuid.New().String() + "@example.com",
			FullName: "Integration Test User",
			Role:     "user",
			Status:   "active",
		}
		err := uow.UserRepository().Create(ctx, user)
		assert.NoError(t, err)

		doc := &entity.Document{
			Id:      uuid.New(),
			Title:   "Integration Doc",
			Content: `{"root":{"type":"root","version":1,"children":[{"type":"paragraph","version":1,"children":[{"type":"text","version":1,"text":"the device is here"}]}]}}`,
			UserId:  userId,
		}
		err = uow.DocumentRepository().Create(ctx, doc)
		assert.NoError(t, err)

		run := &entity.AnalysisRun{
			Id:         uuid.New(),
			DocumentId: doc.Id,
			UserId:     userId,
			Agent:      "integration",
			Status:     entity.AnalysisRunStatusRunning,
			StartedAt:  time.Now(),
		}
		err = uow.AnalysisRunRepository().Create(ctx, run)
		assert.NoError(t, err)

		records := []*entity.SuggestionRecord{
			{
				Id:           uuid.New(),
				RunId:        run.Id,
				DocumentId:   doc.Id,
				SuggestionId: "s1",
				MergedIds:    []string{"s1", "s2"},
				Severity:     "high",
				Paragraph:    1,
				Description:  "integration check",
				OriginalText: "the device",
				ReplaceTo:    "the apparatus",
				Confidence:   0.9,
				Status:       entity.SuggestionStatusPending,
			},
		}
		err = uow.SuggestionRecordRepository().CreateBulk(ctx, records)
		assert.NoError(t, err)

		// A new batch supersedes the pending one
		err = uow.SuggestionRecordRepository().SupersedePending(ctx, doc.Id)
		assert.NoError(t, err)

		got, err := uow.SuggestionRecordRepository().FindOne(ctx,
			specification.ByDocumentID{DocumentID: doc.Id},
			specification.BySuggestionId{SuggestionId: "s1"},
		)
		assert.NoError(t, err)
		if assert.NotNil(t, got) {
			assert.Equal(t, entity.SuggestionStatusSuperseded, got.Status)
			assert.Equal(t, []string{"s1", "s2"}, got.MergedIds)
		}

		// Cleanup
		assert.NoError(t, uow.DocumentRepository().DeleteAllByUserIdUnscoped(ctx, userId))
		assert.NoError(t, uow.UserRepository().DeleteUnscoped(ctx, userId))
	})
}
