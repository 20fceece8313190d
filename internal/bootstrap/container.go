package bootstrap

import (
	"context"
	"log"

	"ai-docpilot-be/internal/config"
	"ai-docpilot-be/internal/controller"
	"ai-docpilot-be/internal/handler"
	"ai-docpilot-be/internal/pkg/logger"
	"ai-docpilot-be/internal/pkg/mailer"
	"ai-docpilot-be/internal/repository/implementation"
	"ai-docpilot-be/internal/repository/memory"
	"ai-docpilot-be/internal/repository/unitofwork"
	"ai-docpilot-be/internal/service"
	"ai-docpilot-be/internal/websocket"
	"ai-docpilot-be/pkg/embedding"
	"ai-docpilot-be/pkg/embedding/jina"
	"ai-docpilot-be/pkg/llm/factory"

	pktNats "ai-docpilot-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	UserController       controller.IUserController
	AuthController       controller.IAuthController
	OAuthController      controller.IOAuthController
	DocumentController   controller.IDocumentController
	EditorController     controller.IEditorController
	AnalysisController   controller.IAnalysisController
	SuggestionController controller.ISuggestionController
	DiagramController    controller.IDiagramController
	PaymentController    controller.IPaymentController
	PlanController       controller.PlanController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	AnalysisService service.IAnalysisService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	// Embedding Provider based on Config
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Keys.Jina)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	// Tool-capable LLM Provider for the analysis pipeline
	apiKey := cfg.Keys.OpenAI
	if cfg.Ai.LLMProvider == "huggingface" {
		apiKey = cfg.Keys.HuggingFace
	}
	toolProvider, err := factory.NewToolProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		apiKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// In-Memory Editor Session Storage (eviction tears sessions down)
	sessionRepo := memory.NewSessionRepository(cfg.Editor.SessionTTL)

	// 3.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. Services
	publisherService := service.NewPublisherService(cfg.Keys.EmbedTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.EmbedTopic,
		uowFactory,
		embeddingProvider,
	)

	userService := service.NewUserService(uowFactory, natsPub)
	authService := service.NewAuthService(uowFactory, emailService, natsPub)
	oauthService := service.NewOAuthService(uowFactory)

	documentService := service.NewDocumentService(
		uowFactory,
		publisherService,
		embeddingProvider,
		natsPub,
	)
	editorService := service.NewEditorService(
		uowFactory,
		sessionRepo,
		publisherService,
		cfg.Editor.HighlightTTL,
	)
	analysisService := service.NewAnalysisService(
		uowFactory,
		sessionRepo,
		pubSub,
		cfg.Keys.AnalysisTopic,
		publisherService,
		toolProvider,
		embeddingProvider,
		natsPub,
		wsHub,
		cfg.Ai.AgentName,
	)
	suggestionService := service.NewSuggestionService(uowFactory, sessionRepo, natsPub)
	diagramService := service.NewDiagramService(uowFactory, sessionRepo, natsPub)

	paymentService := service.NewPaymentService(uowFactory, natsPub)
	planService := service.NewPlanService(uowFactory)

	// 4.5 Notification System Infrastructure
	notifRepo := implementation.NewNotificationRepository(db)
	notifService := service.NewNotificationService(notifRepo, natsSub, wsHub, wsLogger) // Hub implements NotificationDelivery

	// Start Service (Worker)
	if natsSub != nil {
		go notifService.Start()
	}

	// Handler
	notifHandler := handler.NewNotificationHandler(notifService, natsPub, wsHub, wsLogger)

	// 5. Controllers
	// Note: We return the container with public fields for the server to register
	return &Container{
		NotificationHandler:  notifHandler,
		WebSocketHub:         wsHub,
		UserController:       controller.NewUserController(userService),
		AuthController:       controller.NewAuthController(authService),
		OAuthController:      controller.NewOAuthController(oauthService),
		DocumentController:   controller.NewDocumentController(documentService),
		EditorController:     controller.NewEditorController(editorService),
		AnalysisController:   controller.NewAnalysisController(analysisService),
		SuggestionController: controller.NewSuggestionController(suggestionService),
		DiagramController:    controller.NewDiagramController(diagramService),
		PaymentController:    controller.NewPaymentController(paymentService),
		PlanController:       controller.NewPlanController(planService),

		ConsumerService: consumerService,
		AnalysisService: analysisService,
	}
}
