package bootstrap

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"voc-chatbot-be/internal/config"
	"voc-chatbot-be/internal/controller"
	"voc-chatbot-be/internal/pkg/logger"
	"voc-chatbot-be/internal/pkg/mailer"
	"voc-chatbot-be/internal/repository/memory"
	"voc-chatbot-be/internal/repository/unitofwork"
	"voc-chatbot-be/internal/service"
	"voc-chatbot-be/pkg/embedding"
	"voc-chatbot-be/pkg/embedding/jina"
	"voc-chatbot-be/pkg/flow"
	"voc-chatbot-be/pkg/llm"
	llmfactory "voc-chatbot-be/pkg/llm/factory"
	"voc-chatbot-be/pkg/search"

	pktNats "voc-chatbot-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController      controller.IChatController
	AdminController     controller.IAdminController
	AnalyticsController controller.IAnalyticsController
	AuthController      controller.IAuthController
	HealthController    controller.IHealthController

	// Background services (exposed for main.go to run)
	ConsumerService  service.IConsumerService
	AnalyticsService service.IAnalyticsService
	AuthService      service.IAuthService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.SMTP.SenderName,
	)

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI providers
	var embeddingProvider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Ai.EmbeddingAPIKey)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else {
		var err error
		embeddingProvider, err = embedding.NewProvider(
			cfg.Ai.EmbeddingProvider,
			cfg.Ai.EmbeddingBaseURL,
			cfg.Ai.EmbeddingModel,
			cfg.Ai.EmbeddingAPIKey,
		)
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize embedding provider: %v", err)
		}
		log.Printf("[INFO] Using Embedding Provider: %s (%s)", cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel)
	}

	llmProvider, err := llmfactory.NewProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL,
		cfg.Ai.LLMAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	completionGateway := llm.NewGateway(llmProvider, cfg.Ai.Temperature)

	// 4. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

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

	// 5. Domain wiring
	retrievalLogger := newRetrievalLogger()
	retriever := search.NewRetriever(uowFactory, embeddingProvider, cfg.Conversation.SimilarityThreshold, retrievalLogger)

	sessionRepo := memory.NewSessionRepository()

	chatService := service.NewChatService(
		uowFactory,
		completionGateway,
		retriever,
		flowConfigFrom(cfg),
		sessionRepo,
		rdb,
		pubSub,
		natsPub,
		emailService,
		cfg.SMTP.EscalationInbox,
	)

	consumerService := service.NewConsumerService(pubSub, uowFactory, embeddingProvider)

	adminService := service.NewAdminService(uowFactory, completionGateway, pubSub, natsPub, sysLogger)

	analyticsService := service.NewAnalyticsService(
		uowFactory,
		cfg.Analytics.SessionIdleWindow,
		cfg.Analytics.SweepInterval,
		sysLogger,
	)

	authService := service.NewAuthService(uowFactory, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, sysLogger)

	if natsSub != nil {
		eventLogService := service.NewEventLogService(natsSub, sysLogger)
		go eventLogService.Start()
	}

	// 6. Controllers
	return &Container{
		ChatController:      controller.NewChatController(chatService),
		AdminController:     controller.NewAdminController(adminService),
		AnalyticsController: controller.NewAnalyticsController(analyticsService),
		AuthController:      controller.NewAuthController(authService),
		HealthController:    controller.NewHealthController(),

		ConsumerService:  consumerService,
		AnalyticsService: analyticsService,
		AuthService:      authService,
	}
}

// flowConfigFrom maps environment configuration onto the pipeline defaults.
func flowConfigFrom(cfg *config.Config) flow.Config {
	fc := flow.DefaultConfig()
	fc.IssueConfidenceThreshold = cfg.Conversation.IssueConfidenceThreshold
	fc.CaseConfidenceThreshold = cfg.Conversation.CaseConfidenceThreshold
	fc.MaxClassificationAttempts = cfg.Conversation.MaxClassificationAttempts
	fc.MaxQuestionsPerCase = cfg.Conversation.MaxQuestionsPerCase
	fc.MaxConversationTurns = cfg.Conversation.MaxConversationTurns
	fc.EscalateAfterErrors = cfg.Conversation.EscalateAfterErrors
	fc.ClassifyTopK = cfg.Conversation.ClassifyTopK
	fc.NarrowTopK = cfg.Conversation.NarrowTopK
	fc.TurnTimeout = cfg.Conversation.TurnTimeout
	fc.QuestionStrategy = cfg.Conversation.QuestionStrategy
	return fc
}

func newRetrievalLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "retrieval.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[RETRIEVAL] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}
