package bootstrap

import (
	"context"
	"log"
	"time"

	"fleetquery-be/internal/config"
	"fleetquery-be/internal/controller"
	"fleetquery-be/internal/pkg/logger"
	"fleetquery-be/internal/repository/implementation"
	"fleetquery-be/internal/repository/memory"
	"fleetquery-be/internal/service"
	"fleetquery-be/pkg/cot"
	"fleetquery-be/pkg/embedding"
	"fleetquery-be/pkg/llm/factory"
	"fleetquery-be/pkg/retrieval"
	"fleetquery-be/pkg/sqlgen"

	pktNats "fleetquery-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController      controller.IChatController
	KnowledgeController controller.IKnowledgeController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	AuditService    service.IAuditService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	auditLogger := logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	// The failover gateway tries the configured primary first and retries
	// once against the other provider.
	geminiProvider := embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	ollamaProvider := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbeddingModel)

	var embeddingGateway embedding.Provider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingGateway = embedding.NewFailover(ollamaProvider, geminiProvider)
		log.Printf("[INFO] Embedding gateway: OLLAMA (%s) with GEMINI failover", cfg.Ai.OllamaEmbeddingModel)
	} else {
		embeddingGateway = embedding.NewFailover(geminiProvider, ollamaProvider)
		log.Printf("[INFO] Embedding gateway: GEMINI with OLLAMA (%s) failover", cfg.Ai.OllamaEmbeddingModel)
	}

	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.OllamaBaseURL)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
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

	// 5. Repositories
	chunkRepo := implementation.NewKnowledgeChunkRepository(db)
	turnRepo := implementation.NewConversationTurnRepository(db)
	schemaMetaRepo := implementation.NewSchemaMetadataRepository(rdb, time.Duration(cfg.Ai.SchemaMetadataTTL)*time.Hour)
	executor := implementation.NewReadOnlyQueryExecutor(db)
	historyCache := memory.NewHistoryCache()

	// 6. Pipeline components
	reranker := retrieval.NewReranker()
	decisionService := cot.NewDecisionService(embeddingGateway, newChunkRetriever(chunkRepo), reranker)
	contextAgent := cot.NewContextAgent(llmProvider)
	validator := cot.NewValidator(llmProvider)
	generator := sqlgen.NewGenerator(llmProvider)

	// 7. Services
	publisherService := service.NewPublisherService(pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.KnowledgeTopic,
		chunkRepo,
		embeddingGateway,
	)
	knowledgeService := service.NewKnowledgeService(publisherService, cfg.Keys.KnowledgeTopic, chunkRepo, schemaMetaRepo)

	var audit service.AuditPublisher
	if natsPub != nil {
		audit = natsPub
	}
	chatService := service.NewChatService(
		contextAgent,
		decisionService,
		generator,
		validator,
		llmProvider,
		turnRepo,
		executor,
		schemaMetaRepo,
		historyCache,
		audit,
	)

	auditService := service.NewAuditService(natsSub, auditLogger)

	return &Container{
		ChatController:      controller.NewChatController(chatService),
		KnowledgeController: controller.NewKnowledgeController(knowledgeService),

		ConsumerService: consumerService,
		AuditService:    auditService,

		Logger: sysLogger,
	}
}
