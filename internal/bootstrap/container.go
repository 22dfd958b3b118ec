package bootstrap

import (
	"context"
	"time"

	"rag-chat-be/internal/config"
	"rag-chat-be/internal/controller"
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/internal/pkg/serverutils"
	"rag-chat-be/internal/repository/implementation"
	"rag-chat-be/internal/repository/memory"
	"rag-chat-be/internal/repository/redisstore"
	"rag-chat-be/internal/repository/unitofwork"
	"rag-chat-be/internal/service"
	"rag-chat-be/pkg/apperror"
	"rag-chat-be/pkg/database"
	"rag-chat-be/pkg/embedding"
	"rag-chat-be/pkg/llm/factory"
	"rag-chat-be/pkg/rag/history"
	"rag-chat-be/pkg/rag/override"
	"rag-chat-be/pkg/rag/pipeline"
	"rag-chat-be/pkg/rag/provider"
	"rag-chat-be/pkg/rag/search"

	pktNats "rag-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	backendRedis  = "redis"
	backendMemory = "memory"
)

type Container struct {
	// Controllers
	ChatController     controller.IChatController
	SessionController  controller.ISessionController
	DocumentController controller.IDocumentController
	HealthController   controller.IHealthController
	ActivityController controller.IActivityController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger

	closers []func()
}

// Close releases connections opened by NewContainer.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// NewContainer wires every component. Configuration errors (unknown
// backends, bad pipeline definitions) are returned so startup fails fast.
func NewContainer(db *gorm.DB, cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	c := &Container{Logger: sysLogger}

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)

	// 2. Shared state backends
	var rdb *redis.Client
	if cfg.Ai.OverrideBackend == backendRedis || cfg.Pipeline.HistoryBackend == backendRedis {
		rdb = redisstore.NewClient(cfg.Redis.URL)
		if err := redisstore.Ping(context.Background(), rdb); err != nil {
			sysLogger.Warn("bootstrap", "Redis is not reachable yet", map[string]interface{}{"error": err})
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	var overrideCache override.Cache
	switch cfg.Ai.OverrideBackend {
	case backendRedis:
		overrideCache = redisstore.NewTTLCache(rdb)
	case backendMemory:
		overrideCache = memory.NewTTLCache(cfg.Ai.OverrideTTL, time.Minute)
	default:
		return nil, apperror.NewConfigError("OVERRIDE_BACKEND", "unknown backend "+cfg.Ai.OverrideBackend)
	}
	overrides := override.NewStore(overrideCache, cfg.Ai.OverrideTTL)

	// Session activity follows the history backend; ending a session
	// clears histories held there.
	var (
		historyStore history.Store
		tracker      service.SessionTracker
	)
	switch cfg.Pipeline.HistoryBackend {
	case backendRedis:
		historyStore = redisstore.NewHistoryStore(rdb, cfg.Redis.MessageTTL, cfg.Pipeline.HistoryLimit, sysLogger)
		tracker = redisstore.NewSessionTracker(rdb, cfg.App.SessionTimeout)
	case backendMemory:
		historyStore = memory.NewHistoryStore(cfg.Redis.MessageTTL, cfg.Pipeline.HistoryLimit)
		tracker = memory.NewSessionTracker(cfg.App.SessionTimeout)
	default:
		return nil, apperror.NewConfigError("HISTORY_BACKEND", "unknown backend "+cfg.Pipeline.HistoryBackend)
	}

	// 3. Models
	llmFactory := factory.New(cfg.Ai)
	resolver := provider.NewResolver(
		provider.Selection{
			ReasoningProvider:  cfg.Ai.ReasoningProvider,
			GenerationProvider: cfg.Ai.GenerationProvider,
		},
		overrides,
		llmFactory.Build,
		provider.WithLogger(sysLogger),
	)

	embeddingProvider, err := embedding.New(cfg.Ai)
	if err != nil {
		return nil, err
	}
	sysLogger.Info("bootstrap", "Models configured", map[string]interface{}{
		"embedding":  cfg.Ai.EmbeddingProvider,
		"reasoning":  cfg.Ai.ReasoningProvider,
		"generation": cfg.Ai.GenerationProvider,
	})

	// 4. Pipeline
	retriever := search.NewRetriever(embeddingProvider, implementation.NewDocumentEmbeddingRepository(db), sysLogger)

	definition, err := pipeline.LoadDefinition(cfg.Pipeline.DefinitionPath)
	if err != nil {
		return nil, err
	}
	definition = definition.WithDefaults(cfg.Pipeline.RetrievalTopK, cfg.Pipeline.HistoryLimit)

	runner, err := pipeline.NewRunner(pipeline.Dependencies{
		Retriever: retriever,
		Models:    resolver,
		Logger:    sysLogger,
	}, definition.RunnerSteps())
	if err != nil {
		return nil, err
	}

	// 5. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		logger.NewWatermillAdapter(sysLogger, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	publisherService := service.NewPublisherService(cfg.App.IngestTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(
		pubSub,
		cfg.App.IngestTopic,
		uowFactory,
		embeddingProvider,
		sysLogger,
	)

	// NATS is optional; chat keeps working without it.
	var chatEvents service.EventPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		sysLogger.Warn("bootstrap", "NATS unavailable, chat events disabled", map[string]interface{}{"error": err})
	} else {
		chatEvents = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}

	// 6. Services
	chatService := service.NewChatService(runner, historyStore, uowFactory, chatEvents, sysLogger)
	providerService := service.NewProviderService(overrides, resolver, sysLogger)
	activityService := service.NewActivityService(tracker, historyStore, sysLogger)
	documentService := service.NewDocumentService(uowFactory)

	// 7. Controllers
	checks := map[string]controller.Pinger{
		"database": func(ctx context.Context) error { return database.Ping(db) },
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }
	}

	c.ChatController = controller.NewChatController(chatService, serverutils.UserRateLimiter(cfg.App.ChatRateLimit, time.Minute))
	c.SessionController = controller.NewSessionController(chatService, providerService)
	c.DocumentController = controller.NewDocumentController(publisherService, documentService)
	c.HealthController = controller.NewHealthController(checks)
	c.ActivityController = controller.NewActivityController(activityService)

	return c, nil
}
