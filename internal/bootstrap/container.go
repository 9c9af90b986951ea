package bootstrap

import (
	"context"
	"fmt"
	"log"

	"oss-clearance-be/internal/config"
	"oss-clearance-be/internal/controller"
	"oss-clearance-be/internal/handler"
	"oss-clearance-be/internal/pkg/logger"
	"oss-clearance-be/internal/pkg/metrics"
	"oss-clearance-be/internal/repository/implementation"
	"oss-clearance-be/internal/repository/memory"
	"oss-clearance-be/internal/repository/unitofwork"
	"oss-clearance-be/internal/service"
	"oss-clearance-be/internal/websocket"
	"oss-clearance-be/pkg/analysis"
	"oss-clearance-be/pkg/assistant"
	"oss-clearance-be/pkg/embedding"
	wfhandler "oss-clearance-be/pkg/handler"
	"oss-clearance-be/pkg/knowledge"
	"oss-clearance-be/pkg/llm"
	"oss-clearance-be/pkg/llm/factory"
	"oss-clearance-be/pkg/prompt"
	"oss-clearance-be/pkg/retrieval"

	pktNats "oss-clearance-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ClearanceController controller.IClearanceController
	FeedHandler         *handler.FeedHandler

	// Background Services (started by Start)
	ConsumerService service.IConsumerService
	AuditService    service.IAuditService

	// KnowledgeService is nil without a database.
	KnowledgeService service.IKnowledgeService

	WebSocketHub *websocket.Hub
	Metrics      *metrics.Metrics
	Logger       logger.ILogger

	closers []func()
}

// NewContainer wires the service. db may be nil, the knowledge base is then
// read from the configured file and retrieval finds nothing.
func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Logging & metrics
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	auditLogger := logger.NewIsolatedLogger(cfg.App.AuditLogPath)
	feedLogger := logger.NewIsolatedLogger(cfg.App.FeedLogPath)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	c := &Container{Metrics: m, Logger: sysLogger}
	c.closers = append(c.closers, func() {
		_ = sysLogger.Sync()
		_ = auditLogger.Sync()
		_ = feedLogger.Sync()
	})

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	var stream service.StreamPublisher
	if cfg.Events.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.Events.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			stream = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
		natsSub, err := pktNats.NewSubscriber(cfg.Events.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		} else {
			c.AuditService = service.NewAuditService(natsSub, auditLogger)
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	// Redis
	var rdb *redis.Client
	if cfg.Events.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.Events.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.Events.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	// 3. Model backends
	var llmProvider llm.LLMProvider
	if cfg.Ai.LLMProvider != "" && cfg.Ai.LLMProvider != "none" {
		p, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.LLMBaseURL, cfg.Ai.LLMAPIKey)
		if err != nil {
			return nil, fmt.Errorf("init llm provider: %w", err)
		}
		llmProvider = p
		log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
	} else {
		log.Printf("[WARN] No LLM provider configured, licenses are rated by keyword rules and chat is unavailable")
	}

	catalog, err := prompt.Load(cfg.Ai.PromptFile)
	if err != nil {
		return nil, err
	}

	var conversations service.ConversationStarter
	if llmProvider != nil {
		conversations = assistant.NewClient(llmProvider, catalog,
			assistant.WithMaxAttempts(cfg.Ai.MaxAttempts),
			assistant.WithRetryHook(func(tag string, _ int, _ error) { m.ClassifierRetry(tag) }),
		)
	}

	var embedder embedding.Provider
	if cfg.Ai.EmbeddingProvider != "" {
		embedder, err = embedding.NewProvider(cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel, cfg.Ai.EmbeddingBaseURL, cfg.Ai.LLMAPIKey)
		if err != nil {
			log.Printf("[WARN] Embeddings disabled: %v", err)
			embedder = nil
		}
	}

	// 4. Knowledge base & retrieval
	var kb knowledge.Base
	var retriever retrieval.Retriever = retrieval.Nop{}
	if db != nil {
		uowFactory := unitofwork.NewRepositoryFactory(db)
		kb = implementation.NewKnowledgeRepository(db)
		if embedder != nil {
			retriever = retrieval.NewVector(embedder, implementation.NewReferenceEmbeddingRepository(db))
		}
		c.KnowledgeService = service.NewKnowledgeService(uowFactory, embedder, sysLogger)
	} else {
		fileBase, err := knowledge.LoadFile(cfg.Knowledge.File)
		if err != nil {
			log.Printf("[WARN] Knowledge file not loaded: %v", err)
			fileBase = knowledge.NewFileBase(knowledge.Dataset{})
		}
		kb = fileBase
	}

	deps := wfhandler.NewDeps(kb, cfg.App.DownloadDir,
		wfhandler.WithCommonRulesFile(cfg.Knowledge.CommonRulesFile),
		wfhandler.WithAssetPortalURL(cfg.Knowledge.AssetPortalURL),
	)
	registry := wfhandler.NewRegistry(deps)
	pipeline := analysis.NewPipeline(llmProvider, catalog, retriever, sysLogger,
		analysis.WithConcurrency(cfg.Ai.Concurrency))

	// 5. Sessions & feed
	sessionRepo := memory.NewSessionRepository(cfg.Session.TTL, cfg.Session.CleanupInterval)
	wsHub := websocket.NewHub(rdb, feedLogger)

	publisherService := service.NewPublisherService(cfg.Events.Topic, pubSub, stream, sysLogger)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Events.Topic, wsHub, sessionRepo, m, feedLogger)

	dialogueService := service.NewDialogueService(deps, publisherService, m, sysLogger)
	clearanceService := service.NewClearanceService(
		sessionRepo,
		pipeline,
		conversations,
		deps,
		registry,
		dialogueService,
		publisherService,
		m,
		sysLogger,
	)

	// 6. Controllers
	c.WebSocketHub = wsHub
	c.ClearanceController = controller.NewClearanceController(clearanceService)
	c.FeedHandler = handler.NewFeedHandler(wsHub, sessionRepo, cfg.App.FeedLogPath, feedLogger)
	return c, nil
}

// Start runs the background workers until ctx is done.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)

	if err := c.ConsumerService.Consume(ctx); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	if c.KnowledgeService != nil {
		stats, err := c.KnowledgeService.Stats(ctx)
		if err != nil {
			return fmt.Errorf("read knowledge base: %w", err)
		}
		if stats.Components == 0 {
			c.Logger.Warn("BOOTSTRAP", "Knowledge base is empty, run cmd/seed", nil)
		} else {
			c.Logger.Info("BOOTSTRAP", "Knowledge base loaded", map[string]interface{}{
				"components": stats.Components,
				"notes":      stats.Notes,
				"references": stats.References,
			})
		}
	}
	if c.AuditService != nil {
		if err := c.AuditService.Start(ctx); err != nil {
			c.Logger.Warn("BOOTSTRAP", "Audit stream unavailable", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
