package bootstrap

import (
	"log"

	"kt-assistant-be/internal/config"
	"kt-assistant-be/internal/controller"
	"kt-assistant-be/internal/pkg/logger"
	"kt-assistant-be/internal/repository/memory"
	"kt-assistant-be/internal/repository/unitofwork"
	"kt-assistant-be/internal/service"
	"kt-assistant-be/pkg/coverage"
	"kt-assistant-be/pkg/embedding"
	"kt-assistant-be/pkg/extraction"
	"kt-assistant-be/pkg/llm/factory"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SessionController controller.ISessionController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	SweeperService  service.ISweeperService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.EmbeddingModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GoogleGeminiKey, cfg.Ai.GeminiEmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Domain wiring
	catalog := coverage.DefaultCatalog()
	locks := memory.NewSessionLockRepository()
	extractor := extraction.NewExtractor(llmProvider, catalog)
	interrogator := extraction.NewInterrogator(llmProvider, cfg.Ai.SecondaryLLMModel)

	publisherService := service.NewPublisherService(pubSub)
	indexerService := service.NewIndexerService(
		uowFactory,
		embeddingProvider,
		llmProvider,
		catalog,
		cfg.KT.ChunkSize,
		cfg.KT.ChunkOverlap,
		sysLogger,
	)
	consumerService := service.NewConsumerService(pubSub, indexerService, sysLogger)
	sweeperService := service.NewSweeperService(uowFactory, locks, cfg.KT.SessionTTL, sysLogger)

	sessionService := service.NewSessionService(
		uowFactory,
		locks,
		extractor,
		interrogator,
		publisherService,
		catalog,
		cfg.KT.CoverageThreshold,
		sysLogger,
	)
	searchService := service.NewSearchService(uowFactory, embeddingProvider, cfg.KT.SearchContextSize, sysLogger)
	reportService := service.NewReportService(uowFactory, llmProvider, catalog, sysLogger)

	// 5. Controllers
	sessionController := controller.NewSessionController(sessionService, searchService, reportService)

	return &Container{
		SessionController: sessionController,
		ConsumerService:   consumerService,
		SweeperService:    sweeperService,
		Logger:            sysLogger,
	}
}
