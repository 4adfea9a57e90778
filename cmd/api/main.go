package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/estimaihq/takeoff-backend/internal/adapters/cache"
	"github.com/estimaihq/takeoff-backend/internal/adapters/database"
	"github.com/estimaihq/takeoff-backend/internal/adapters/providers/websearch"
	"github.com/estimaihq/takeoff-backend/internal/adapters/search"
	"github.com/estimaihq/takeoff-backend/internal/api/handlers"
	"github.com/estimaihq/takeoff-backend/internal/api/routes"
	"github.com/estimaihq/takeoff-backend/internal/application/services"
	"github.com/estimaihq/takeoff-backend/internal/domain/providers"
	"github.com/estimaihq/takeoff-backend/internal/domain/repositories"
	"github.com/estimaihq/takeoff-backend/internal/infrastructure/clients/openai"
	"github.com/estimaihq/takeoff-backend/internal/infrastructure/clients/postgres"
	"github.com/estimaihq/takeoff-backend/internal/infrastructure/clients/redis"
	"github.com/estimaihq/takeoff-backend/internal/infrastructure/clients/typesense"
	"github.com/estimaihq/takeoff-backend/internal/infrastructure/observability"
	"github.com/estimaihq/takeoff-backend/internal/knowledge"
	"github.com/estimaihq/takeoff-backend/internal/retrieval"
	"github.com/estimaihq/takeoff-backend/pkg/config"
	"github.com/estimaihq/takeoff-backend/pkg/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	observability.InitLogger(cfg.OTEL.ServiceName, env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Load the standards corpus: PostgreSQL when reachable and seeded, the
	// bundled JSON files otherwise. An unloadable corpus is the one condition
	// that stops startup; every other dependency degrades.
	var store *knowledge.Store
	var standardRepo repositories.StandardRepository
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to PostgreSQL; loading corpus from JSON files")
	} else {
		defer pgClient.Close()
		standardRepo = database.NewStandardAdapter(pgClient)
		records, listErr := standardRepo.List(ctx, repositories.StandardFilter{})
		if listErr != nil || len(records) == 0 {
			log.Warn().Err(listErr).Msg("PostgreSQL standards table is empty or unreadable; loading corpus from JSON files")
		} else {
			store = knowledge.NewStore(records, *observability.GetLogger())
			log.Info().Int("records", len(records)).Msg("Standards corpus loaded from PostgreSQL")
		}
	}
	if store == nil {
		store, err = knowledge.LoadFromDir(cfg.Knowledge.StandardsDir, *observability.GetLogger())
		if err != nil {
			log.Fatal().Err(err).Str("dir", cfg.Knowledge.StandardsDir).Msg("Failed to load standards corpus")
		}
	}

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis client; continuing without cache")
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Info().Msg("Redis client initialized successfully")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Standards search: Typesense when reachable, the in-memory knowledge
	// store lookup otherwise
	var searcher handlers.StandardSearcher = search.NewStoreAdapter(store)
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Typesense client; standards search degrades to the in-memory corpus")
	} else {
		adapter := search.NewTypesenseAdapter(typesenseClient)
		if normalizer, err := utils.NewMaterialNormalizer(cfg.Knowledge.AbbrevConfig); err != nil {
			log.Warn().Err(err).Str("path", cfg.Knowledge.AbbrevConfig).Msg("Failed to load abbreviation config")
		} else {
			adapter = search.NewTypesenseAdapterWithNormalizer(typesenseClient, normalizer)
		}
		if err := typesenseClient.InitSchema(context.Background()); err != nil {
			log.Warn().Err(err).Msg("Failed to init Typesense schema")
		}
		searcher = adapter
	}
	standardHandler := handlers.NewStandardHandler(searcher, standardRepo)

	// Initialize OpenAI client for embeddings and query variants
	var embedder providers.Embedder
	var generator providers.TextGenerator
	if cfg.OpenAI.APIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY is not set; retrieval runs keyword-only")
	} else {
		openaiClient, err := openai.NewClient(&cfg.OpenAI)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize OpenAI client; retrieval runs keyword-only")
		} else {
			embedder = openaiClient
			generator = openaiClient
		}
	}

	// Build the hybrid retriever over the corpus
	hybrid := retrieval.NewHybridRetriever(store.All(), embedder, metrics)
	if embedder != nil {
		buildCtx, buildCancel := context.WithTimeout(ctx, 2*time.Minute)
		if err := hybrid.BuildSemantic(buildCtx, store.All()); err != nil {
			log.Warn().Err(err).Msg("Failed to build semantic index; retrieval runs keyword-only until rebuild")
		} else {
			log.Info().Int("records", store.Count()).Msg("Semantic index built")
		}
		buildCancel()
	}
	multiQuery := retrieval.NewMultiQueryRetriever(hybrid, generator, metrics)

	// External fallback search provider
	var searchProvider providers.ExternalSearch
	if cfg.Tavily.APIKey == "" {
		log.Warn().Msg("TAVILY_API_KEY is not set; using mock search provider")
		searchProvider = websearch.NewMockSearchProvider()
	} else {
		searchProvider = websearch.NewTavilySearchProvider(cfg.Tavily.APIKey, cfg.Tavily.BaseURL)
	}

	// Initialize services
	detector := services.NewUnknownDetectorService()
	resolver := services.NewFallbackResolverService(searchProvider, cacheProvider, metrics)
	reconciliation := services.NewReconciliationService(hybrid, detector, resolver)

	// Initialize handlers
	takeoffHandler := handlers.NewTakeoffHandler(reconciliation)
	retrievalHandler := handlers.NewRetrievalHandler(hybrid, multiQuery)

	// Set up router
	router := routes.NewRouter(
		takeoffHandler,
		retrievalHandler,
		standardHandler,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
}
