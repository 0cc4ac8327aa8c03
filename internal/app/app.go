package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/parishyparijal/MenonMobility-sub001/internal/config"
	"github.com/parishyparijal/MenonMobility-sub001/internal/engine"
	esengine "github.com/parishyparijal/MenonMobility-sub001/internal/engine/elasticsearch"
	"github.com/parishyparijal/MenonMobility-sub001/internal/engine/memory"
	"github.com/parishyparijal/MenonMobility-sub001/internal/event"
	handler "github.com/parishyparijal/MenonMobility-sub001/internal/handler/http"
	"github.com/parishyparijal/MenonMobility-sub001/internal/repository/postgres"
	redisrepo "github.com/parishyparijal/MenonMobility-sub001/internal/repository/redis"
	"github.com/parishyparijal/MenonMobility-sub001/internal/service"
	"github.com/parishyparijal/MenonMobility-sub001/pkg/database"
	"github.com/parishyparijal/MenonMobility-sub001/pkg/health"
	pkgkafka "github.com/parishyparijal/MenonMobility-sub001/pkg/kafka"
	"github.com/parishyparijal/MenonMobility-sub001/pkg/middleware"
	"github.com/parishyparijal/MenonMobility-sub001/pkg/tracing"
)

const serviceName = "search"

// App wires together all dependencies and runs the search service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	consumer       *pkgkafka.Consumer
	dlq            *pkgkafka.DLQProducer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing(serviceName))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool. The listing store is the
	// fallback search path, so the service does not start without it.
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
		logger.Warn("register pool metrics", slog.String("error", err.Error()))
	}

	if cfg.DBRunMigrations {
		if err := database.RunMigrations(ctx, pool, postgres.Migrations(), logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")
	}

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(cfg.SlowQueryThreshold(), logger)
	}

	// Initialize search engine based on configuration.
	eng, err := newEngine(ctx, cfg, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	// Redis backs the suggestion cache and event deduplication. It is
	// optional; without it both fall back to no cache and in-process state.
	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient, err = database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			logger.Warn("redis unavailable, continuing without suggestion cache",
				slog.String("addr", cfg.Redis().Addr()),
				slog.String("error", err.Error()),
			)
			redisClient = nil
		} else {
			logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))
		}
	}

	// Build the service layer.
	store := postgres.NewListingStore(pool)
	taxonomy := postgres.NewTaxonomyStore(pool)

	prober := service.NewProber(service.NewAvailabilityState(), eng, service.ProberConfig{
		ReprobeInterval: cfg.ReprobeInterval,
		PingTimeout:     cfg.PingTimeout,
	}, logger)

	suggestOpts := []service.SuggestOption{service.WithScanLimit(cfg.SuggestScanLimit)}
	if redisClient != nil {
		suggestOpts = append(suggestOpts, service.WithSuggestionCache(redisrepo.NewSuggestionCache(redisClient, cfg.SuggestCacheTTL)))
	}

	indexService := service.NewIndexService(eng, store, cfg.ReindexBatchSize, logger)
	svcs := handler.Services{
		Search:   service.NewSearchService(eng, prober, service.NewAggregator(store, taxonomy, logger), logger),
		Suggest:  service.NewSuggestService(eng, prober, store, logger, suggestOpts...),
		Listings: service.NewListingService(store, logger),
		Index:    indexService,
	}

	// Kafka consumer for listing events.
	var (
		consumer *pkgkafka.Consumer
		dlq      *pkgkafka.DLQProducer
	)
	if cfg.KafkaEnabled {
		var idempotency pkgkafka.IdempotencyStore = pkgkafka.NewMemoryIdempotencyStore(cfg.KafkaIdempotencyTTL)
		if redisClient != nil {
			idempotency = redisrepo.NewIdempotencyStore(redisClient, cfg.KafkaIdempotencyTTL)
		}

		eventConsumer := event.NewConsumer(indexService, logger)
		dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
		consumer = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.KafkaGroupID,
			Topics:   event.Topics(),
			MinBytes: 1,
			MaxBytes: 10e6, // 10 MB
		}, pkgkafka.IdempotentHandler(idempotency, eventConsumer.Handle, logger), logger, pkgkafka.WithDLQ(dlq))
		logger.Info("kafka consumer initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.Any("topics", event.Topics()),
		)
	}

	// Health checks. Search keeps serving from PostgreSQL when the engine is
	// down, so only PostgreSQL is critical.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", pool.Ping)
	healthHandler.RegisterNonCritical("search_engine", eng.Ping)
	if redisClient != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	// HTTP router.
	router := handler.NewRouter(svcs, healthHandler, handler.RouterConfig{
		RequestTimeout:    cfg.HTTPRequestTimeout,
		SuggestCacheTTL:   cfg.SuggestCacheTTL,
		PprofAllowedCIDRs: cfg.PprofAllowedCIDRs,
		CORS:              middleware.DefaultCORSConfig(),
	}, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.HTTPRequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		consumer:       consumer,
		dlq:            dlq,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// newEngine builds the primary search engine. An unreachable cluster is not
// fatal: the index is created on a best-effort basis and searches fall back
// to PostgreSQL until the prober sees the cluster again.
func newEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (engine.Engine, error) {
	switch cfg.SearchEngine {
	case config.EngineElasticsearch:
		esEng, err := esengine.New(esengine.Config{
			URL:       cfg.ElasticsearchURL,
			IndexName: cfg.ElasticsearchIndex,
			Breaker:   cfg.Breaker(),
			Pool:      cfg.Pool(),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("init elasticsearch engine: %w", err)
		}
		if err := esEng.EnsureIndex(ctx); err != nil {
			logger.Warn("elasticsearch index not ensured, search will fall back until it is reachable",
				slog.String("index", cfg.ElasticsearchIndex),
				slog.String("error", err.Error()),
			)
		}
		logger.Info("elasticsearch search engine initialized",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", cfg.ElasticsearchIndex),
		)
		return esEng, nil
	default:
		logger.Info("in-memory search engine initialized")
		return memory.New(), nil
	}
}

// Run starts the HTTP server and Kafka consumer, blocking until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	// Start HTTP server.
	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return errors.Join(err, a.Shutdown())
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("kafka dlq producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.pool.Close()

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
