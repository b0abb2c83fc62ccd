package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/utafrali/readrate/internal/config"
	"github.com/utafrali/readrate/internal/event"
	handler "github.com/utafrali/readrate/internal/handler/http"
	"github.com/utafrali/readrate/internal/rating"
	"github.com/utafrali/readrate/internal/repository"
	"github.com/utafrali/readrate/internal/repository/memory"
	"github.com/utafrali/readrate/internal/repository/postgres"
	"github.com/utafrali/readrate/internal/repository/redis"
	"github.com/utafrali/readrate/internal/service"
	"github.com/utafrali/readrate/migrations"
	"github.com/utafrali/readrate/pkg/database"
	"github.com/utafrali/readrate/pkg/health"
	"github.com/utafrali/readrate/pkg/httpclient"
	pkgkafka "github.com/utafrali/readrate/pkg/kafka"
	"github.com/utafrali/readrate/pkg/tracing"
)

const serviceName = "readrate"

// App wires together all dependencies and runs the readrate server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	store          repository.Store
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	health         *health.Handler
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
// On failure every resource opened so far is released.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger, health: health.NewHandler()}
	defer func() {
		if err != nil {
			a.closeResources()
		}
	}()

	// Initialize OpenTelemetry tracing.
	a.tracerShutdown, err = tracing.Init(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	sessions, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	// Review and account events.
	var events service.EventPublisher = service.NoopPublisher{}
	if cfg.KafkaEnabled && cfg.StoreDriver == config.DriverPostgres {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		events = event.NewProducer(a.producer, nil, logger)
		a.health.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Build the dependency graph.
	svcs := handler.Services{
		Books:           service.NewBookService(a.store, a.ratingLookup(), logger),
		Reviews:         service.NewReviewService(a.store, events, nil, logger),
		Recommendations: service.NewRecommendationService(a.store.Recommendations(), nil, cfg.RecommendLimit, logger),
		Accounts: service.NewAccountService(a.store, sessions, events, service.AccountConfig{
			SessionTTL: cfg.SessionTTL,
			BcryptCost: cfg.BcryptCost,
		}, nil, logger),
	}

	router := handler.NewRouter(svcs, a.health, handler.RouterConfig{
		ServiceName:     serviceName,
		CORSOrigins:     cfg.CORSAllowedOrigins,
		PprofCIDRs:      cfg.PprofAllowedCIDRs,
		SessionTTL:      cfg.SessionTTL,
		CookieSecure:    cfg.CookieSecure,
		LoginRateLimit:  cfg.LoginRateLimit,
		LoginRateWindow: cfg.LoginRateWindow,
	}, logger)

	a.httpServer = &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(cfg.HTTPPort)),
		Handler:           router,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// openStore opens the catalogue store and the session store for the
// configured driver and registers their health checks.
func (a *App) openStore(ctx context.Context) (repository.SessionStore, error) {
	if a.cfg.StoreDriver == config.DriverMemory {
		a.logger.Warn("using in-memory catalogue store; data is lost on exit")
		a.store = memory.NewStore()
		a.health.RegisterCritical("store", a.store.Ping)
		return memory.NewSessionStore(nil), nil
	}

	pool, err := database.NewPostgresPool(ctx, a.cfg.Postgres(), a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", a.cfg.PostgresHost),
		slog.Int("port", a.cfg.PostgresPort),
		slog.String("database", a.cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
		a.logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	a.logger.Info("database migrations completed")

	var tracer *database.QueryTracer
	if a.cfg.SlowQueryThresholdMs > 0 {
		tracer = database.NewQueryTracer(a.cfg.SlowQueryThreshold(), a.logger)
	}
	a.store = postgres.NewStore(pool, tracer)
	a.health.RegisterCritical("postgres", a.store.Ping)

	rdb, err := database.NewRedisClient(ctx, a.cfg.Redis())
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rdb
	a.logger.Info("connected to Redis", slog.String("addr", a.cfg.RedisAddr))
	a.health.RegisterCritical("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})

	return redis.NewSessionStore(rdb), nil
}

// ratingLookup builds the external rating client. Without a base URL the
// lookup is disabled; without Redis it runs uncached.
func (a *App) ratingLookup() service.RatingLookup {
	if a.cfg.RatingBaseURL == "" {
		a.logger.Info("external rating lookup disabled")
		return rating.Disabled{}
	}

	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = a.cfg.RatingTimeout
	breaker := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpCfg),
		httpclient.DefaultCircuitBreakerConfig("rating"),
		a.logger,
	)

	var lookup rating.Lookup = rating.NewClient(breaker, a.cfg.RatingBaseURL, a.cfg.RatingAPIKey, a.logger)
	if a.redis != nil {
		lookup = rating.NewCached(lookup, rating.NewRedisCache(a.redis), a.cfg.RatingCacheTTL, a.logger)
	}
	return lookup
}

// Handler returns the HTTP handler with every route registered.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("store_driver", a.cfg.StoreDriver),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.closeResources()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: HTTP server, tracer,
// Kafka producer, Redis, then the PostgreSQL pool.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// Drain in-flight HTTP requests.
	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.HTTPShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	errs = append(errs, a.closeResources()...)

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeResources releases everything opened after the tracer, after
// flushing the tracer itself.
func (a *App) closeResources() []error {
	var errs []error

	// Flush spans of drained requests before the backends go away.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.tracerShutdown = nil
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.producer = nil
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.redis = nil
	}

	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	return errs
}
