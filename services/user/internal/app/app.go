package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skybook/airline/pkg/auth"
	"github.com/skybook/airline/pkg/credential"
	"github.com/skybook/airline/pkg/database"
	"github.com/skybook/airline/pkg/health"
	pkgkafka "github.com/skybook/airline/pkg/kafka"
	"github.com/skybook/airline/pkg/middleware"
	"github.com/skybook/airline/pkg/tracing"
	"github.com/skybook/airline/services/user/internal/config"
	"github.com/skybook/airline/services/user/internal/event"
	handler "github.com/skybook/airline/services/user/internal/handler/http"
	"github.com/skybook/airline/services/user/internal/oauth"
	"github.com/skybook/airline/services/user/internal/service"
	"github.com/skybook/airline/services/user/migrations"
)

// App wires together all dependencies and runs the user service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	limiter        *middleware.RateLimiter
	tracerShutdown func(context.Context) error
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.ConfigFrom("user-service", &cfg.Common))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	pgCfg := database.PostgresConfigFrom(&cfg.Common)
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	if err := database.RunMigrations(ctx, pool, migrations.FS, "user", logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	database.RegisterPoolMetrics(pool, "user")
	database.SetSlowQueryLogging(200*time.Millisecond, logger)

	kafkaProducer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	codec, err := auth.NewCodec(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("create token codec: %w", err)
	}
	credentials := credential.NewStore(pool)
	cookies := auth.Cookies{Secure: cfg.Environment != "development"}
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	filter := auth.NewFilter(codec, credentials, cookies, "user-service", logger)
	sessions := auth.NewSessions(codec, credentials, hasher, cookies, logger)

	userService := service.NewUserService(
		credentials,
		sessions,
		hasher,
		event.NewProducer(kafkaProducer, logger),
		logger,
	)

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RPS:   cfg.AuthRateRPS,
		Burst: cfg.AuthRateBurst,
	}, logger)

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("kafka", kafkaProducer.Ping)

	var github handler.GitHubAuth
	if cfg.GitHubEnabled() {
		github = oauth.NewGitHub(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubRedirectURL)
		logger.Info("github sign-in enabled", slog.String("redirect_url", cfg.GitHubRedirectURL))
	}

	router := handler.NewRouter(cfg, userService, github, filter, limiter, healthHandler, logger)

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		producer:       kafkaProducer,
		limiter:        limiter,
		tracerShutdown: tracerShutdown,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.Shutdown()
		return err
	}

	a.Shutdown()
	return nil
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}
	a.limiter.Close()
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}
	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}
	a.pool.Close()

	a.logger.Info("application shutdown complete")
}
