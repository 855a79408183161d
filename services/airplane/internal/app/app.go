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
	"github.com/skybook/airline/pkg/tracing"
	"github.com/skybook/airline/services/airplane/internal/config"
	handler "github.com/skybook/airline/services/airplane/internal/handler/http"
	"github.com/skybook/airline/services/airplane/internal/repository/postgres"
	"github.com/skybook/airline/services/airplane/internal/service"
	"github.com/skybook/airline/services/airplane/migrations"
)

// App wires together all dependencies and runs the airplane service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	tracerShutdown func(context.Context) error
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.ConfigFrom("airplane-service", &cfg.Common))
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

	if err := database.RunMigrations(ctx, pool, migrations.FS, "airplane", logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	database.RegisterPoolMetrics(pool, "airplane")
	database.SetSlowQueryLogging(200*time.Millisecond, logger)

	codec, err := auth.NewCodec(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("create token codec: %w", err)
	}
	cookies := auth.Cookies{Secure: cfg.Environment != "development"}
	filter := auth.NewFilter(codec, credential.NewStore(pool), cookies, "airplane-service", logger)

	// Build the dependency graph.
	repo := postgres.NewAirplaneRepository(pool)
	airplaneService := service.NewAirplaneService(repo, logger)

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	router := handler.NewRouter(cfg, airplaneService, filter, healthHandler, logger)

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
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
	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}
	a.pool.Close()

	a.logger.Info("application shutdown complete")
}
