package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/skybook/airline/pkg/auth"
	"github.com/skybook/airline/pkg/credential"
	"github.com/skybook/airline/pkg/database"
	"github.com/skybook/airline/pkg/health"
	pkgkafka "github.com/skybook/airline/pkg/kafka"
	"github.com/skybook/airline/pkg/tracing"
	"github.com/skybook/airline/services/notification/internal/config"
	"github.com/skybook/airline/services/notification/internal/domain"
	"github.com/skybook/airline/services/notification/internal/event"
	handler "github.com/skybook/airline/services/notification/internal/handler/http"
	"github.com/skybook/airline/services/notification/internal/repository/postgres"
	"github.com/skybook/airline/services/notification/internal/sender"
	"github.com/skybook/airline/services/notification/internal/service"
	"github.com/skybook/airline/services/notification/migrations"
)

// App wires together all dependencies and runs the notification service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	dlq            *pkgkafka.DLQProducer
	consumers      []*pkgkafka.Consumer
	service        *service.NotificationService
	tracerShutdown func(context.Context) error
	httpServer     *http.Server
	workers        sync.WaitGroup
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.ConfigFrom("notification-service", &cfg.Common))
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

	if err := database.RunMigrations(ctx, pool, migrations.FS, "notification", logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	database.RegisterPoolMetrics(pool, "notification")
	database.SetSlowQueryLogging(200*time.Millisecond, logger)

	var (
		redisClient *redis.Client
		dedupClient redis.Cmdable
	)
	if cfg.IdempotencyBackend == event.IdempotencyRedis {
		redisClient, err = database.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		dedupClient = redisClient
		logger.Info("connected to Redis", slog.String("addr", cfg.Redis.Addr()))
	}
	closeRedis := func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}

	idempotency, err := event.NewIdempotencyStore(cfg.IdempotencyBackend, dedupClient, cfg.IdempotencyTTL)
	if err != nil {
		closeRedis()
		pool.Close()
		return nil, fmt.Errorf("create idempotency store: %w", err)
	}

	codec, err := auth.NewCodec(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	if err != nil {
		closeRedis()
		pool.Close()
		return nil, fmt.Errorf("create token codec: %w", err)
	}
	cookies := auth.Cookies{Secure: cfg.Environment != "development"}
	filter := auth.NewFilter(codec, credential.NewStore(pool), cookies, "notification-service", logger)

	notificationService := service.NewNotificationService(
		postgres.NewNotificationRepository(pool),
		map[string]sender.Sender{domain.ChannelLog: sender.NewLogSender(logger)},
		logger,
	)

	var dlq *pkgkafka.DLQProducer
	if cfg.DLQEnabled {
		dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
	}
	handle := pkgkafka.IdempotentHandler(idempotency, event.NewConsumerHandler(notificationService, logger).Handle, logger)
	consumers := event.NewConsumers(cfg.KafkaBrokers, handle, dlq, logger)
	logger.Info("kafka consumers initialized",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.Int("topics", len(consumers)),
		slog.Bool("dlq", dlq != nil),
		slog.String("idempotency", cfg.IdempotencyBackend),
	)

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if redisClient != nil {
		healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
	})

	router := handler.NewRouter(cfg, notificationService, filter, healthHandler, logger)

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		dlq:            dlq,
		consumers:      consumers,
		service:        notificationService,
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

// Run starts the HTTP server, the Kafka consumers and the retry loop, then
// blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	workCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	for _, c := range a.consumers {
		a.workers.Add(1)
		go func() {
			defer a.workers.Done()
			if err := c.Start(workCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("kafka consumer error",
					slog.String("topic", c.Topic()),
					slog.String("error", err.Error()),
				)
			}
		}()
	}

	a.workers.Add(1)
	go func() {
		defer a.workers.Done()
		a.service.RunRetryLoop(workCtx, a.cfg.RetryInterval, a.cfg.RetryBatch)
	}()

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
		stopWorkers()
		a.Shutdown()
		return err
	}

	stopWorkers()
	a.Shutdown()
	return nil
}

// Shutdown gracefully stops all components. Workers must already have been
// told to stop.
func (a *App) Shutdown() {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
		}
	}
	a.workers.Wait()

	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("dlq producer close error", slog.String("error", err.Error()))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}
	a.pool.Close()

	a.logger.Info("application shutdown complete")
}
