package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skybook/airline/pkg/auth"
	"github.com/skybook/airline/pkg/health"
	"github.com/skybook/airline/pkg/middleware"
	"github.com/skybook/airline/services/notification/internal/config"
	"github.com/skybook/airline/services/notification/internal/service"
)

const serviceName = "notification-service"

// Policy returns the authorization rules of the notification service.
func Policy() *auth.Policy {
	rules := append(auth.OperationalRules(),
		auth.Rule{Method: http.MethodGet, Pattern: "/notification", Require: auth.PermitAll()},
		auth.Rule{Pattern: "/notifications/**", Require: auth.RequireAuthenticated()},
	)
	return auth.NewPolicy(rules...)
}

// NewRouter creates a chi router with all notification service routes registered.
func NewRouter(
	cfg *config.Config,
	notificationService *service.NotificationService,
	filter *auth.Filter,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(middleware.CORSFrom(&cfg.Common)))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(filter.Middleware)
	r.Use(middleware.RequestLogger(logger))
	r.Use(Policy().Middleware(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	if cfg.PprofEnabled {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	h := NewNotificationHandler(notificationService, logger)

	r.Get("/notification", h.Hello)
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.ListNotifications)
		r.Patch("/{id}/read", h.MarkAsRead)
	})

	return r
}
