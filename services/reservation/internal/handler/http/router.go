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
	"github.com/skybook/airline/services/reservation/internal/config"
	"github.com/skybook/airline/services/reservation/internal/service"
)

const serviceName = "reservation-service"

// Policy returns the authorization rules of the reservation service. Every
// reservation route needs a signed-in user.
func Policy() *auth.Policy {
	rules := append(auth.OperationalRules(),
		auth.Rule{Pattern: "/reservations/**", Require: auth.RequireAuthenticated()},
	)
	return auth.NewPolicy(rules...)
}

// NewRouter creates a chi router with all reservation service routes registered.
func NewRouter(
	cfg *config.Config,
	reservationService *service.ReservationService,
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

	h := NewReservationHandler(reservationService, logger)

	r.Route("/reservations", func(r chi.Router) {
		r.Get("/", h.ListReservations)
		r.Post("/{flightId}", h.CreateReservation)
		r.Delete("/{id}", h.CancelReservation)
	})

	return r
}
