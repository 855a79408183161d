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
	"github.com/skybook/airline/services/flight/internal/config"
	"github.com/skybook/airline/services/flight/internal/service"
)

const serviceName = "flight-service"

// RoleFlightManager may change flights alongside ADMIN.
const RoleFlightManager = "FLIGHT_MANAGER"

// Policy returns the authorization rules of the flight service.
func Policy() *auth.Policy {
	rules := append(auth.OperationalRules(),
		auth.Rule{Method: http.MethodGet, Pattern: "/flights/**", Require: auth.PermitAll()},
		auth.Rule{Method: http.MethodPost, Pattern: "/flights/search", Require: auth.PermitAll()},
		auth.Rule{Pattern: "/flights/**", Require: auth.RequireAnyRole("ADMIN", RoleFlightManager)},
	)
	return auth.NewPolicy(rules...)
}

// NewRouter creates a chi router with all flight service routes registered.
func NewRouter(
	cfg *config.Config,
	flightService *service.FlightService,
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

	h := NewFlightHandler(flightService, logger)

	r.Route("/flights", func(r chi.Router) {
		r.Get("/", h.ListFlights)
		r.Get("/{id}", h.GetFlight)
		r.Post("/search", h.SearchFlights)
		r.Post("/", h.CreateFlight)
		r.Put("/{id}", h.UpdateFlight)
		r.Delete("/{id}", h.DeleteFlight)
	})

	return r
}
