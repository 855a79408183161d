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
	"github.com/skybook/airline/services/airplane/internal/config"
	"github.com/skybook/airline/services/airplane/internal/service"
)

const serviceName = "airplane-service"

// RoleAirplaneManager may change airplanes alongside ADMIN.
const RoleAirplaneManager = "AIRPLANE_MANAGER"

// Policy returns the authorization rules of the airplane service.
func Policy() *auth.Policy {
	rules := append(auth.OperationalRules(),
		auth.Rule{Method: http.MethodGet, Pattern: "/airplanes/**", Require: auth.PermitAll()},
		auth.Rule{Pattern: "/airplanes/**", Require: auth.RequireAnyRole("ADMIN", RoleAirplaneManager)},
	)
	return auth.NewPolicy(rules...)
}

// NewRouter creates a chi router with all airplane service routes registered.
func NewRouter(
	cfg *config.Config,
	airplaneService *service.AirplaneService,
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

	h := NewAirplaneHandler(airplaneService, logger)

	r.Route("/airplanes", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(time.Minute))
			r.Get("/", h.ListAirplanes)
			r.Get("/{id}", h.GetAirplane)
			r.Get("/airport/{airportId}", h.ListByAirport)
			r.Get("/model/{model}", h.ListByModel)
		})
		r.Post("/", h.CreateAirplane)
		r.Put("/{id}", h.UpdateAirplane)
		r.Delete("/{id}", h.DeleteAirplane)
	})

	return r
}
