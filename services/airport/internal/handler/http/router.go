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
	"github.com/skybook/airline/services/airport/internal/config"
	"github.com/skybook/airline/services/airport/internal/service"
)

const serviceName = "airport-service"

// RoleAirportManager may change airports alongside ADMIN.
const RoleAirportManager = "AIRPORT_MANAGER"

// Policy returns the authorization rules of the airport service.
func Policy() *auth.Policy {
	rules := append(auth.OperationalRules(),
		auth.Rule{Method: http.MethodGet, Pattern: "/airports/**", Require: auth.PermitAll()},
		auth.Rule{Pattern: "/airports/**", Require: auth.RequireAnyRole("ADMIN", RoleAirportManager)},
	)
	return auth.NewPolicy(rules...)
}

// NewRouter creates a chi router with all airport service routes registered.
func NewRouter(
	cfg *config.Config,
	airportService *service.AirportService,
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

	h := NewAirportHandler(airportService, logger)

	r.Route("/airports", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(time.Minute))
			r.Get("/", h.ListAirports)
			r.Get("/{id}", h.GetAirport)
			r.Get("/search/{field}/{value}", h.SearchAirports)
		})
		r.Post("/", h.CreateAirport)
		r.Put("/{id}", h.UpdateAirport)
		r.Delete("/{id}", h.DeleteAirport)
	})

	return r
}
