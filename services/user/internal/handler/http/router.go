package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skybook/airline/pkg/auth"
	"github.com/skybook/airline/pkg/credential"
	"github.com/skybook/airline/pkg/health"
	"github.com/skybook/airline/pkg/middleware"
	"github.com/skybook/airline/services/user/internal/config"
	"github.com/skybook/airline/services/user/internal/service"
)

const serviceName = "user-service"

// Policy returns the authorization rules of the user service. Registration,
// login and the GitHub sign-in flow are public, listing users and the admin
// routes need ADMIN, and everything else needs a signed-in user.
func Policy() *auth.Policy {
	rules := append(auth.OperationalRules(),
		auth.Rule{Method: http.MethodPost, Pattern: "/users/register", Require: auth.PermitAll()},
		auth.Rule{Method: http.MethodPost, Pattern: "/users/login", Require: auth.PermitAll()},
		auth.Rule{Method: http.MethodGet, Pattern: "/oauth2/**", Require: auth.PermitAll()},
		auth.Rule{Method: http.MethodGet, Pattern: "/login/**", Require: auth.PermitAll()},
		auth.Rule{Method: http.MethodGet, Pattern: "/users", Require: auth.RequireRole(credential.RoleAdmin)},
		auth.Rule{Pattern: "/users/admin/**", Require: auth.RequireRole(credential.RoleAdmin)},
		auth.Rule{Pattern: "/users/**", Require: auth.RequireAuthenticated()},
	)
	return auth.NewPolicy(rules...)
}

// NewRouter creates a chi router with all user service routes registered.
// limiter guards login and registration. The GitHub routes are mounted only
// when github is non-nil.
func NewRouter(
	cfg *config.Config,
	userService *service.UserService,
	github GitHubAuth,
	filter *auth.Filter,
	limiter *middleware.RateLimiter,
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

	h := NewUserHandler(userService, logger)

	r.Group(func(r chi.Router) {
		r.Use(limiter.Handler)
		r.Post("/users/register", h.Register)
		r.Post("/users/login", h.Login)
		if github != nil {
			oh := NewOAuthHandler(userService, github, cfg.OAuthSuccessURL, logger)
			r.Get("/oauth2/authorization/github", oh.Authorize)
			r.Get("/login/oauth2/code/github", oh.Callback)
		}
	})

	r.Get("/users", h.ListUsers)
	r.Post("/users/logout", h.Logout)
	r.Get("/users/activeUser", h.ActiveUser)
	r.Delete("/users/delete", h.DeleteSelf)
	r.Put("/users/changePassword", h.ChangePassword)
	r.Put("/users/changeEmail", h.ChangeEmail)
	r.Delete("/users/admin/delete/{username}", h.DeleteByAdmin)
	r.Put("/users/admin/addRole", h.AddRole)

	return r
}
