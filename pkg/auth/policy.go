package auth

import (
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/skybook/airline/pkg/errors"
	"github.com/skybook/airline/pkg/httputil"
)

type requirementKind int

const (
	kindAuthenticated requirementKind = iota
	kindPermitAll
	kindAnyRole
)

// Requirement is what a rule demands of the caller.
type Requirement struct {
	kind  requirementKind
	roles []string
}

// PermitAll lets anonymous callers through.
func PermitAll() Requirement { return Requirement{kind: kindPermitAll} }

// RequireAuthenticated demands any principal. It is the default for routes
// no rule matches.
func RequireAuthenticated() Requirement { return Requirement{kind: kindAuthenticated} }

// RequireRole demands a principal holding role.
func RequireRole(role string) Requirement { return RequireAnyRole(role) }

// RequireAnyRole demands a principal holding at least one of roles.
func RequireAnyRole(roles ...string) Requirement {
	return Requirement{kind: kindAnyRole, roles: append([]string(nil), roles...)}
}

// Rule binds a requirement to requests. An empty Method matches every
// method. Pattern is either an exact path or a prefix ending in "/**", which
// matches the prefix itself and everything below it.
type Rule struct {
	Method  string
	Pattern string
	Require Requirement
}

func (r Rule) matches(method, path string) bool {
	if r.Method != "" && r.Method != method {
		return false
	}
	if prefix, ok := strings.CutSuffix(r.Pattern, "/**"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	return path == r.Pattern
}

// Policy is an ordered, immutable rule table. The first matching rule
// decides; requests no rule matches require authentication.
type Policy struct {
	rules []Rule
}

// NewPolicy builds a policy from rules in evaluation order.
func NewPolicy(rules ...Rule) *Policy {
	return &Policy{rules: append([]Rule(nil), rules...)}
}

// Requirement returns the requirement that applies to method and path.
func (p *Policy) Requirement(method, path string) Requirement {
	for _, rule := range p.rules {
		if rule.matches(method, path) {
			return rule.Require
		}
	}
	return RequireAuthenticated()
}

// Decide returns nil when principal may perform method on path,
// ErrAuthenticationRequired-wrapping error when a principal is needed and
// absent, and an ErrAuthorizationDenied-wrapping error when the principal
// lacks the role.
func (p *Policy) Decide(method, path string, principal *Principal) error {
	req := p.Requirement(method, path)
	if req.kind == kindPermitAll {
		return nil
	}
	if principal == nil {
		return apperrors.AuthenticationRequired()
	}
	if req.kind == kindAnyRole {
		for _, role := range req.roles {
			if principal.HasRole(role) {
				return nil
			}
		}
		return apperrors.AuthorizationDenied()
	}
	return nil
}

// Middleware enforces the policy. It must run after the authentication
// filter. Rejections are terminal and written as 401 or 403 JSON errors.
func (p *Policy) Middleware(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, _ := CurrentPrincipal(r.Context())
			if err := p.Decide(r.Method, r.URL.Path, principal); err != nil {
				attrs := []any{
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				}
				if principal != nil {
					attrs = append(attrs, slog.Int64("subject_id", principal.SubjectID))
				}
				l.InfoContext(r.Context(), "request rejected by authorization policy", attrs...)
				httputil.WriteError(w, r, err, l)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OperationalRules permits the health, metrics and profiling endpoints every
// service exposes. Profiling is still guarded by its own IP allowlist.
func OperationalRules() []Rule {
	return []Rule{
		{Method: http.MethodGet, Pattern: "/health/**", Require: PermitAll()},
		{Method: http.MethodGet, Pattern: "/metrics", Require: PermitAll()},
		{Pattern: "/debug/pprof/**", Require: PermitAll()},
	}
}
