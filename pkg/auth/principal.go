// Package auth implements the JWT session chain shared by every airline
// service: the token codec, cookie transport, the authentication filter that
// resolves a Principal per request, the ordered authorization policy and the
// login/logout session lifecycle.
package auth

import (
	"context"
	"slices"

	"github.com/skybook/airline/pkg/credential"
)

// Principal is the authenticated caller of a single request. It is built by
// the filter from a verified token and never persisted.
type Principal struct {
	SubjectID int64
	Roles     []string
}

// HasRole reports whether the principal holds role. "ADMIN" and "ROLE_ADMIN"
// name the same role.
func (p *Principal) HasRole(role string) bool {
	want := credential.RoleName(role)
	return slices.ContainsFunc(p.Roles, func(have string) bool {
		return credential.RoleName(have) == want
	})
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// CurrentPrincipal returns the principal installed by the authentication
// filter, if any.
func CurrentPrincipal(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// IsInRole reports whether the current principal holds role. It is false for
// anonymous requests.
func IsInRole(ctx context.Context, role string) bool {
	p, ok := CurrentPrincipal(ctx)
	return ok && p.HasRole(role)
}
