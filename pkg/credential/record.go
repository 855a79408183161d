// Package credential is the persistent store of user records shared by every
// airline service: identity, password hash and salt, roles and the digest of
// the single currently-issued refresh token.
package credential

import (
	"strings"
	"time"
)

// Role names as stored.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// RoleName returns the stored form of a role: "ROLE_" followed by the
// upper-cased bare name. Names that already carry the prefix are kept.
func RoleName(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	if strings.HasPrefix(name, "ROLE_") {
		return name
	}
	return "ROLE_" + name
}

// Record is a user as held by the store.
type Record struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	PasswordSalt string    `json:"-"`
	// RefreshTokenHash is the SHA-256 digest of the current refresh token,
	// nil after logout or before the first login.
	RefreshTokenHash *string   `json:"-"`
	Roles            []string  `json:"roles"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// HasRole reports whether the record holds role, compared in stored form.
func (r *Record) HasRole(role string) bool {
	want := RoleName(role)
	for _, have := range r.Roles {
		if RoleName(have) == want {
			return true
		}
	}
	return false
}
