package domain

import (
	"strings"
	"time"

	"github.com/skybook/airline/pkg/credential"
)

// User is the account as returned to clients. Password material and the
// refresh token digest never leave the credential record.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromRecord builds the client view of rec.
func FromRecord(rec *credential.Record) *User {
	roles := rec.Roles
	if roles == nil {
		roles = []string{}
	}
	return &User{
		ID:        rec.ID,
		Username:  rec.Username,
		Email:     rec.Email,
		Roles:     roles,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

// NormalizeEmail trims and lower-cases an address before it is stored or
// compared.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
