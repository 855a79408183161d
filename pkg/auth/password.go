package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// saltBytes gives a 22-character salt, leaving 50 bytes of bcrypt's 72-byte
// input for the password.
const saltBytes = 16

// MaxPasswordBytes is the longest password that still fits bcrypt's input
// once the salt is appended.
const MaxPasswordBytes = 72 - 22

// PasswordHasher hashes bcrypt(password + salt). bcrypt salts internally as
// well; the per-user application salt is kept for compatibility with
// existing records.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher. A cost outside bcrypt's range falls
// back to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// NewSalt returns a random per-user salt.
func (h *PasswordHasher) NewSalt() (string, error) {
	b := make([]byte, saltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(b), nil
}

// Hash returns the bcrypt hash of password+salt.
func (h *PasswordHasher) Hash(password, salt string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password+salt), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Matches reports whether password with salt produces hash.
func (h *PasswordHasher) Matches(hash, password, salt string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password+salt)) == nil
}
