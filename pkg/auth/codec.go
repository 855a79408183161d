package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/skybook/airline/pkg/errors"
)

// Token kinds carried in the typ claim.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Claims is the token payload. Roles is only present on access tokens.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	Kind  string   `json:"typ"`
	jwt.RegisteredClaims
}

// Codec issues and verifies HS256 tokens with one process-wide key.
// It is safe for concurrent use.
type Codec struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	parser     *jwt.Parser
}

// CodecOption customizes a Codec.
type CodecOption func(*Codec)

// WithClock replaces time.Now for issuing and verifying.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) { c.now = now }
}

// NewCodec creates a codec. refreshTTL must exceed accessTTL.
func NewCodec(secret string, accessTTL, refreshTTL time.Duration, opts ...CodecOption) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("auth: empty signing secret")
	}
	// Token expiry and cookie Max-Age both have whole-second resolution.
	if accessTTL < time.Second {
		return nil, fmt.Errorf("auth: access TTL (%s) must be at least one second", accessTTL)
	}
	if refreshTTL <= accessTTL {
		return nil, fmt.Errorf("auth: refresh TTL (%s) must exceed access TTL (%s)", refreshTTL, accessTTL)
	}

	c := &Codec{
		key:        []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	return c, nil
}

// AccessTTL is the lifetime of access tokens.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL is the lifetime of refresh tokens.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccessToken signs an access token for subjectID carrying roles.
func (c *Codec) IssueAccessToken(subjectID int64, roles []string) (string, error) {
	return c.sign(subjectID, KindAccess, roles, c.accessTTL)
}

// IssueRefreshToken signs a refresh token for subjectID. It carries no roles.
func (c *Codec) IssueRefreshToken(subjectID int64) (string, error) {
	return c.sign(subjectID, KindRefresh, nil, c.refreshTTL)
}

func (c *Codec) sign(subjectID int64, kind string, roles []string, ttl time.Duration) (string, error) {
	now := c.now()
	claims := &Claims{
		Roles: roles,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// VerifyAccess checks an access token and returns its principal. Any failure
// is reported as apperrors.ErrTokenInvalid.
func (c *Codec) VerifyAccess(token string) (*Principal, error) {
	claims, subjectID, err := c.verify(token, KindAccess)
	if err != nil {
		return nil, err
	}
	return &Principal{SubjectID: subjectID, Roles: claims.Roles}, nil
}

// VerifyRefresh checks a refresh token and returns its subject id. Any
// failure is reported as apperrors.ErrTokenInvalid.
func (c *Codec) VerifyRefresh(token string) (int64, error) {
	_, subjectID, err := c.verify(token, KindRefresh)
	return subjectID, err
}

// verify collapses every failure (signature, format, expiry, kind) into
// ErrTokenInvalid so callers cannot tell them apart.
func (c *Codec) verify(token, kind string) (*Claims, int64, error) {
	if token == "" {
		return nil, 0, apperrors.ErrTokenInvalid
	}

	claims := &Claims{}
	parsed, err := c.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.key, nil
	})
	if err != nil || !parsed.Valid || claims.Kind != kind {
		return nil, 0, apperrors.ErrTokenInvalid
	}

	subjectID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || subjectID <= 0 {
		return nil, 0, apperrors.ErrTokenInvalid
	}
	return claims, subjectID, nil
}
