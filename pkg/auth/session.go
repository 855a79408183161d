package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/skybook/airline/pkg/credential"
	apperrors "github.com/skybook/airline/pkg/errors"
)

// CredentialStore is the part of the credential store the session
// lifecycle needs.
type CredentialStore interface {
	IdentityLookup
	FindByUsername(ctx context.Context, username string) (*credential.Record, error)
	SetRefreshTokenHash(ctx context.Context, id int64, digest *string) error
}

// Sessions implements login and logout. Only these two operations change the
// stored refresh token; rotation in the filter never does.
type Sessions struct {
	codec   *Codec
	store   CredentialStore
	hasher  *PasswordHasher
	cookies Cookies
	logger  *slog.Logger
}

// NewSessions creates the session lifecycle.
func NewSessions(codec *Codec, store CredentialStore, hasher *PasswordHasher, cookies Cookies, l *slog.Logger) *Sessions {
	return &Sessions{codec: codec, store: store, hasher: hasher, cookies: cookies, logger: l}
}

// Cookies returns the cookie writer the sessions use.
func (s *Sessions) Cookies() Cookies { return s.cookies }

// Login checks username and password, issues both tokens, stores the new
// refresh token digest (revoking any earlier session) and sets both cookies.
// An unknown username is NotFound; an empty or wrong password is
// Unauthorized.
func (s *Sessions) Login(ctx context.Context, w http.ResponseWriter, username, password string) (*credential.Record, error) {
	rec, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, apperrors.CredentialStoreUnavailable(err)
	}

	if password == "" || !s.hasher.Matches(rec.PasswordHash, password, rec.PasswordSalt) {
		s.logger.WarnContext(ctx, "login failed", slog.Int64("subject_id", rec.ID))
		return nil, apperrors.Unauthorized("invalid username or password")
	}

	if err := s.Start(ctx, w, rec); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user logged in", slog.Int64("subject_id", rec.ID))
	return rec, nil
}

// Start opens a session for an already authenticated rec: it issues both
// tokens, stores the refresh token digest (revoking any earlier session) and
// sets both cookies.
func (s *Sessions) Start(ctx context.Context, w http.ResponseWriter, rec *credential.Record) error {
	access, err := s.codec.IssueAccessToken(rec.ID, rec.Roles)
	if err != nil {
		return apperrors.Internal(err)
	}
	refresh, err := s.codec.IssueRefreshToken(rec.ID)
	if err != nil {
		return apperrors.Internal(err)
	}

	digest := HashRefreshToken(refresh)
	if err := s.store.SetRefreshTokenHash(ctx, rec.ID, &digest); err != nil {
		return apperrors.CredentialStoreUnavailable(err)
	}
	rec.RefreshTokenHash = &digest

	s.cookies.SetAccess(w, access, s.codec.AccessTTL())
	s.cookies.SetRefresh(w, refresh, s.codec.RefreshTTL())
	return nil
}

// Logout clears the stored refresh token of the current principal and both
// cookies. It fails with AuthenticationRequired when anonymous and
// IdentityNotFound when the principal has no record.
func (s *Sessions) Logout(ctx context.Context, w http.ResponseWriter) error {
	principal, ok := CurrentPrincipal(ctx)
	if !ok {
		return apperrors.AuthenticationRequired()
	}

	if err := s.store.SetRefreshTokenHash(ctx, principal.SubjectID, nil); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.IdentityNotFound(principal.SubjectID)
		}
		return apperrors.CredentialStoreUnavailable(err)
	}

	s.cookies.Clear(w)
	s.logger.InfoContext(ctx, "user logged out", slog.Int64("subject_id", principal.SubjectID))
	return nil
}
