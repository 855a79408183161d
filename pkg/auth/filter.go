package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/skybook/airline/pkg/credential"
	apperrors "github.com/skybook/airline/pkg/errors"
	"github.com/skybook/airline/pkg/logger"
)

// Filter outcomes, also used as metric label values.
const (
	OutcomeAccess           = "access"
	OutcomeRotated          = "rotated"
	OutcomeAnonymous        = "anonymous"
	OutcomeIdentityNotFound = "identity_not_found"
	OutcomeRefreshRevoked   = "refresh_revoked"
	OutcomeStoreUnavailable = "store_unavailable"
	OutcomeIssueFailed      = "issue_failed"
)

var filterOutcomes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_filter_outcomes_total",
		Help: "Authentication filter results by outcome",
	},
	[]string{"service", "outcome"},
)

// IdentityLookup is the part of the credential store the filter reads.
type IdentityLookup interface {
	FindBySubjectID(ctx context.Context, id int64) (*credential.Record, error)
}

// HashRefreshToken returns the digest under which a refresh token is stored.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// refreshMatches reports whether token is the refresh token currently issued
// to rec.
func refreshMatches(rec *credential.Record, token string) bool {
	if rec.RefreshTokenHash == nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*rec.RefreshTokenHash), []byte(HashRefreshToken(token))) == 1
}

// Filter resolves the Principal of each request from its cookies.
type Filter struct {
	codec   *Codec
	store   IdentityLookup
	cookies Cookies
	service string
	logger  *slog.Logger
}

// NewFilter creates the authentication filter for service.
func NewFilter(codec *Codec, store IdentityLookup, cookies Cookies, service string, l *slog.Logger) *Filter {
	return &Filter{codec: codec, store: store, cookies: cookies, service: service, logger: l}
}

// Middleware installs the Principal into the request context when the
// request carries a valid access token, or a valid refresh token matching
// the stored one (in which case a new access token cookie is set). It never
// rejects a request: every failure degrades to anonymous and next is always
// called.
func (f *Filter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, outcome := f.resolve(w, r)
		filterOutcomes.WithLabelValues(f.service, outcome).Inc()

		if principal != nil {
			ctx := WithPrincipal(r.Context(), principal)
			ctx = logger.WithSubjectID(ctx, principal.SubjectID)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

func (f *Filter) resolve(w http.ResponseWriter, r *http.Request) (*Principal, string) {
	if p, err := f.codec.VerifyAccess(readCookie(r, AccessCookie)); err == nil {
		return p, OutcomeAccess
	}

	refresh := readCookie(r, RefreshCookie)
	if refresh == "" {
		return nil, OutcomeAnonymous
	}
	subjectID, err := f.codec.VerifyRefresh(refresh)
	if err != nil {
		f.logger.DebugContext(r.Context(), "refresh token rejected",
			slog.String("path", r.URL.Path),
		)
		return nil, OutcomeAnonymous
	}

	ctx := r.Context()
	rec, err := f.store.FindBySubjectID(ctx, subjectID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		f.logger.WarnContext(ctx, "refresh token for unknown subject",
			slog.Int64("subject_id", subjectID),
			slog.String("error", apperrors.IdentityNotFound(subjectID).Error()),
		)
		return nil, OutcomeIdentityNotFound
	case err != nil:
		f.logger.ErrorContext(ctx, "credential lookup failed during token rotation",
			slog.Int64("subject_id", subjectID),
			slog.String("error", apperrors.CredentialStoreUnavailable(err).Error()),
		)
		return nil, OutcomeStoreUnavailable
	}

	if !refreshMatches(rec, refresh) {
		f.logger.WarnContext(ctx, "revoked refresh token presented",
			slog.Int64("subject_id", subjectID),
		)
		return nil, OutcomeRefreshRevoked
	}

	access, err := f.codec.IssueAccessToken(rec.ID, rec.Roles)
	if err != nil {
		f.logger.ErrorContext(ctx, "failed to issue rotated access token",
			slog.Int64("subject_id", subjectID),
			slog.String("error", err.Error()),
		)
		return nil, OutcomeIssueFailed
	}
	f.cookies.SetAccess(w, access, f.codec.AccessTTL())

	f.logger.DebugContext(ctx, "access token rotated", slog.Int64("subject_id", subjectID))
	return &Principal{SubjectID: rec.ID, Roles: rec.Roles}, OutcomeRotated
}
