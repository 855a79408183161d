package http

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/skybook/airline/pkg/errors"
	"github.com/skybook/airline/pkg/httputil"
	"github.com/skybook/airline/services/user/internal/oauth"
	"github.com/skybook/airline/services/user/internal/service"
)

const (
	oauthStateCookie = "oauth2State"
	oauthStateMaxAge = 600
)

// GitHubAuth is the GitHub sign-in flow the handler drives.
type GitHubAuth interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth.GitHubUser, error)
}

// OAuthHandler handles the GitHub authorization redirect and callback.
type OAuthHandler struct {
	service    *service.UserService
	github     GitHubAuth
	successURL string
	logger     *slog.Logger
}

// NewOAuthHandler creates the GitHub sign-in handler. The browser is sent to
// successURL once signed in.
func NewOAuthHandler(svc *service.UserService, github GitHubAuth, successURL string, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{service: svc, github: github, successURL: successURL, logger: logger}
}

func (h *OAuthHandler) setState(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.service.Cookies().Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Authorize handles GET /oauth2/authorization/github
func (h *OAuthHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	h.setState(w, state, oauthStateMaxAge)
	http.Redirect(w, r, h.github.AuthCodeURL(state), http.StatusFound)
}

// Callback handles GET /login/oauth2/code/github
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := q.Get("state")
	stored, err := r.Cookie(oauthStateCookie)
	h.setState(w, "", -1)

	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(stored.Value), []byte(state)) != 1 {
		httputil.WriteError(w, r, apperrors.Unauthorized("invalid oauth2 state"), h.logger)
		return
	}
	if reason := q.Get("error"); reason != "" {
		h.logger.InfoContext(r.Context(), "github sign-in declined", slog.String("reason", reason))
		httputil.WriteError(w, r, apperrors.Unauthorized("github sign-in was declined"), h.logger)
		return
	}
	code := q.Get("code")
	if code == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("missing authorization code"), h.logger)
		return
	}

	account, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.WarnContext(r.Context(), "github sign-in failed", slog.String("error", err.Error()))
		httputil.WriteError(w, r, apperrors.Unauthorized("github sign-in failed"), h.logger)
		return
	}

	_, err = h.service.LoginExternal(r.Context(), w, service.ExternalIdentity{
		Provider: "github",
		Username: account.Login,
		Email:    account.Email,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	http.Redirect(w, r, h.successURL, http.StatusFound)
}
