package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skybook/airline/pkg/auth"
	"github.com/skybook/airline/pkg/credential"
	"github.com/skybook/airline/pkg/middleware"
	"github.com/skybook/airline/services/user/internal/oauth"
)

type fakeGitHub struct {
	user  *oauth.GitHubUser
	err   error
	codes []string
}

func (f *fakeGitHub) AuthCodeURL(state string) string {
	return "https://github.test/login/oauth/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeGitHub) Exchange(_ context.Context, code string) (*oauth.GitHubUser, error) {
	f.codes = append(f.codes, code)
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// authorize starts the flow and returns the state handed to GitHub.
func (e *testEnv) authorize(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodGet, "/oauth2/authorization/github", "", 0)
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	c := responseCookie(rec, oauthStateCookie)
	require.NotNil(t, c)
	assert.Equal(t, state, c.Value)
	assert.True(t, c.HttpOnly)
	return state
}

func (e *testEnv) callback(t *testing.T, query url.Values, stateCookie string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/login/oauth2/code/github?"+query.Encode(), nil)
	if stateCookie != "" {
		req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: stateCookie})
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestGitHubSignIn_RegistersAndSetsCookies(t *testing.T) {
	env := setup(t)
	env.github.user = &oauth.GitHubUser{Login: "octocat", Email: "Octo@GitHub.test"}

	state := env.authorize(t)
	rec := env.callback(t, url.Values{"code": {"c0de"}, "state": {state}}, state)

	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, "/users/activeUser", rec.Header().Get("Location"))
	assert.Equal(t, []string{"c0de"}, env.github.codes)

	access := responseCookie(rec, auth.AccessCookie)
	require.NotNil(t, access)
	assert.NotNil(t, responseCookie(rec, auth.RefreshCookie))
	cleared := responseCookie(rec, oauthStateCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	p, err := env.codec.VerifyAccess(access.Value)
	require.NoError(t, err)
	stored, err := env.store.FindBySubjectID(context.Background(), p.SubjectID)
	require.NoError(t, err)
	assert.Equal(t, "octocat", stored.Username)
	assert.Equal(t, "octo@github.test", stored.Email)
	assert.Equal(t, []string{credential.RoleUser}, stored.Roles)
	assert.NotNil(t, stored.RefreshTokenHash)
	assert.Equal(t, 1, env.events.registered)

	// A second sign-in reuses the account.
	state = env.authorize(t)
	rec = env.callback(t, url.Values{"code": {"again"}, "state": {state}}, state)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, 1, env.events.registered)
}

func TestGitHubSignIn_Failures(t *testing.T) {
	tests := []struct {
		name       string
		query      url.Values
		cookie     string
		exchange   error
		wantStatus int
	}{
		{"missing state cookie", url.Values{"code": {"c"}, "state": {"s1"}}, "", nil, http.StatusUnauthorized},
		{"state mismatch", url.Values{"code": {"c"}, "state": {"s1"}}, "s2", nil, http.StatusUnauthorized},
		{"declined", url.Values{"error": {"access_denied"}, "state": {"s1"}}, "s1", nil, http.StatusUnauthorized},
		{"missing code", url.Values{"state": {"s1"}}, "s1", nil, http.StatusBadRequest},
		{"exchange failed", url.Values{"code": {"c"}, "state": {"s1"}}, "s1", errors.New("bad_verification_code"), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setup(t)
			env.github.user = &oauth.GitHubUser{Login: "octocat", Email: "octo@github.test"}
			env.github.err = tt.exchange

			rec := env.callback(t, tt.query, tt.cookie)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Nil(t, responseCookie(rec, auth.AccessCookie))
			assert.NotContains(t, rec.Body.String(), "bad_verification_code")
		})
	}
}

func TestGitHubSignIn_CannotTakeOverPasswordAccount(t *testing.T) {
	env := setup(t)
	env.register(t, "ada", "ada@example.com")
	env.github.user = &oauth.GitHubUser{Login: "ada", Email: "ada@github.test"}

	state := env.authorize(t)
	rec := env.callback(t, url.Values{"code": {"c"}, "state": {state}}, state)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Nil(t, responseCookie(rec, auth.AccessCookie))
}

func TestGitHubRoutes_NotMountedWithoutClient(t *testing.T) {
	env := newTestEnv(t, middleware.RateLimitConfig{RPS: 1000, Burst: 1000}, nil)

	rec := env.do(t, http.MethodGet, "/oauth2/authorization/github", "", 0)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
