// Package oauth signs users in through GitHub with the OAuth2 authorization
// code flow.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const defaultAPIBase = "https://api.github.com"

// GitHubUser is the account GitHub reports for the signed-in user. Email is
// the public address, or else the primary verified one, and may be empty.
type GitHubUser struct {
	Login string
	Email string
}

// GitHub runs the authorization code flow against GitHub.
type GitHub struct {
	conf    *oauth2.Config
	apiBase string
}

// Option configures a GitHub client.
type Option func(*GitHub)

// WithEndpoint replaces the GitHub authorization and token URLs.
func WithEndpoint(e oauth2.Endpoint) Option {
	return func(g *GitHub) { g.conf.Endpoint = e }
}

// WithAPIBase replaces the GitHub REST API root.
func WithAPIBase(base string) Option {
	return func(g *GitHub) { g.apiBase = base }
}

// NewGitHub creates a GitHub client for the given OAuth app.
func NewGitHub(clientID, clientSecret, redirectURL string, opts ...Option) *GitHub {
	g := &GitHub{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     endpoints.GitHub,
			Scopes:       []string{"read:user", "user:email"},
		},
		apiBase: defaultAPIBase,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AuthCodeURL returns the GitHub consent page URL carrying state.
func (g *GitHub) AuthCodeURL(state string) string {
	return g.conf.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token and reads the account
// it belongs to.
func (g *GitHub) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange github code: %w", err)
	}
	client := g.conf.Client(ctx, tok)

	var profile struct {
		Login string  `json:"login"`
		Email *string `json:"email"`
	}
	if err := g.getJSON(ctx, client, "/user", &profile); err != nil {
		return nil, err
	}
	if profile.Login == "" {
		return nil, errors.New("github profile has no login")
	}

	user := &GitHubUser{Login: profile.Login}
	if profile.Email != nil {
		user.Email = *profile.Email
	}
	if user.Email != "" {
		return user, nil
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := g.getJSON(ctx, client, "/user/emails", &emails); err != nil {
		return nil, err
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			user.Email = e.Email
			break
		}
	}
	return user, nil
}

func (g *GitHub) getJSON(ctx context.Context, client *http.Client, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiBase+path, nil)
	if err != nil {
		return fmt.Errorf("build github request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("github GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github GET %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(v); err != nil {
		return fmt.Errorf("decode github %s: %w", path, err)
	}
	return nil
}
