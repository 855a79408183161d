package config

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	pkgconfig "github.com/skybook/airline/pkg/config"
)

// Config holds all configuration for the user service.
type Config struct {
	pkgconfig.Common

	HTTPPort int `env:"USER_HTTP_PORT" envDefault:"3001"`

	// BcryptCost is the work factor for password hashes.
	BcryptCost int `env:"USER_BCRYPT_COST" envDefault:"10"`

	// Per-IP limits on /users/login and /users/register.
	AuthRateRPS   float64 `env:"USER_AUTH_RATE_RPS" envDefault:"1"`
	AuthRateBurst int     `env:"USER_AUTH_RATE_BURST" envDefault:"5"`

	// GitHub sign-in is enabled when a client ID is set.
	GitHubClientID     string `env:"USER_GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"USER_GITHUB_CLIENT_SECRET"`
	GitHubRedirectURL  string `env:"USER_GITHUB_REDIRECT_URL" envDefault:"http://localhost:3001/login/oauth2/code/github"`
	// OAuthSuccessURL is where the browser lands after signing in.
	OAuthSuccessURL string `env:"USER_OAUTH2_SUCCESS_URL" envDefault:"/"`
}

// GitHubEnabled reports whether GitHub sign-in is configured.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != ""
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	if err := pkgconfig.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("load user config: %w", err)
	}
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load user config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if err := pkgconfig.ValidatePort("HTTP port", c.HTTPPort); err != nil {
		return err
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("USER_BCRYPT_COST must be within [%d,%d], got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	if c.AuthRateRPS <= 0 {
		return fmt.Errorf("USER_AUTH_RATE_RPS must be positive, got %v", c.AuthRateRPS)
	}
	if c.AuthRateBurst < 1 {
		return fmt.Errorf("USER_AUTH_RATE_BURST must be at least 1, got %d", c.AuthRateBurst)
	}
	if c.GitHubEnabled() && (c.GitHubClientSecret == "" || c.GitHubRedirectURL == "") {
		return fmt.Errorf("USER_GITHUB_CLIENT_SECRET and USER_GITHUB_REDIRECT_URL are required with USER_GITHUB_CLIENT_ID")
	}
	return c.Common.Validate()
}
