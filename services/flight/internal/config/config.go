package config

import (
	"fmt"

	pkgconfig "github.com/skybook/airline/pkg/config"
)

// Config holds all configuration for the flight service.
type Config struct {
	pkgconfig.Common

	HTTPPort int `env:"FLIGHT_HTTP_PORT" envDefault:"3003"`
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	if err := pkgconfig.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("load flight config: %w", err)
	}
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load flight config: %w", err)
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
	return c.Common.Validate()
}
