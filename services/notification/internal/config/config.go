package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/skybook/airline/pkg/config"
	"github.com/skybook/airline/pkg/database"
)

// Config holds all configuration for the notification service.
type Config struct {
	pkgconfig.Common

	HTTPPort int `env:"NOTIFICATION_HTTP_PORT" envDefault:"3002"`

	// IdempotencyBackend is "redis", shared by every replica, or "memory",
	// local to one process. Redis settings are ignored for "memory".
	IdempotencyBackend string `env:"NOTIFICATION_IDEMPOTENCY_BACKEND" envDefault:"redis"`

	// Redis backs event deduplication.
	Redis database.RedisConfig

	// IdempotencyTTL is how long a processed event ID is remembered.
	IdempotencyTTL time.Duration `env:"NOTIFICATION_IDEMPOTENCY_TTL" envDefault:"24h"`

	// DLQEnabled routes events that keep failing to <topic>.dlq.
	DLQEnabled bool `env:"NOTIFICATION_DLQ_ENABLED" envDefault:"true"`

	// Failed deliveries are retried every RetryInterval, RetryBatch at a time.
	RetryInterval time.Duration `env:"NOTIFICATION_RETRY_INTERVAL" envDefault:"1m"`
	RetryBatch    int           `env:"NOTIFICATION_RETRY_BATCH" envDefault:"50"`
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	if err := pkgconfig.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("load notification config: %w", err)
	}
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load notification config: %w", err)
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
	switch c.IdempotencyBackend {
	case "redis":
		if err := pkgconfig.ValidatePort("Redis port", c.Redis.Port); err != nil {
			return err
		}
	case "memory":
	default:
		return fmt.Errorf("NOTIFICATION_IDEMPOTENCY_BACKEND must be redis or memory, got %q", c.IdempotencyBackend)
	}
	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("NOTIFICATION_IDEMPOTENCY_TTL must be positive, got %s", c.IdempotencyTTL)
	}
	if c.RetryInterval <= 0 {
		return fmt.Errorf("NOTIFICATION_RETRY_INTERVAL must be positive, got %s", c.RetryInterval)
	}
	if c.RetryBatch < 1 {
		return fmt.Errorf("NOTIFICATION_RETRY_BATCH must be at least 1, got %d", c.RetryBatch)
	}
	return c.Common.Validate()
}
