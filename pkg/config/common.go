package config

import (
	"fmt"
	"time"
)

// DefaultJWTSecret is the development-only signing secret.
const DefaultJWTSecret = "change-this-to-a-secure-secret"

// Common holds the settings every airline service shares: environment,
// logging, the shared PostgreSQL database, Kafka, JWT and CORS.
type Common struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"airline"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"airline_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"airline"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// JWT. TTLs are expressed in milliseconds.
	JWTSecret       string `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTAccessTTLMs  int64  `env:"JWT_ACCESS_TTL_MS" envDefault:"900000"`
	JWTRefreshTTLMs int64  `env:"JWT_REFRESH_TTL_MS" envDefault:"604800000"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:8080" envSeparator:","`

	// Profiling endpoints, served on the service port behind an IP allowlist.
	PprofEnabled      bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32,::1/128" envSeparator:","`

	// Tracing
	OTLPEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TracingEnabled  bool    `env:"TRACING_ENABLED" envDefault:"false"`
	TraceSampleRate float64 `env:"TRACE_SAMPLE_RATE" envDefault:"1.0"`
}

// AccessTTL returns the access token lifetime.
func (c *Common) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMs) * time.Millisecond
}

// RefreshTTL returns the refresh token lifetime.
func (c *Common) RefreshTTL() time.Duration {
	return time.Duration(c.JWTRefreshTTLMs) * time.Millisecond
}

// Validate checks the shared settings. In non-development environments the
// JWT secret must be set explicitly and be at least 32 bytes long.
func (c *Common) Validate() error {
	if c.JWTAccessTTLMs <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL_MS must be positive, got %d", c.JWTAccessTTLMs)
	}
	if c.JWTRefreshTTLMs <= c.JWTAccessTTLMs {
		return fmt.Errorf("JWT_REFRESH_TTL_MS (%d) must be greater than JWT_ACCESS_TTL_MS (%d)",
			c.JWTRefreshTTLMs, c.JWTAccessTTLMs)
	}
	if c.TraceSampleRate < 0 || c.TraceSampleRate > 1 {
		return fmt.Errorf("TRACE_SAMPLE_RATE must be within [0,1], got %v", c.TraceSampleRate)
	}
	if c.Environment != "development" {
		if c.JWTSecret == DefaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", c.Environment)
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret))
		}
	}
	return nil
}

// ValidatePort checks that port is a usable TCP port.
func ValidatePort(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid %s: %d", name, port)
	}
	return nil
}
