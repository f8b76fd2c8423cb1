package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds runtime configuration for the asset tracker.
type Config struct {
	Addr             string        `env:"ADDR,default=:8080"`
	DBDSN            string        `env:"DB_DSN,required"`
	NATSURL          string        `env:"NATS_URL"`
	OTLPEndpoint     string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	AllowedOrigins   []string      `env:"CORS_ALLOWED_ORIGINS"`
	SessionTTL       time.Duration `env:"SESSION_TTL,default=336h"`
	CookieSecure     bool          `env:"COOKIE_SECURE,default=false"`
	RequestRateLimit int           `env:"REQUEST_RATE_LIMIT,default=300"`
}

// Load returns a Config populated from environment variables.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
