package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"development"`
	Port        string `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL"`
	DatabaseURL string `env:"DATABASE_URL"`
	DBMaxConns  int    `env:"DB_MAX_CONNS" envDefault:"0"`
	JWTSecret   string `env:"JWT_SECRET"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"false"`

	HTTPReadTimeoutSeconds  int      `env:"HTTP_READ_TIMEOUT_SECONDS" envDefault:"15"`
	HTTPWriteTimeoutSeconds int      `env:"HTTP_WRITE_TIMEOUT_SECONDS" envDefault:"30"`
	HTTPIdleTimeoutSeconds  int      `env:"HTTP_IDLE_TIMEOUT_SECONDS" envDefault:"60"`
	RateLimitPerMin         int      `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`
	CORSAllowedOrigins      []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	QuotaLimit  int           `env:"ARTICLE_QUOTA_LIMIT" envDefault:"6"`
	QuotaWindow time.Duration `env:"ARTICLE_QUOTA_WINDOW" envDefault:"24h"`

	GenerationBaseURL string        `env:"GENERATION_BASE_URL" envDefault:"http://localhost:7070/api"`
	GenerationAPIKey  string        `env:"GENERATION_API_KEY"`
	DispatchTimeout   time.Duration `env:"DISPATCH_TIMEOUT" envDefault:"15s"`
	ReconcileTimeout  time.Duration `env:"RECONCILE_TIMEOUT" envDefault:"5s"`

	RedisURL         string        `env:"REDIS_URL"`
	ReconcileGateTTL time.Duration `env:"RECONCILE_GATE_TTL" envDefault:"3s"`

	WorkerPollInterval time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"10s"`
	WorkerBatchSize    int           `env:"WORKER_BATCH_SIZE" envDefault:"50"`
	WorkerConcurrency  int           `env:"WORKER_CONCURRENCY" envDefault:"4"`

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig reads an optional .env file, then the environment, and applies
// defaults where needed.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Sanitize()

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// Sanitize replaces out-of-range values with defaults and derives the HTTP
// timeouts.
func (c *Config) Sanitize() {
	c.AppEnv = strings.ToLower(strings.TrimSpace(c.AppEnv))
	c.HTTPReadTimeout = secondsOr(c.HTTPReadTimeoutSeconds, 15)
	c.HTTPWriteTimeout = secondsOr(c.HTTPWriteTimeoutSeconds, 30)
	c.HTTPIdleTimeout = secondsOr(c.HTTPIdleTimeoutSeconds, 60)
	if c.RateLimitPerMin < 0 {
		c.RateLimitPerMin = 0
	}
	if c.QuotaLimit <= 0 {
		c.QuotaLimit = 6
	}
	if c.QuotaWindow <= 0 {
		c.QuotaWindow = 24 * time.Hour
	}
	if c.WorkerBatchSize <= 0 {
		c.WorkerBatchSize = 50
	}
	if c.WorkerConcurrency <= 0 {
		c.WorkerConcurrency = 4
	}
	if c.WorkerPollInterval < time.Second {
		c.WorkerPollInterval = 10 * time.Second
	}
	origins := c.CORSAllowedOrigins[:0]
	for _, o := range c.CORSAllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.CORSAllowedOrigins = origins
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func secondsOr(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}
