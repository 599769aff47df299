package config

import (
	"net/http"
	"strings"
	"time"

	"go-payroll/internal/shared/apperror"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	EventBackendRedis = "redis"
	EventBackendKafka = "kafka"
)

// Config is read once at startup and injected into every component.
type Config struct {
	AppEnv            string        `env:"APP_ENV" envDefault:"development"`
	Port              string        `env:"PORT" envDefault:"5000"`
	RealtimePort      string        `env:"REALTIME_PORT" envDefault:"5001"`
	RedisURL          string        `env:"REDIS_URL"`
	RedisMaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"5"`
	JWTSecret         string        `env:"JWT_SECRET"`
	JWTExpiresIn      time.Duration `env:"JWT_EXPIRES_IN" envDefault:"1h"`
	EnableCron        bool          `env:"ENABLE_CRON" envDefault:"false"`
	CronSchedule      string        `env:"CRON_SCHEDULE" envDefault:"0 1 * * *"`
	EventBackend      string        `env:"EVENT_BACKEND" envDefault:"redis"`
	KafkaBroker       string        `env:"KAFKA_BROKER"`
	WorkerBackoff     time.Duration `env:"WORKER_BACKOFF" envDefault:"1s"`
	WorkerPollTimeout time.Duration `env:"WORKER_POLL_TIMEOUT" envDefault:"5s"`
	WorkerClaimTTL    time.Duration `env:"WORKER_CLAIM_TTL" envDefault:"30s"`
	CacheTTL          time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	CORSAllowOrigins  []string      `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the process environment without touching .env files.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeConfigError, "invalid configuration", http.StatusInternalServerError)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.RedisURL) == "" {
		return apperror.FatalConfig("REDIS_URL not set")
	}
	c.EventBackend = strings.ToLower(strings.TrimSpace(c.EventBackend))
	switch c.EventBackend {
	case EventBackendRedis:
	case EventBackendKafka:
		if c.KafkaBroker == "" {
			return apperror.FatalConfig("KAFKA_BROKER is required when EVENT_BACKEND=kafka")
		}
	default:
		return apperror.FatalConfig("EVENT_BACKEND must be redis or kafka")
	}
	for _, o := range c.CORSAllowOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return apperror.FatalConfig("CORS_ALLOW_ORIGINS entries must be * or http(s) origins")
		}
	}
	if c.WorkerBackoff <= 0 {
		c.WorkerBackoff = time.Second
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 5 * time.Minute
	}
	return nil
}

// RequireJWTSecret is checked by binaries that issue or verify tokens.
func (c *Config) RequireJWTSecret() error {
	if c.JWTSecret == "" {
		return apperror.FatalConfig("JWT_SECRET not set")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
