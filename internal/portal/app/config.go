package app

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is read from IMMO_* environment variables.
type Config struct {
	APIBaseURL  string        `envconfig:"API_BASE_URL" default:"http://localhost:8080"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"sqlite"` // sqlite, redis or memory
	StoreDSN    string `envconfig:"STORE_DSN" default:"immo.db"`
	RedisAddr   string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPrefix string `envconfig:"REDIS_PREFIX" default:"immo:"`

	// RoutesFile replaces the built-in route table when set.
	RoutesFile string `envconfig:"ROUTES_FILE"`

	// Zero keeps the moderate default profile; a negative value disables
	// outbound throttling.
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitBurst    int           `envconfig:"RATE_LIMIT_BURST"`

	Env       string `envconfig:"ENV" default:"dev"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

const envPrefix = "IMMO"

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverSQLite, DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("config: unknown store driver %q", c.StoreDriver)
	}
	if c.APIBaseURL == "" {
		return fmt.Errorf("config: API base URL is required")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("config: HTTP timeout must be positive")
	}
	return nil
}
