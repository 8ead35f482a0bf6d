// Package config reads the service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/fragisir/automatic-resturent-system/utils"
)

const (
	// DevSessionSecret and DevAdminSecret are only accepted outside production.
	DevSessionSecret = "dev-only-session-secret-change-me"
	DevAdminSecret   = "dev-only-admin-secret-change-me"

	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	Port     string `env:"PORT" envDefault:"8080"`
	GinMode  string `env:"GIN_MODE"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	SessionTokenSecret string        `env:"SESSION_TOKEN_SECRET"`
	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"2m"`
	StoreTimeout       time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
	TableCount         int           `env:"TABLE_COUNT" envDefault:"20"`

	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN    string `env:"DB_DSN" envDefault:"restaurant.db"`

	RedisAddr    string `env:"REDIS_ADDR"`
	RedisChannel string `env:"REDIS_CHANNEL" envDefault:"restaurant:events"`

	ReaperInterval     time.Duration `env:"REAPER_INTERVAL" envDefault:"30s"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	AdminUsername     string        `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH"`
	AdminTokenSecret  string        `env:"ADMIN_TOKEN_SECRET"`
	AdminTokenTTL     time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"24h"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`
	EventBuffer    int     `env:"EVENT_BUFFER" envDefault:"256"`
}

// Load reads .env when present, parses the environment and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("Warning: .env file not found")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, EnvProduction)
}

// Validate fills development defaults and refuses to start production with
// missing or default secrets.
func (c *Config) Validate() error {
	var errs []error

	if c.IsProduction() {
		if c.SessionTokenSecret == "" || c.SessionTokenSecret == DevSessionSecret {
			errs = append(errs, errors.New("SESSION_TOKEN_SECRET must be set in production"))
		}
		if c.AdminTokenSecret == "" || c.AdminTokenSecret == DevAdminSecret {
			errs = append(errs, errors.New("ADMIN_TOKEN_SECRET must be set in production"))
		}
	} else {
		if c.SessionTokenSecret == "" {
			utils.InfoLogger.Warn("SESSION_TOKEN_SECRET not set, using development default")
			c.SessionTokenSecret = DevSessionSecret
		}
		if c.AdminTokenSecret == "" {
			utils.InfoLogger.Warn("ADMIN_TOKEN_SECRET not set, using development default")
			c.AdminTokenSecret = DevAdminSecret
		}
	}

	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}
	if c.TableCount < 1 {
		errs = append(errs, errors.New("TABLE_COUNT must be at least 1"))
	}
	if c.ReaperInterval <= 0 {
		errs = append(errs, errors.New("REAPER_INTERVAL must be positive"))
	}
	if c.EventBuffer < 1 {
		errs = append(errs, errors.New("EVENT_BUFFER must be at least 1"))
	}
	switch c.DBDriver {
	case "sqlite", "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}

	return errors.Join(errs...)
}
