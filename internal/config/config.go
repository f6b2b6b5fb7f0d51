// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all settings for the API server and the CLI.
type Config struct {
	Port int    // HTTP listen port
	Env  string // development, staging, production

	DatabasePath string // SQLite file holding materialized schedules

	APIKey string // guards the admin routes

	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// Schedules
	SedraCacheSize  int  // years kept in the in-memory schedule cache
	DefaultIsrael   bool // schedule used when a request has no il parameter
	MaterializeSpan int  // most years one materialize request or feed may cover
}

const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Limits for the schedule settings.
const (
	MaxSedraCacheSize  = 4096
	MaxMaterializeSpan = 100
)

// Load reads a .env file when one exists, then the process environment,
// and validates the result.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnvInt("PORT", 8080),
		Env:             getEnv("ENV", EnvDevelopment),
		DatabasePath:    getEnv("DATABASE_PATH", "./data/parsha.db"),
		APIKey:          getEnv("API_KEY", ""),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "text")),
		SedraCacheSize:  getEnvInt("SEDRA_CACHE_SIZE", 64),
		DefaultIsrael:   getEnvBool("DEFAULT_ISRAEL", false),
		MaterializeSpan: getEnvInt("MATERIALIZE_SPAN", 10),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}

	switch c.Env {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("ENV must be one of: development, staging, production; got %q", c.Env))
	}

	if c.DatabasePath == "" {
		errs = append(errs, errors.New("DATABASE_PATH is required"))
	}

	if c.Env == EnvProduction && c.APIKey == "" {
		errs = append(errs, errors.New("API_KEY is required in production"))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %q", c.LogLevel))
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be one of: json, text; got %q", c.LogFormat))
	}

	if c.SedraCacheSize < 1 || c.SedraCacheSize > MaxSedraCacheSize {
		errs = append(errs, fmt.Errorf("SEDRA_CACHE_SIZE must be between 1 and %d, got %d", MaxSedraCacheSize, c.SedraCacheSize))
	}

	if c.MaterializeSpan < 1 || c.MaterializeSpan > MaxMaterializeSpan {
		errs = append(errs, fmt.Errorf("MATERIALIZE_SPAN must be between 1 and %d, got %d", MaxMaterializeSpan, c.MaterializeSpan))
	}

	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool { return c.Env == EnvDevelopment }

func (c *Config) IsProduction() bool { return c.Env == EnvProduction }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt falls back to defaultValue when the variable is unset or not
// a number.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvBool accepts anything strconv.ParseBool does.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
