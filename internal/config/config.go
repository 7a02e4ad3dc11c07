package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the society backend.
// Environment variables are parsed from the SOCIETY_BACKEND_ prefix.
type Config struct {
	// Build target selects the high-level environment: local, cloud
	BuildTarget string `envconfig:"BUILD_TARGET" default:"local"`

	// Store driver: auto, firebase, postgres, sqlite
	StoreDriver string `envconfig:"STORE_DRIVER" default:"auto"`

	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Firebase Realtime Database REST endpoint and optional auth token
	FirebaseURL  string `envconfig:"FIREBASE_URL" default:""`
	FirebaseAuth string `envconfig:"FIREBASE_AUTH" default:""`

	// Postgres Configuration
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// SQLite Configuration (local driver)
	SQLitePath string `envconfig:"SQLITE_PATH" default:"data/society.db"`

	// Watch polling cadence for the SQL-backed store drivers, milliseconds
	WatchIntervalMillis int `envconfig:"WATCH_INTERVAL_MILLIS" default:"1000"`

	// Query submission throttle: submissions per minute per instance
	QueryRatePerMinute int `envconfig:"QUERY_RATE_PER_MINUTE" default:"10"`
	QueryRateBurst     int `envconfig:"QUERY_RATE_BURST" default:"5"`

	// Health probing
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
}

// ResolveDefaults validates BuildTarget and derives StoreDriver when set to
// "auto" or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDriver string

	switch c.BuildTarget {
	case "local":
		defaultDriver = "sqlite"
	case "cloud":
		defaultDriver = "firebase"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.StoreDriver == "" || c.StoreDriver == "auto" {
		c.StoreDriver = defaultDriver
	}

	allowed := map[string]bool{"firebase": true, "postgres": true, "sqlite": true}
	if !allowed[c.StoreDriver] {
		return fmt.Errorf("unsupported STORE_DRIVER: %s", c.StoreDriver)
	}
	if c.StoreDriver == "firebase" && c.FirebaseURL == "" {
		return fmt.Errorf("STORE_DRIVER=firebase requires FIREBASE_URL")
	}
	if c.StoreDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("STORE_DRIVER=postgres requires POSTGRES_DSN")
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Variables are prefixed with SOCIETY_BACKEND_, for example
// SOCIETY_BACKEND_HTTP_PORT or SOCIETY_BACKEND_STORE_DRIVER.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("SOCIETY_BACKEND", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("store_driver", cfg.StoreDriver).
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Bool("firebase_url_present", cfg.FirebaseURL != "").
		Bool("postgres_dsn_present", cfg.PostgresDSN != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config suitable for tests: sqlite driver, short
// watch interval, generous throttle.
func NewForTesting() *Config {
	return &Config{
		BuildTarget:               "local",
		StoreDriver:               "sqlite",
		Environment:               EnvTesting,
		HTTPPort:                  8080,
		SQLitePath:                "",
		WatchIntervalMillis:       20,
		QueryRatePerMinute:        600,
		QueryRateBurst:            100,
		HealthProbeTimeoutSeconds: 1,
		HealthIntervalSeconds:     1,
	}
}

// IsTesting returns true if the environment is set to testing.
func (c *Config) IsTesting() bool { return c.Environment == EnvTesting }

// IsProduction returns true if the environment is set to production.
func (c *Config) IsProduction() bool { return c.Environment == EnvProduction }

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string { return fmt.Sprintf(":%d", c.HTTPPort) }
