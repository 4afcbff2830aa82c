package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// Config holds the configuration for the discovery engine.
// Environment variables are parsed from the REPLYSCOUT_ prefix,
// e.g. REPLYSCOUT_HTTP_PORT, REPLYSCOUT_POSTGRES_DSN.
type Config struct {
	// Build target selects the high-level environment: local, cloud-dev, cloud
	BuildTarget string `envconfig:"BUILD_TARGET" default:"local"`

	// Derived or override driver
	DBDriver string `envconfig:"DB_DRIVER" default:"auto"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Postgres Configuration
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// SQLite Configuration
	SQLitePath string `envconfig:"SQLITE_PATH" default:"data/replyscout.db"`

	// Platform adapter selection (must be registered in the binary).
	// The default noop adapter discovers nothing but keeps the engine
	// runnable without platform credentials.
	Adapter string `envconfig:"ADAPTER" default:"noop"`

	// Discovery tuning
	DiscoveryLimit int           `envconfig:"DISCOVERY_LIMIT" default:"50"`
	LookbackWindow time.Duration `envconfig:"LOOKBACK_WINDOW" default:"24h"`
	OpportunityTTL time.Duration `envconfig:"OPPORTUNITY_TTL" default:"48h"`

	// Expiry sweeper
	SweepInterval  time.Duration `envconfig:"SWEEP_INTERVAL" default:"10m"`
	SweepBatchSize int           `envconfig:"SWEEP_BATCH_SIZE" default:"500"`
}

// ResolveDefaults validates BuildTarget and derives DBDriver when set to
// "auto" or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDB string

	switch c.BuildTarget {
	case "local":
		defaultDB = "sqlite"
	case "cloud-dev", "cloud":
		defaultDB = "postgres"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}

	allowedDB := map[string]bool{"postgres": true, "sqlite": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN required for postgres driver")
	}
	if c.DiscoveryLimit <= 0 {
		return fmt.Errorf("DISCOVERY_LIMIT must be positive")
	}
	if c.OpportunityTTL <= 0 {
		return fmt.Errorf("OPPORTUNITY_TTL must be positive")
	}
	return nil
}

// New creates a Config by parsing environment variables and logs the
// resolved values through the caller's logger.
func New(log zerolog.Logger) (*Config, error) {
	var cfg Config

	if err := envconfig.Process("REPLYSCOUT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Int("discovery_limit", cfg.DiscoveryLimit).
		Dur("lookback_window", cfg.LookbackWindow).
		Dur("opportunity_ttl", cfg.OpportunityTTL).
		Dur("sweep_interval", cfg.SweepInterval).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config with sane defaults for tests.
func NewForTesting() *Config {
	cfg := &Config{
		BuildTarget:    "local",
		DBDriver:       "auto",
		HTTPPort:       8080,
		SQLitePath:     "",
		Adapter:        "noop",
		DiscoveryLimit: 50,
		LookbackWindow: 24 * time.Hour,
		OpportunityTTL: 48 * time.Hour,
		SweepInterval:  10 * time.Minute,
		SweepBatchSize: 500,
	}
	if err := cfg.ResolveDefaults(); err != nil {
		panic(err)
	}
	return cfg
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
