package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/mealplanner/internal/common"
)

// Config holds runtime settings for the meal planner client.
//
// Units: intervals are time.Duration values (flags take seconds).
type Config struct {
	// DatabasePath is the SQLite file of the local store.
	DatabasePath string
	// RemoteDSN is the Postgres connection string of the hosted backend.
	// Empty runs the client without a remote.
	RemoteDSN string
	// HealthEndpoint is an optional host:port serving grpc.health.v1.
	HealthEndpoint string

	OnlineCheckInterval time.Duration
	SyncInterval        time.Duration
	MaxRetries          int

	// BaseURL prefixes share links.
	BaseURL string

	ExportBucket    string
	ExportRegion    string
	ExportEndpoint  string
	ExportAccessKey string
	ExportSecretKey string

	LogLevel string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "data/mealplanner.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.SyncInterval = 30 * time.Second
	c.MaxRetries = common.MaxSyncRetries
	c.BaseURL = "http://localhost:3000"
	c.ExportRegion = "us-east-1"
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)

	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	if c.OnlineCheckInterval <= 0 {
		return fmt.Errorf("online check interval must be positive, got %s", c.OnlineCheckInterval)
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync interval must be positive, got %s", c.SyncInterval)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1, got %d", c.MaxRetries)
	}
	return nil
}
