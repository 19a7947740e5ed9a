package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the catalog engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (the catalog token) must only come from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	// Catalog holds the remote catalog service connection settings.
	Catalog CatalogConfig `yaml:"catalog"`

	// Sync holds batch synchronization behavior.
	Sync SyncConfig `yaml:"sync"`

	// Lineage holds lineage query and export settings.
	Lineage LineageConfig `yaml:"lineage"`

	// SnapshotPath points at the local catalog snapshot YAML consumed by the
	// one-shot runner.
	SnapshotPath string `yaml:"snapshot_path" env:"SNAPSHOT_PATH" env-default:"snapshot.yaml"`
}

// CatalogConfig holds remote catalog service configuration.
type CatalogConfig struct {
	// Enabled selects the real client; when false every orchestrator runs
	// against the null client and reports skipped.
	Enabled bool   `yaml:"enabled" env:"CATALOG_ENABLED" env-default:"true"`
	BaseURL string `yaml:"base_url" env:"CATALOG_BASE_URL" env-default:""`
	Token   string `yaml:"-" env:"CATALOG_TOKEN"` // Secret - not in YAML

	// ServiceName is the database service entities are registered under.
	ServiceName string `yaml:"service_name" env:"CATALOG_SERVICE_NAME" env-default:"warehouse"`
	// ServiceType is the catalog-side service type of that service.
	ServiceType string `yaml:"service_type" env:"CATALOG_SERVICE_TYPE" env-default:"Postgres"`

	CallTimeoutSeconds   int `yaml:"call_timeout_seconds" env:"CATALOG_CALL_TIMEOUT_SECONDS" env-default:"15"`
	HealthTimeoutSeconds int `yaml:"health_timeout_seconds" env:"CATALOG_HEALTH_TIMEOUT_SECONDS" env-default:"5"`
}

// CallTimeout returns the per-call timeout as a duration.
func (c *CatalogConfig) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

// HealthTimeout returns the health probe timeout as a duration.
func (c *CatalogConfig) HealthTimeout() time.Duration {
	return time.Duration(c.HealthTimeoutSeconds) * time.Second
}

// SyncConfig holds batch synchronization settings.
type SyncConfig struct {
	// Workers is the worker pool size for batch sync operations.
	Workers int `yaml:"workers" env:"SYNC_WORKERS" env-default:"4"`
	// ForceUpdate pushes updates even when the diff engine found no changes.
	ForceUpdate bool `yaml:"force_update" env:"SYNC_FORCE_UPDATE" env-default:"false"`
	// MaxAuthFailures is how many authentication failures trip the batch
	// circuit breaker.
	MaxAuthFailures int `yaml:"max_auth_failures" env:"SYNC_MAX_AUTH_FAILURES" env-default:"3"`
	// MaxRetries bounds per-call retries against the catalog.
	MaxRetries int `yaml:"max_retries" env:"SYNC_MAX_RETRIES" env-default:"3"`
}

// LineageConfig holds lineage query and export settings.
type LineageConfig struct {
	// RootFQN is the entity the runner queries lineage for.
	RootFQN string `yaml:"root_fqn" env:"LINEAGE_ROOT_FQN" env-default:""`
	// Format is the export format: mermaid, json, dot or plantuml.
	Format          string `yaml:"format" env:"LINEAGE_FORMAT" env-default:"mermaid"`
	UpstreamDepth   int    `yaml:"upstream_depth" env:"LINEAGE_UPSTREAM_DEPTH" env-default:"3"`
	DownstreamDepth int    `yaml:"downstream_depth" env:"LINEAGE_DOWNSTREAM_DEPTH" env-default:"3"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. A missing config.yaml is not an error; the engine then runs on
// environment variables and defaults alone. The version parameter is
// injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Catalog.Enabled && c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url is required when the catalog integration is enabled")
	}
	if c.Sync.Workers < 1 {
		return fmt.Errorf("sync.workers must be at least 1")
	}
	if c.Catalog.CallTimeoutSeconds < 1 {
		return fmt.Errorf("catalog.call_timeout_seconds must be at least 1")
	}
	return nil
}
