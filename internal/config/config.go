// Package config holds the persistent tool configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the persistent application configuration. Environment variables
// override whatever the file says.
type Config struct {
	APIKey    string `json:"api_key,omitempty" env:"OCWATCH_API_KEY"`
	FactionID string `json:"faction_id,omitempty" env:"OCWATCH_FACTION_ID"`
	DBPath    string `json:"db_path,omitempty" env:"OCWATCH_DB"`

	Backfill BackfillConfig `json:"backfill"`
}

// BackfillConfig holds the pagination tunables.
type BackfillConfig struct {
	MaxCount          int `json:"max_count" env:"OCWATCH_MAX_COUNT"`
	DelaySeconds      int `json:"delay_seconds" env:"OCWATCH_DELAY_SECONDS"`
	RequestsPerMinute int `json:"requests_per_minute" env:"OCWATCH_RPM"`
}

// Delay returns the inter-request delay as a duration.
func (b BackfillConfig) Delay() time.Duration {
	return time.Duration(b.DelaySeconds) * time.Second
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Backfill: BackfillConfig{
			MaxCount:          100,
			DelaySeconds:      5,
			RequestsPerMinute: 10,
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".ocwatch", "config.json")
}

// DefaultDBPath is where the sqlite store lives when OCWATCH_DB is unset.
func DefaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".ocwatch", "ocwatch.db")
}

// Load reads config from disk, or returns defaults. Environment overrides
// are applied last so they win over the file.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse %s: %w", ConfigPath(), err)
		}
	case os.IsNotExist(err):
		// fresh install, defaults apply
	default:
		return nil, fmt.Errorf("config: failed to read %s: %w", ConfigPath(), err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment: %w", err)
	}
	// TORN_API_KEY is the conventional name other Torn tooling uses
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("TORN_API_KEY")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath()
	}
	return cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	path := ConfigPath()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: failed to create %s: %w", filepath.Dir(path), err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: failed to marshal: %w", err)
	}

	// Restrictive permissions for the API key
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	return nil
}
