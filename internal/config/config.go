// Package config loads the indexer/server/relay's settings from a JSON
// file with environment variable overrides, following the teacher's
// loadConfig() (main.go) generalized into the Default()+Validate()
// shape forge's internal/config/config.go uses for a larger settings
// surface.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration for claudeview-server.
type Config struct {
	Port          int           `json:"port"`
	DataDir       string        `json:"data_dir"`       // where ~/.claude session transcripts live
	CatalogPath   string        `json:"catalog_path"`   // sqlite file path
	SearchIndexDir string       `json:"search_index_dir"`
	WatchInterval time.Duration `json:"watch_interval"` // not read by any binary; watch mode is fsnotify-only, with no polling fallback
	LogFormat     string        `json:"log_format"`     // "text" or "json"
	LogLevel      string        `json:"log_level"`      // "debug", "info", "warn", "error"
	RelayPort     int           `json:"relay_port"`
}

// Default returns the built-in configuration, used whenever no config
// file is present or a field is left unset.
func Default() *Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".claudeview")
	return &Config{
		Port:           9090,
		DataDir:        filepath.Join(home, ".claude", "projects"),
		CatalogPath:    filepath.Join(base, "catalog.db"),
		SearchIndexDir: filepath.Join(base, "search.bleve"),
		WatchInterval:  0,
		LogFormat:      "text",
		LogLevel:       "info",
		RelayPort:      47893,
	}
}

// ConfigPath returns the default settings file location,
// $HOME/.claudeview/config.json, overridable via CLAUDEVIEW_CONFIG.
func ConfigPath() string {
	if p := os.Getenv("CLAUDEVIEW_CONFIG"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claudeview", "config.json")
}

// Load reads path (falling back to Default() entirely if the file is
// absent, matching the teacher's tolerant loadConfig), then applies any
// CLAUDEVIEW_* environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(cfg)
			cfg.Validate()
			return cfg, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	cfg.Validate()
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CLAUDEVIEW_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("CLAUDEVIEW_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CLAUDEVIEW_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
}

// Validate clamps fields that would otherwise put the server in a
// nonsensical state, matching forge's Validate()'s repair-don't-reject
// posture for a settings file a user may hand-edit.
func (c *Config) Validate() error {
	if c.Port <= 0 {
		c.Port = 9090
	}
	if c.RelayPort <= 0 {
		c.RelayPort = 47893
	}
	if c.LogFormat != "json" {
		c.LogFormat = "text"
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = "info"
	}
	return nil
}
