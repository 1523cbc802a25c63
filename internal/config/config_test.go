package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 {
		t.Fatalf("got port %d, want default 9090", cfg.Port)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"port":9191,"log_format":"json"}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9191 {
		t.Fatalf("got port %d, want 9191", cfg.Port)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("got log format %q, want json", cfg.LogFormat)
	}
}

func TestValidateRepairsInvalidFields(t *testing.T) {
	cfg := &Config{Port: -1, RelayPort: 0, LogFormat: "yaml", LogLevel: "verbose"}
	cfg.Validate()

	if cfg.Port != 9090 || cfg.RelayPort != 47893 || cfg.LogFormat != "text" || cfg.LogLevel != "info" {
		t.Fatalf("got %+v, want repaired defaults", cfg)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"data_dir":"/from/file"}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CLAUDEVIEW_DATA_DIR", "/from/env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/from/env" {
		t.Fatalf("got data dir %q, want /from/env", cfg.DataDir)
	}
}
