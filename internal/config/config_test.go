package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Plan.Sequential != nil || cfg.Stats.Weeks != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[data]
db = "/tmp/custom.db"

[plan]
sequential = true

[stats]
weeks = 8
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Plan.Sequential == nil || !*cfg.Plan.Sequential {
		t.Fatalf("expected sequential=true")
	}
	if cfg.Stats.Weeks == nil || *cfg.Stats.Weeks != 8 {
		t.Fatalf("expected weeks=8, got %v", cfg.Stats.Weeks)
	}
	if cfg.Stats.Color != nil {
		t.Fatalf("expected color unset")
	}
	if got := cfg.DBPath(); got != "/tmp/custom.db" {
		t.Fatalf("unexpected db path %q", got)
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[plan]\nsequentail = true\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestDefaultPathsUseXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_CONFIG_HOME", "/conf")
	if got := DefaultDBPath(); got != filepath.Join("/data", "pacer", "pacer.db") {
		t.Fatalf("unexpected db path %q", got)
	}
	if got := DefaultConfigPath(); got != filepath.Join("/conf", "pacer", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := (FileConfig{}).DBPath(); got != DefaultDBPath() {
		t.Fatalf("expected default db path, got %q", got)
	}
}
