package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"ludex/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(config.DataDirEnv, t.TempDir())

	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Audit.MaxParallelism != 4 {
		t.Fatalf("expected default parallelism 4, got %d", cfg.Audit.MaxParallelism)
	}
	if cfg.Store.GateTimeoutSeconds != 10 {
		t.Fatalf("expected default gate timeout, got %d", cfg.Store.GateTimeoutSeconds)
	}
}

func TestLoadAppliesFileValues(t *testing.T) {
	t.Setenv(config.DataDirEnv, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
log_level = "debug"

[paths]
data_dir = "` + dir + `"

[audit]
max_parallelism = 2
api_delay_ms = 250
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected debug log level, got %q", cfg.LogLevel)
	}
	if cfg.Audit.MaxParallelism != 2 || cfg.Audit.APIDelayMs != 250 {
		t.Fatalf("unexpected audit config: %+v", cfg.Audit)
	}
	if cfg.Paths.DataDir != dir {
		t.Fatalf("expected data dir %s, got %s", dir, cfg.Paths.DataDir)
	}
}

func TestDataDirEnvOverride(t *testing.T) {
	override := t.TempDir()
	t.Setenv(config.DataDirEnv, override)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Paths.DataDir != override {
		t.Fatalf("expected env override %s, got %s", override, cfg.Paths.DataDir)
	}
	if cfg.DatabasePath() != filepath.Join(override, "linkstate.db") {
		t.Fatalf("unexpected database path %s", cfg.DatabasePath())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"empty data dir", func(c *config.Config) { c.Paths.DataDir = "" }},
		{"zero parallelism", func(c *config.Config) { c.Audit.MaxParallelism = 0 }},
		{"negative delay", func(c *config.Config) { c.Audit.APIDelayMs = -1 }},
		{"bad catalog url", func(c *config.Config) { c.Catalog.BaseURL = "::not-a-url" }},
		{"bad log format", func(c *config.Config) { c.LogFormat = "yaml" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.DataDir = t.TempDir()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when config already exists")
	}
}
