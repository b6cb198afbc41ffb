package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Analysis.ThemeCount != 5 {
		t.Fatalf("expected default theme count, got %d", cfg.Analysis.ThemeCount)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
user: ada
log_format: json
analysis:
  workers: 4
  theme_count: 3
enrichment:
  enabled: true
  model: gpt-test
  api_key: sk-test
  timeout: 5s
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.User != "ada" || cfg.LogFormat != "json" {
		t.Fatalf("unexpected top-level values: %+v", cfg)
	}
	if cfg.Analysis.Workers != 4 || cfg.Analysis.ThemeCount != 3 {
		t.Fatalf("unexpected analysis values: %+v", cfg.Analysis)
	}
	// Unset keys keep their defaults.
	if cfg.Analysis.QueueSize != 64 {
		t.Fatalf("expected default queue size, got %d", cfg.Analysis.QueueSize)
	}
	if cfg.Enrichment.Timeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %v", cfg.Enrichment.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("user: [unclosed"), 0o644)
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"INKWELL_DB":     "/tmp/x.db",
		"INKWELL_USER":   "grace",
		"OPENAI_API_KEY": "sk-env",
	}
	cfg := Default()
	cfg.applyEnv(func(k string) string { return env[k] })

	if cfg.DBPath != "/tmp/x.db" || cfg.User != "grace" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.Enrichment.APIKey != "sk-env" {
		t.Fatalf("expected api key from env, got %q", cfg.Enrichment.APIKey)
	}

	// A key set in the file wins over the environment.
	cfg = Default()
	cfg.Enrichment.APIKey = "sk-file"
	cfg.applyEnv(func(k string) string { return env[k] })
	if cfg.Enrichment.APIKey != "sk-file" {
		t.Fatalf("file api key should win, got %q", cfg.Enrichment.APIKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty user", func(c *Config) { c.User = " " }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
		{"no workers", func(c *Config) { c.Analysis.Workers = 0 }},
		{"negative queue", func(c *Config) { c.Analysis.QueueSize = -1 }},
		{"zero themes", func(c *Config) { c.Analysis.ThemeCount = 0 }},
		{"enrichment without key", func(c *Config) { c.Enrichment.Enabled = true }},
		{"enrichment without model", func(c *Config) {
			c.Enrichment.Enabled = true
			c.Enrichment.APIKey = "k"
			c.Enrichment.Model = ""
		}},
	}
	for _, tt := range tests {
		cfg := Default()
		tt.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tt.name)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.User = "linus"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.User != "linus" {
		t.Fatalf("expected saved user, got %q", got.User)
	}
}
