package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DBPath      string `yaml:"db_path"`
	User        string `yaml:"user"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	LogFile     string `yaml:"log_file"`
	HTTPAddr    string `yaml:"http_addr"`
	LexiconPath string `yaml:"lexicon_path"`

	Analysis   AnalysisConfig   `yaml:"analysis"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
}

type AnalysisConfig struct {
	Workers    int `yaml:"workers"`
	QueueSize  int `yaml:"queue_size"`
	ThemeCount int `yaml:"theme_count"`
}

type EnrichmentConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Model           string        `yaml:"model"`
	APIKey          string        `yaml:"api_key"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
}

func Default() Config {
	return Config{
		User:      "default",
		LogLevel:  "info",
		LogFormat: "text",
		HTTPAddr:  "127.0.0.1:8080",
		Analysis: AnalysisConfig{
			Workers:    2,
			QueueSize:  64,
			ThemeCount: 5,
		},
		Enrichment: EnrichmentConfig{
			Model:           "gpt-5-mini",
			Timeout:         20 * time.Second,
			MaxOutputTokens: 800,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.User) == "" {
		return errors.New("user must not be empty")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	if c.Analysis.Workers < 1 {
		return errors.New("analysis.workers must be >= 1")
	}
	if c.Analysis.QueueSize < 0 {
		return errors.New("analysis.queue_size must be >= 0")
	}
	if c.Analysis.ThemeCount < 1 {
		return errors.New("analysis.theme_count must be >= 1")
	}
	if c.Enrichment.Enabled {
		if c.Enrichment.Model == "" {
			return errors.New("enrichment.model is required when enrichment is enabled")
		}
		if c.Enrichment.APIKey == "" {
			return errors.New("enrichment.api_key (or OPENAI_API_KEY) is required when enrichment is enabled")
		}
	}
	if c.Enrichment.Timeout < 0 {
		return errors.New("enrichment.timeout must be >= 0")
	}
	return nil
}

// DefaultPath returns ~/.config/inkwell/config.yaml
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "inkwell", "config.yaml"), nil
}

// Load reads the YAML file at path on top of the defaults. A missing file is
// not an error. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("INKWELL_DB"); v != "" {
		c.DBPath = v
	}
	if v := getenv("INKWELL_USER"); v != "" {
		c.User = v
	}
	if v := getenv("INKWELL_ADDR"); v != "" {
		c.HTTPAddr = v
	}
	if v := getenv("INKWELL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("OPENAI_API_KEY"); v != "" && c.Enrichment.APIKey == "" {
		c.Enrichment.APIKey = v
	}
}

// Save writes cfg as YAML, creating the parent directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
