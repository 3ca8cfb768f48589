package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vk/reportgrid/internal/cascade"
	"github.com/vk/reportgrid/internal/registry"
	"gopkg.in/yaml.v3"
)

// Backend selects the registered backend of one role and configures it.
type Backend struct {
	Type     string            `yaml:"type"`
	Settings registry.Settings `yaml:"settings"`
}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	LogFormat string `yaml:"log_format"`
	LogLevel  string `yaml:"log_level"`

	// Listen is the address of the HTTP surface. Empty disables it.
	Listen string `yaml:"listen"`
	// CDNRoot replaces ${CDN_ROOT_URL} in HTML templates.
	CDNRoot string `yaml:"cdn_root_url"`
	// Timeout bounds every collaborator call.
	Timeout time.Duration `yaml:"timeout"`
	// Workers bounds the triggers refreshed concurrently.
	Workers int `yaml:"workers"`

	HTTPClient  registry.Settings            `yaml:"http_client"`
	Definitions Backend                      `yaml:"definitions"`
	Queries     Backend                      `yaml:"queries"`
	References  Backend                      `yaml:"references"`
	Composer    Backend                      `yaml:"composer"`
	Delivery    Backend                      `yaml:"delivery"`
	Stores      map[string]registry.Settings `yaml:"stores"`
	// Source is the content-change intake. Nil disables the cascade intake.
	Source *Backend `yaml:"source"`
}

// DefaultConfig returns the configuration used for every unset field.
func DefaultConfig() Config {
	return Config{
		LogFormat:   "json",
		LogLevel:    "info",
		Timeout:     10 * time.Second,
		Workers:     cascade.DefaultWorkers,
		Definitions: Backend{Type: "file"},
		Queries:     Backend{Type: "sql"},
		References:  Backend{Type: "http"},
		Composer:    Backend{Type: "http"},
		Delivery:    Backend{Type: "http"},
	}
}

// LoadConfig reads the YAML file at path over the defaults, applies the
// environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	return NewConfig(cfg)
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("REPORTGRID_LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("CDN_ROOT_URL"); v != "" {
		c.CDNRoot = v
	}
	if v := os.Getenv("REPORTGRID_DSN"); v != "" {
		if c.Queries.Settings == nil {
			c.Queries.Settings = registry.Settings{}
		}
		c.Queries.Settings["dsn"] = v
	}
}

func NewConfig(cfg Config) (*Config, error) {
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log_format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log_level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	if cfg.Workers <= 0 {
		return nil, errors.New("workers must be positive")
	}
	if cfg.Timeout < 0 {
		return nil, errors.New("timeout cannot be negative")
	}
	roles := map[string]Backend{
		"definitions": cfg.Definitions,
		"queries":     cfg.Queries,
		"references":  cfg.References,
		"composer":    cfg.Composer,
		"delivery":    cfg.Delivery,
	}
	for role, b := range roles {
		if b.Type == "" {
			return nil, fmt.Errorf("%s.type is a required configuration field and cannot be empty", role)
		}
	}
	if cfg.Source != nil && cfg.Source.Type == "" {
		return nil, errors.New("source.type cannot be empty when a source is configured")
	}
	return &cfg, nil
}
