// Package config loads application configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr" envconfig:"WEBOPS_SERVER_ADDR"`
}

// BrowserConfig holds browser automation configuration.
type BrowserConfig struct {
	Headless    *bool `yaml:"headless" envconfig:"WEBOPS_BROWSER_HEADLESS"`
	MaxSessions int   `yaml:"max_sessions" envconfig:"WEBOPS_BROWSER_MAX_SESSIONS"`
}

// LLMConfig holds model provider configuration. APIKey falls back to
// OPENAI_API_KEY when empty, handled by the provider itself.
type LLMConfig struct {
	APIKey  string `yaml:"api_key" envconfig:"WEBOPS_LLM_API_KEY"`
	BaseURL string `yaml:"base_url" envconfig:"WEBOPS_LLM_BASE_URL"`
	Model   string `yaml:"model" envconfig:"WEBOPS_LLM_MODEL"`
}

// StoreConfig holds persistence configuration. Secret seals stored
// credentials and must remain stable across restarts.
type StoreConfig struct {
	Path   string `yaml:"path" envconfig:"WEBOPS_STORE_PATH"`
	Secret string `yaml:"secret" envconfig:"WEBOPS_STORE_SECRET"`
}

// Config is the root application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Browser BrowserConfig `yaml:"browser"`
	LLM     LLMConfig     `yaml:"llm"`
	Store   StoreConfig   `yaml:"store"`
}

// Headless reports whether the browser should run headless. Defaults to
// true when unset.
func (c *Config) Headless() bool {
	if c.Browser.Headless == nil {
		return true
	}
	return *c.Browser.Headless
}

// DefaultPath returns the default config file location (~/.webops/config.yaml).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".webops", "config.yaml")
}

// Load reads the config file at path (skipped if it does not exist), then
// applies WEBOPS_* environment overrides on top, then fills remaining
// defaults. Precedence: env over file over defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8420"
	}
	if cfg.Browser.MaxSessions == 0 {
		cfg.Browser.MaxSessions = 10
	}
	if cfg.Store.Path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.Store.Path = filepath.Join(home, ".webops", "webops.db")
	}

	return &cfg, nil
}
