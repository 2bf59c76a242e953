package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents runtime configuration for the service. It is loaded
// once at startup and treated as read-only afterwards.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Providers   map[string]ProviderConfig `json:"providers"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

type BasicConfig struct {
	ServerAddress         string `json:"server_address"`
	Provider              string `json:"provider"`
	MaxFileBytes          int64  `json:"max_file_bytes"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
	BatchTimeoutSeconds   int    `json:"batch_timeout_seconds"`
	MinWorkers            int    `json:"min_workers"`
	MaxWorkers            int    `json:"max_workers"`
	WorkerIdleTimeout     int    `json:"worker_idle_timeout"` // minutes
}

const (
	DefaultMaxFileBytes          = 50 << 20 // 50 MB
	DefaultRequestTimeoutSeconds = 60
	DefaultBatchTimeoutSeconds   = 600
	DefaultMinWorkers            = 2
	DefaultMaxWorkers            = 4
)

// API keys may come from the environment instead of the config file.
var credentialEnv = map[string]string{
	"openai": "OPENAI_API_KEY",
	"gemini": "GEMINI_API_KEY",
	"claude": "ANTHROPIC_API_KEY",
}

// Load reads configuration from the provided path (defaults to config.json),
// applies environment credential overrides and validates that everything a
// batch needs is present. A missing credential or model is a startup error,
// never a per-request one.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	for name, prov := range cfg.Providers {
		if envKey, ok := credentialEnv[name]; ok {
			if v := os.Getenv(envKey); v != "" {
				prov.APIKey = v
				cfg.Providers[name] = prov
			}
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	b := &c.BasicConfig
	if b.MaxFileBytes <= 0 {
		b.MaxFileBytes = DefaultMaxFileBytes
	}
	if b.RequestTimeoutSeconds <= 0 {
		b.RequestTimeoutSeconds = DefaultRequestTimeoutSeconds
	}
	if b.BatchTimeoutSeconds <= 0 {
		b.BatchTimeoutSeconds = DefaultBatchTimeoutSeconds
	}
	if b.MinWorkers <= 0 {
		b.MinWorkers = DefaultMinWorkers
	}
	if b.MaxWorkers < b.MinWorkers {
		b.MaxWorkers = b.MinWorkers
		if b.MaxWorkers < DefaultMaxWorkers {
			b.MaxWorkers = DefaultMaxWorkers
		}
	}
}

func (c *Config) validate() error {
	name := c.BasicConfig.Provider
	if name == "" {
		return fmt.Errorf("basic_config.provider must be configured")
	}
	prov, ok := c.Providers[name]
	if !ok {
		return fmt.Errorf("provider %q not configured", name)
	}
	if prov.Model == "" {
		return fmt.Errorf("provider %q: model must be configured", name)
	}
	if prov.APIKey == "" {
		envHint := credentialEnv[name]
		if envHint == "" {
			envHint = "the config file"
		}
		return fmt.Errorf("provider %q: api key missing (set it in the config file or %s)", name, envHint)
	}
	return nil
}

// Grading returns the provider entry selected for grading. Load has already
// verified it exists.
func (c *Config) Grading() ProviderConfig {
	return c.Providers[c.BasicConfig.Provider]
}
