// Package config models dayplan.yml, the client-side configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models dayplan.yml.
type Config struct {
	API struct {
		// BaseURL of the task API, e.g. http://localhost:8000.
		BaseURL string `yaml:"base_url"`
	} `yaml:"api"`
	AI struct {
		Provider string `yaml:"provider"`
		APIKey   string `yaml:"api_key"`
		BaseURL  string `yaml:"base_url"`
		Model    string `yaml:"model"`
	} `yaml:"ai"`
	Server struct {
		Addr     string `yaml:"addr"`
		TokenTTL string `yaml:"token_ttl"`
	} `yaml:"server"`
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "dayplan.yml")
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("config.api.base_url is required")
	}
	switch c.AI.Provider {
	case "", "openai", "deepseek", "siliconflow":
	default:
		return fmt.Errorf("config.ai.provider %q is not supported", c.AI.Provider)
	}
	return nil
}

// Default returns the default Config.
func Default() *Config {
	var cfg Config
	cfg.API.BaseURL = "http://localhost:8000"
	cfg.AI.Provider = "openai"
	cfg.Server.Addr = ":8000"
	return &cfg
}

// GenerateDefault returns default config YAML for dayplan init.
func GenerateDefault() string {
	return defaultTemplate
}

const defaultTemplate = `api:
  base_url: http://localhost:8000

ai:
  provider: openai
  # api_key can also come from DAYPLAN_AI_API_KEY
  api_key: ""
  model: ""

server:
  addr: ":8000"
  token_ttl: 168h
`
