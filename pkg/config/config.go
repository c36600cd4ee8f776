package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App       AppConfig                 `yaml:"app"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Notifiers map[string]NotifierConfig `yaml:"notifiers"`
	Memory    MemoryConfig              `yaml:"memory"`
	Runner    RunnerConfig              `yaml:"runner"`
	Prompts   PromptsConfig             `yaml:"prompts"`
}

type AppConfig struct {
	Name      string `yaml:"name"`
	Workspace string `yaml:"workspace"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url,omitempty"`
	Enabled bool   `yaml:"enabled"`
}

type NotifierConfig struct {
	Token     string `yaml:"token"`
	ChatID    string `yaml:"chat_id,omitempty"`
	ChannelID string `yaml:"channel_id,omitempty"`
	Enabled   bool   `yaml:"enabled"`
}

type MemoryConfig struct {
	Path string `yaml:"path"`
}

type RunnerConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
}

type PromptsConfig struct {
	Directory string `yaml:"directory"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if cfg.App.Workspace == "" {
		cfg.App.Workspace = "./workspace"
	}
	if cfg.Memory.Path == "" {
		cfg.Memory.Path = "sutra.db"
	}
	if cfg.Prompts.Directory == "" {
		cfg.Prompts.Directory = "./prompts"
	}

	return &cfg, nil
}

// GetDefaultProvider returns the first enabled provider
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	for name, p := range c.Providers {
		if p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

// GetNotifier returns the named notifier config if enabled
func (c *Config) GetNotifier(name string) (NotifierConfig, bool) {
	n, ok := c.Notifiers[name]
	if ok && n.Enabled {
		return n, true
	}
	return NotifierConfig{}, false
}
