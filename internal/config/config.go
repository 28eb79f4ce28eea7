// Package config loads dirge configuration from .dirge/config.yaml with
// defaults and DIRGE_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all dirge configuration.
type Config struct {
	// LLM provider settings, consumed by whichever concrete provider the
	// presentation layer wires in.
	LLM LLMConfig `yaml:"llm"`

	// Translation cache.
	Cache CacheConfig `yaml:"cache"`

	// Self-healing retry loop.
	Healing HealingConfig `yaml:"healing"`

	// Autonomous agent loop.
	Agent AgentConfig `yaml:"agent"`

	// Context window building.
	Context ContextConfig `yaml:"context"`

	// Categorized file logging.
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the language model provider.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// CacheConfig configures the content-addressed translation cache.
// Disabling the cache forces a permanent miss on every lookup.
type CacheConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Directory string `yaml:"directory"`
}

// HealingConfig configures the self-healing retry loop. Disabling healing
// collapses the loop to a single attempt.
type HealingConfig struct {
	Enabled    bool `yaml:"enabled"`
	MaxRetries int  `yaml:"max_retries"`
}

// AgentConfig configures agent run defaults, used when an agent() call
// omits its own limits.
type AgentConfig struct {
	MaxSteps int    `yaml:"max_steps"`
	Timeout  string `yaml:"timeout"`
	Strategy string `yaml:"strategy"`
}

// ContextConfig configures context window building.
type ContextConfig struct {
	// MaxTokens is the token budget for one context window.
	MaxTokens int `yaml:"max_tokens"`
	// DisassemblyCount is how many instructions the bridge is asked to
	// disassemble from the current PC.
	DisassemblyCount int `yaml:"disassembly_count"`
}

// LoggingConfig configures categorized file logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	Categories map[string]bool `yaml:"categories,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "anthropic",
			Model:    "claude-sonnet-4-20250514",
			Timeout:  "120s",
		},
		Cache: CacheConfig{
			Enabled:   true,
			Directory: filepath.Join(".dirge", "cache"),
		},
		Healing: HealingConfig{
			Enabled:    true,
			MaxRetries: 3,
		},
		Agent: AgentConfig{
			MaxSteps: 50,
			Timeout:  "300s",
			Strategy: "depth-first",
		},
		Context: ContextConfig{
			MaxTokens:        4096,
			DisassemblyCount: 20,
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load reads configuration from path, falling back to
// .dirge/config.yaml in the current directory, then to defaults when no
// file exists. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = filepath.Join(".dirge", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets DIRGE_* environment variables win over file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DIRGE_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("DIRGE_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("DIRGE_CACHE_DIR"); v != "" {
		cfg.Cache.Directory = v
	}
	if v := os.Getenv("DIRGE_CACHE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Cache.Enabled = b
		}
	}
	if v := os.Getenv("DIRGE_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Healing.MaxRetries = n
		}
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Healing.MaxRetries < 0 {
		return fmt.Errorf("healing.max_retries must be >= 0, got %d", c.Healing.MaxRetries)
	}
	if c.Agent.MaxSteps < 1 {
		return fmt.Errorf("agent.max_steps must be >= 1, got %d", c.Agent.MaxSteps)
	}
	if c.Context.MaxTokens < 1 {
		return fmt.Errorf("context.max_tokens must be >= 1, got %d", c.Context.MaxTokens)
	}
	switch c.Agent.Strategy {
	case "depth-first", "breadth-first", "hypothesis-driven":
	default:
		return fmt.Errorf("agent.strategy must be one of depth-first, breadth-first, hypothesis-driven; got %q", c.Agent.Strategy)
	}
	if _, err := c.AgentTimeout(); err != nil {
		return err
	}
	return nil
}

// AgentTimeout parses the agent timeout string.
func (c *Config) AgentTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Agent.Timeout)
	if err != nil {
		return 0, fmt.Errorf("agent.timeout: %w", err)
	}
	return d, nil
}

// LLMTimeout parses the provider timeout string.
func (c *Config) LLMTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 0, fmt.Errorf("llm.timeout: %w", err)
	}
	return d, nil
}
