// Package config loads the application configuration from YAML, applying
// defaults for anything unset. API keys are read from the environment, not
// the file.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// ChunkingConfig configures how documents are split.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// ProviderConfig selects the embedding/generation backend. Type is one of
// "ollama", "openai", "gemini".
type ProviderConfig struct {
	Type       string `yaml:"type"`
	BaseURL    string `yaml:"base_url"`
	APIKeyEnv  string `yaml:"api_key_env"`
	EmbedModel string `yaml:"embed_model"`
}

// GenerationConfig sets the default generation settings; callers may
// override them per query.
type GenerationConfig struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TopK        int     `yaml:"top_k"`
}

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	DataDir    string           `yaml:"data_dir"`
	WatchDir   string           `yaml:"watch_dir"` // empty disables the drop-folder watcher
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Provider   ProviderConfig   `yaml:"provider"`
	Generation GenerationConfig `yaml:"generation"`
	LogLevel   string           `yaml:"log_level"`
}

// Load reads a config from path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	applyDefaults(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// APIKey resolves the provider's API key from the environment.
func (c *Config) APIKey() string {
	env := c.Provider.APIKeyEnv
	if env == "" {
		switch c.Provider.Type {
		case "openai":
			env = "OPENAI_API_KEY"
		case "gemini":
			env = "GEMINI_API_KEY"
		default:
			return ""
		}
	}
	return os.Getenv(env)
}

func (c *Config) validate() error {
	if c.Chunking.Size <= 0 || c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("invalid chunking configuration: size=%d overlap=%d (need 0 <= overlap < size)",
			c.Chunking.Size, c.Chunking.Overlap)
	}
	switch c.Provider.Type {
	case "ollama", "openai", "gemini":
	default:
		return fmt.Errorf("unsupported provider type: %q", c.Provider.Type)
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 1 {
		return fmt.Errorf("generation temperature %v out of range [0,1]", c.Generation.Temperature)
	}
	if c.Generation.TopK < 1 {
		return fmt.Errorf("generation top_k must be >= 1, got %d", c.Generation.TopK)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8080"},
		DataDir:  "./data",
		Chunking: ChunkingConfig{Size: 500, Overlap: 50},
		Provider: ProviderConfig{Type: "ollama"},
		Generation: GenerationConfig{
			Model:       "llama3.2",
			Temperature: 0.1,
			MaxTokens:   400,
			TopK:        3,
		},
		LogLevel: "info",
	}
}

func applyDefaults(cfg *Config) {
	def := defaultConfig()
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.Chunking.Size == 0 {
		cfg.Chunking = def.Chunking
	}
	if cfg.Provider.Type == "" {
		cfg.Provider.Type = def.Provider.Type
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = def.Generation.Model
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = def.Generation.MaxTokens
	}
	if cfg.Generation.TopK == 0 {
		cfg.Generation.TopK = def.Generation.TopK
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
}
