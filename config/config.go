// Package config holds application configuration loaded from
// ~/.clarion/config.yaml, with validated defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	Database struct {
		ConnectionString string `yaml:"connection_string"`
	} `yaml:"database"`
	Ollama struct {
		BaseURL   string `yaml:"base_url"`
		ChatModel string `yaml:"chat_model"`
	} `yaml:"ollama"`
	Embeddings struct {
		Model     string `yaml:"model"`
		Dimension int    `yaml:"dimension"`
	} `yaml:"embeddings"`
	Processing struct {
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
		BatchSize    int `yaml:"batch_size"`
	} `yaml:"processing"`
	Search struct {
		Alpha      float64 `yaml:"alpha"`
		TopK       int     `yaml:"top_k"`
		Candidates int     `yaml:"candidates"`
	} `yaml:"search"`
}

// Load loads configuration from file or returns defaults. The result is
// always validated; an out-of-range field is rejected at load time.
func Load() (*Config, error) {
	cfg := Default()

	configPath := filepath.Join(os.Getenv("HOME"), ".clarion", "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config at %s: %w", configPath, err)
	}

	return cfg, nil
}

// Save writes the configuration to ~/.clarion/config.yaml.
func (c *Config) Save() error {
	configDir := filepath.Join(os.Getenv("HOME"), ".clarion")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0644)
}

// Validate rejects out-of-range tuning values with a named-field error.
func (c *Config) Validate() error {
	if c.Processing.ChunkSize <= 0 {
		return fmt.Errorf("processing.chunk_size must be positive, got %d", c.Processing.ChunkSize)
	}
	if c.Processing.ChunkOverlap < 0 || c.Processing.ChunkOverlap >= c.Processing.ChunkSize {
		return fmt.Errorf("processing.chunk_overlap must be in [0, chunk_size), got %d", c.Processing.ChunkOverlap)
	}
	if c.Processing.BatchSize < 1 {
		return fmt.Errorf("processing.batch_size must be at least 1, got %d", c.Processing.BatchSize)
	}
	if c.Search.Alpha < 0 || c.Search.Alpha > 1 {
		return fmt.Errorf("search.alpha must be in [0,1], got %g", c.Search.Alpha)
	}
	if c.Search.TopK < 1 {
		return fmt.Errorf("search.top_k must be at least 1, got %d", c.Search.TopK)
	}
	if c.Search.Candidates < 1 {
		return fmt.Errorf("search.candidates must be at least 1, got %d", c.Search.Candidates)
	}
	if c.Embeddings.Dimension <= 0 {
		return fmt.Errorf("embeddings.dimension must be positive, got %d", c.Embeddings.Dimension)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	cfg := &Config{}

	cfg.Database.ConnectionString = "postgres://postgres@localhost/postgres?sslmode=disable"
	cfg.Ollama.BaseURL = "http://localhost:11434"
	cfg.Ollama.ChatModel = ""
	cfg.Embeddings.Model = "nomic-embed-text"
	cfg.Embeddings.Dimension = 768
	cfg.Processing.ChunkSize = 1000
	cfg.Processing.ChunkOverlap = 0
	cfg.Processing.BatchSize = 8
	cfg.Search.Alpha = 0.5
	cfg.Search.TopK = 5
	cfg.Search.Candidates = 20

	return cfg
}
