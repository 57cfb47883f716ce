package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero chunk size", func(c *Config) { c.Processing.ChunkSize = 0 }, "chunk_size"},
		{"negative overlap", func(c *Config) { c.Processing.ChunkOverlap = -1 }, "chunk_overlap"},
		{"overlap >= size", func(c *Config) { c.Processing.ChunkOverlap = c.Processing.ChunkSize }, "chunk_overlap"},
		{"zero batch", func(c *Config) { c.Processing.BatchSize = 0 }, "batch_size"},
		{"alpha too low", func(c *Config) { c.Search.Alpha = -0.1 }, "alpha"},
		{"alpha too high", func(c *Config) { c.Search.Alpha = 1.5 }, "alpha"},
		{"zero top_k", func(c *Config) { c.Search.TopK = 0 }, "top_k"},
		{"zero candidates", func(c *Config) { c.Search.Candidates = 0 }, "candidates"},
		{"zero dimension", func(c *Config) { c.Embeddings.Dimension = 0 }, "dimension"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
