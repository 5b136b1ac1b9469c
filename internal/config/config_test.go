package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, 500, cfg.Chunking.Size)
	assert.Equal(t, 50, cfg.Chunking.Overlap)
	assert.Equal(t, "ollama", cfg.Provider.Type)
	assert.Equal(t, "llama3.2", cfg.Generation.Model)
	assert.InDelta(t, 0.1, cfg.Generation.Temperature, 1e-9)
	assert.Equal(t, 3, cfg.Generation.TopK)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_PartialFileKeepsDefaultsForUnset(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
provider:
  type: openai
  embed_model: text-embedding-3-small
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "openai", cfg.Provider.Type)
	assert.Equal(t, 500, cfg.Chunking.Size)
	assert.Equal(t, "llama3.2", cfg.Generation.Model)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"overlap >= size", "chunking:\n  size: 10\n  overlap: 10\n"},
		{"unknown provider", "provider:\n  type: anthropic\n"},
		{"temperature out of range", "generation:\n  model: m\n  temperature: 1.5\n  top_k: 3\n"},
		{"garbled yaml", "chunking: [not a map\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			require.Error(t, err)
		})
	}
}

func TestAPIKey_ResolvesFromEnvironment(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	// Ollama needs no key.
	assert.Empty(t, cfg.APIKey())

	cfg.Provider.Type = "openai"
	t.Setenv("OPENAI_API_KEY", "sk-test")
	assert.Equal(t, "sk-test", cfg.APIKey())

	cfg.Provider.APIKeyEnv = "CUSTOM_KEY"
	t.Setenv("CUSTOM_KEY", "custom-secret")
	assert.Equal(t, "custom-secret", cfg.APIKey())
}
