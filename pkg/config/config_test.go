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
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8997", cfg.Server.Address)
	assert.Equal(t, "ollama", cfg.Embedder.Type)
	assert.Equal(t, 768, cfg.Embedder.Dimension)
	assert.Equal(t, "ipea_series", cfg.VectorStore.Collection)
	assert.Equal(t, 10, cfg.RAG.Oversample)
	assert.Equal(t, 3000, cfg.RAG.ContextBudget)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":9000"
embedder:
  type: openai
  api_key: test-key
  dimension: 1536
vector_store:
  type: qdrant
  host: qdrant.local
llms:
  ollama:
    type: ollama
    model: llama3.2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, "openai", cfg.Embedder.Type)
	assert.Equal(t, "qdrant.local", cfg.VectorStore.Host)
	assert.Equal(t, 6334, cfg.VectorStore.Port)
	assert.Equal(t, "llama3.2", cfg.LLMs["ollama"].Model)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("SERIESHUB_TEST_KEY", "secret-from-env")

	path := writeConfig(t, `
embedder:
  type: openai
  api_key: ${SERIESHUB_TEST_KEY}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-from-env", cfg.Embedder.APIKey)
}

func TestExpandEnvVars_WithDefault(t *testing.T) {
	os.Unsetenv("SERIESHUB_MISSING_VAR")
	assert.Equal(t, "fallback", ExpandEnvVars("${SERIESHUB_MISSING_VAR:-fallback}"))

	t.Setenv("SERIESHUB_SET_VAR", "present")
	assert.Equal(t, "present", ExpandEnvVars("${SERIESHUB_SET_VAR:-fallback}"))
}

func TestLoad_InvalidEmbedderType(t *testing.T) {
	path := writeConfig(t, `
embedder:
  type: bogus
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
}

func TestLLMTypeDefaultsToMapKey(t *testing.T) {
	path := writeConfig(t, `
llms:
  ollama:
    model: llama3.2
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.LLMs["ollama"].Type)
}
