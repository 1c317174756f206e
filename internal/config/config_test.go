package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
llm:
  provider: ollama
  model: llama3.1
retrieval:
  backend: qdrant
  slow_threshold: 750ms
  qdrant:
    collection: falcon
deals:
  static:
    - id: deal-1
      name: Project Falcon
      document_count: 12
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "llama3.1", cfg.LLM.Model)
	assert.Equal(t, 3, cfg.LLM.RetryAttempts)
	assert.Equal(t, "qdrant", cfg.Retrieval.Backend)
	assert.Equal(t, 750*time.Millisecond, cfg.Retrieval.SlowThreshold)
	assert.Equal(t, "falcon", cfg.Retrieval.Qdrant.Collection)
	assert.Equal(t, 6334, cfg.Retrieval.Qdrant.Port)
	require.Len(t, cfg.Deals.Static, 1)
	assert.Equal(t, 12, cfg.Deals.Static[0].DocumentCount)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DEALROOM_LLM_MODEL", "gpt-4o-mini")
	t.Setenv("DEALROOM_RETRIEVAL_BACKEND_NAME", "search")

	path := writeFile(t, t.TempDir(), "config.yaml", "mode: supervisor\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "search", cfg.Retrieval.BackendName)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromPaths_FirstExistingWins(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	local := writeFile(t, dir, "config.local.yaml", "llm:\n  model: local-model\n")
	shared := writeFile(t, dir, "config.yaml", "llm:\n  model: shared-model\n")

	cfg, err := LoadFromPaths(local, shared)
	require.NoError(t, err)
	assert.Equal(t, "local-model", cfg.LLM.Model)

	cfg, err = LoadFromPaths(filepath.Join(dir, "missing.yaml"), shared)
	require.NoError(t, err)
	assert.Equal(t, "shared-model", cfg.LLM.Model)
}

func TestLoadFromPaths_NoFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := LoadFromPaths(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().LLM.Model, cfg.LLM.Model)
	assert.Equal(t, 500*time.Millisecond, cfg.Retrieval.SlowThreshold)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.LLM.Model = "mistral"
	cfg.Retrieval.Timeout = 3 * time.Second

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mistral", loaded.LLM.Model)
	assert.Equal(t, 3*time.Second, loaded.Retrieval.Timeout)
	assert.Equal(t, cfg.Server, loaded.Server)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "bard" }, true},
		{"zero attempts", func(c *Config) { c.LLM.RetryAttempts = 0 }, true},
		{"unknown backend", func(c *Config) { c.Retrieval.Backend = "elastic" }, true},
		{"http without endpoint", func(c *Config) { c.Retrieval.Endpoint = "" }, true},
		{"qdrant without embedding", func(c *Config) {
			c.Retrieval.Backend = "qdrant"
			c.Retrieval.Embedding.Endpoint = ""
		}, true},
		{"static deal without id", func(c *Config) {
			c.Deals.Static = []StaticDeal{{Name: "x"}}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
