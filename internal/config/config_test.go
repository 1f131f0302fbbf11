package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Server.Port)
	assert.Equal(t, "rag_index_morechunked", cfg.Index.Path)
	assert.Equal(t, 15, cfg.Index.TopK)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, 30*time.Second, cfg.Client.Timeout)
}

func TestLoad_YAMLFileResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rag.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9100
index:
  path: data/index
  top_k: 20
corpus:
  docs_dir: /srv/docs
cache:
  driver: memory
  ttl: 1m
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, filepath.Join(dir, "data/index"), cfg.Index.Path)
	assert.Equal(t, 20, cfg.Index.TopK)
	assert.Equal(t, "/srv/docs", cfg.Corpus.DocsDir)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	// untouched sections keep their defaults
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedding.APIKeyEnv)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9300")
	t.Setenv("RAG_INDEX_PATH", "/opt/rag/index")
	t.Setenv("RAG_TOP_K", "12")
	t.Setenv("REDIS_URL", "redis://cache:6379")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RAG_TIMEOUT_MS", "1500")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9300, cfg.Server.Port)
	assert.Equal(t, "/opt/rag/index", cfg.Index.Path)
	assert.Equal(t, 12, cfg.Index.TopK)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "cache:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.Equal(t, 1500*time.Millisecond, cfg.Client.Timeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"empty index path", func(c *Config) { c.Index.Path = " " }, "index path is required"},
		{"top_k too large", func(c *Config) { c.Index.TopK = 500 }, "top_k"},
		{"overlap not below size", func(c *Config) { c.Corpus.ChunkOverlap = c.Corpus.ChunkSize }, "chunk_overlap"},
		{"unknown cache driver", func(c *Config) { c.Cache.Driver = "memcached" }, "invalid cache driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfig_EmbeddingAPIKey(t *testing.T) {
	cfg := DefaultConfig()

	t.Setenv("OPENAI_API_KEY", "  sk-test  ")
	assert.Equal(t, "sk-test", cfg.EmbeddingAPIKey())

	t.Setenv("OPENAI_API_KEY", "")
	assert.Empty(t, cfg.EmbeddingAPIKey())
}

func TestLoad_ExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "rag.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, filepath.Join("..", "..", "rag_index_morechunked"), cfg.Index.Path)
}
