package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recyclens/rag-service/internal/cache"
	"github.com/recyclens/rag-service/internal/config"
	"github.com/recyclens/rag-service/internal/observability"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Index.Path = filepath.Join(t.TempDir(), "missing_index")
	cfg.Embedding.APIKeyEnv = "RAG_BOOTSTRAP_TEST_KEY"
	return cfg
}

func TestNew_MemoryCache(t *testing.T) {
	app, err := New(context.Background(), testConfig(t), Options{Logger: observability.NopLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	assert.IsType(t, &cache.MemoryClient{}, app.Cache)
	assert.NotNil(t, app.Outcomes)
	assert.NotNil(t, app.Metrics)
	assert.False(t, app.Engine.Status().Loaded)
}

func TestNew_CacheDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Enabled = false

	app, err := New(context.Background(), cfg, Options{Logger: observability.NopLogger()})
	require.NoError(t, err)

	assert.Nil(t, app.Cache)
	assert.Nil(t, app.Outcomes)
	assert.NoError(t, app.Close())
}

func TestNew_UnreachableRedisFallsBackToMemory(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Driver = "redis"
	cfg.Cache.Redis.Addr = "127.0.0.1:1"

	app, err := New(context.Background(), cfg, Options{Logger: observability.NopLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	assert.IsType(t, &cache.MemoryClient{}, app.Cache)
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Driver = "memcached"

	_, err := New(context.Background(), cfg, Options{Logger: observability.NopLogger()})
	assert.Error(t, err)
}

func TestNew_ServiceFailsOpenWithoutIndex(t *testing.T) {
	t.Setenv("RAG_BOOTSTRAP_TEST_KEY", "sk-test")

	app, err := New(context.Background(), testConfig(t), Options{Logger: observability.NopLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	text, sources := app.Service.Query(context.Background(), "Battery", "Albany, NY", "", "")
	assert.Empty(t, text)
	assert.Empty(t, sources)
}

func TestNewBuildEmbedder_RequiresKey(t *testing.T) {
	t.Setenv("RAG_BOOTSTRAP_TEST_KEY", "")

	_, err := NewBuildEmbedder(testConfig(t))
	assert.Error(t, err)
}
