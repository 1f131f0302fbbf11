// Package bootstrap wires configuration into the components the service and
// CLI share.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/recyclens/rag-service/internal/cache"
	"github.com/recyclens/rag-service/internal/config"
	"github.com/recyclens/rag-service/internal/embedding"
	"github.com/recyclens/rag-service/internal/metrics"
	"github.com/recyclens/rag-service/internal/observability"
	"github.com/recyclens/rag-service/internal/retrieval"
)

// App is a fully wired regulations service.
type App struct {
	Config   *config.Config
	Logger   *observability.Logger
	Metrics  *metrics.Metrics
	Cache    cache.Client // nil when caching is disabled
	Outcomes *retrieval.OutcomeCache
	Engine   *retrieval.Engine
	Service  *retrieval.Service
}

// Options adjusts how New builds an App.
type Options struct {
	// Logger replaces the logger built from config.
	Logger *observability.Logger

	// NewEmbedder replaces the query embedder factory.
	NewEmbedder retrieval.EmbedderFactory
}

// New builds an App from cfg. Nothing touches the index until the first
// lookup. An unreachable Redis falls back to the in-memory cache.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(cfg)
	}

	m := metrics.New()

	client, err := newCacheClient(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var outcomes *retrieval.OutcomeCache
	if client != nil {
		outcomes = retrieval.NewOutcomeCache(client, cfg.Cache.TTL, logger, m)
	}

	engine := retrieval.NewEngine(retrieval.EngineConfig{
		IndexPath:       cfg.Index.Path,
		APIKey:          cfg.EmbeddingAPIKey(),
		BaseURL:         cfg.Embedding.BaseURL,
		Timeout:         cfg.Embedding.Timeout,
		TopK:            cfg.Index.TopK,
		ConfiguredModel: cfg.Embedding.Model,
		NewEmbedder:     opts.NewEmbedder,
	}, logger, m)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Metrics:  m,
		Cache:    client,
		Outcomes: outcomes,
		Engine:   engine,
		Service:  retrieval.NewService(logger, engine, outcomes, m),
	}, nil
}

// Close releases the cache connection.
func (a *App) Close() error {
	if a.Cache == nil {
		return nil
	}
	return a.Cache.Close()
}

// NewLogger builds the logger described by cfg.
func NewLogger(cfg *config.Config) *observability.Logger {
	return observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
}

// NewBuildEmbedder creates the embedder used to build an index, from the
// configured model and provider.
func NewBuildEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	client, err := embedding.NewClient(embedding.Config{
		APIKey:    cfg.EmbeddingAPIKey(),
		Model:     cfg.Embedding.Model,
		BaseURL:   cfg.Embedding.BaseURL,
		Dimension: cfg.Embedding.Dimension,
		Timeout:   cfg.Embedding.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}
	return client, nil
}

func newCacheClient(ctx context.Context, cfg *config.Config, logger *observability.Logger) (cache.Client, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}

	switch cfg.Cache.Driver {
	case "redis":
		client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Cache.Redis.Addr).Msg("Redis unavailable, using in-memory outcome cache")
			return cache.NewMemoryClient(cfg.Cache.MaxEntries), nil
		}
		logger.Info().Str("addr", cfg.Cache.Redis.Addr).Msg("Using Redis outcome cache")
		return client, nil
	case "memory", "":
		return cache.NewMemoryClient(cfg.Cache.MaxEntries), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
}
