package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/recyclens/rag-service/internal/embedding"
	"github.com/recyclens/rag-service/internal/index"
	"github.com/recyclens/rag-service/internal/metrics"
	"github.com/recyclens/rag-service/internal/observability"
)

// DefaultTopK is how many neighbours each term query fetches. Every term gets
// a single query, so it is set well above a typical single-shot retrieval.
const DefaultTopK = 15

// EmbedderFactory builds the query embedder for an index built with model.
type EmbedderFactory func(model string, dimension int) (embedding.Embedder, error)

// EngineConfig holds retrieval engine settings.
type EngineConfig struct {
	IndexPath string
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	TopK      int

	// ConfiguredModel is the model new index builds use. A loaded index built
	// with a different model is logged; queries always use the index's model.
	ConfiguredModel string

	// NewEmbedder overrides how the query embedder is built. The default is an
	// OpenAI-compatible client using APIKey and BaseURL.
	NewEmbedder EmbedderFactory
}

// Engine owns the loaded index. It loads lazily on the first Retriever call
// and keeps the result for the life of the Engine; failed loads are retried
// on the next call.
type Engine struct {
	cfg     EngineConfig
	logger  *observability.Logger
	metrics *metrics.Metrics

	mu    sync.Mutex
	state atomic.Pointer[engineState]
	loads atomic.Int64
}

type engineState struct {
	index     *index.Index
	adapter   *FlatIndex
	embedder  embedding.Embedder
	retriever Retriever
	loadedAt  time.Time
}

// EngineStatus describes the engine for health and debug endpoints.
type EngineStatus struct {
	IndexPath      string
	IndexExists    bool
	CredentialSet  bool
	Loaded         bool
	NodeCount      int
	EmbeddingModel string
	Fingerprint    string
	LoadedAt       time.Time
}

// NewEngine creates an engine. Nothing is read from disk until first use.
func NewEngine(cfg EngineConfig, logger *observability.Logger, m *metrics.Metrics) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.NewEmbedder == nil {
		cfg.NewEmbedder = func(model string, dimension int) (embedding.Embedder, error) {
			return embedding.NewClient(embedding.Config{
				APIKey:    cfg.APIKey,
				Model:     model,
				BaseURL:   cfg.BaseURL,
				Dimension: dimension,
				Timeout:   cfg.Timeout,
			})
		}
	}
	return &Engine{cfg: cfg, logger: logger.WithOperation("index_load"), metrics: m}
}

// Retriever returns the shared retriever, loading the index on first use.
func (e *Engine) Retriever(ctx context.Context) (Retriever, error) {
	if s := e.state.Load(); s != nil {
		return s.retriever, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if s := e.state.Load(); s != nil {
		return s.retriever, nil
	}

	s, err := e.load(ctx)
	e.metrics.ObserveIndexLoad(err, nodeCount(s))
	if err != nil {
		return nil, err
	}
	e.state.Store(s)
	return s.retriever, nil
}

func (e *Engine) load(ctx context.Context) (*engineState, error) {
	e.loads.Add(1)

	if e.cfg.APIKey == "" {
		return nil, ErrMissingCredential
	}

	if !index.Exists(e.cfg.IndexPath) {
		return nil, fmt.Errorf("%w at %s", ErrIndexNotFound, e.cfg.IndexPath)
	}

	start := time.Now()
	idx, err := index.Load(ctx, e.cfg.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailure, err)
	}

	if m := e.cfg.ConfiguredModel; m != "" && m != idx.Manifest.EmbeddingModel {
		e.logger.Warn().
			Str("index_model", idx.Manifest.EmbeddingModel).
			Str("configured_model", m).
			Msg("Index was built with a different embedding model; rebuild it to switch models")
	}

	embedder, err := e.cfg.NewEmbedder(idx.Manifest.EmbeddingModel, idx.Manifest.Dimension)
	if errors.Is(err, embedding.ErrMissingAPIKey) {
		return nil, ErrMissingCredential
	}
	if err != nil {
		return nil, fmt.Errorf("%w: create embedder: %w", ErrLoadFailure, err)
	}

	adapter := NewFlatIndex(idx.Manifest.Dimension)
	entries := make([]VectorEntry, len(idx.Nodes))
	for i, n := range idx.Nodes {
		entries[i] = VectorEntry{ID: n.ID, Vector: n.Embedding, Text: n.Text, Metadata: n.Metadata}
	}
	if err := adapter.Insert(ctx, entries); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailure, err)
	}

	e.logger.Info().
		Str("path", e.cfg.IndexPath).
		Int("nodes", len(idx.Nodes)).
		Str("embedding_model", idx.Manifest.EmbeddingModel).
		Int("top_k", e.cfg.TopK).
		Dur("elapsed", time.Since(start)).
		Msg("Regulations index loaded")

	return &engineState{
		index:     idx,
		adapter:   adapter,
		embedder:  embedder,
		retriever: &vectorRetriever{embedder: embedder, adapter: adapter, topK: e.cfg.TopK},
		loadedAt:  time.Now(),
	}, nil
}

// Fingerprint identifies the loaded index build, or "" before a load.
func (e *Engine) Fingerprint() string {
	if s := e.state.Load(); s != nil {
		return s.index.Manifest.Fingerprint()
	}
	return ""
}

// IndexPath returns the configured index directory.
func (e *Engine) IndexPath() string {
	return e.cfg.IndexPath
}

// IndexExists reports whether the index directory is present, without loading it.
func (e *Engine) IndexExists() bool {
	return index.Exists(e.cfg.IndexPath)
}

// Status reports configuration and load state without triggering a load.
func (e *Engine) Status() EngineStatus {
	st := EngineStatus{
		IndexPath:     e.cfg.IndexPath,
		IndexExists:   e.IndexExists(),
		CredentialSet: e.cfg.APIKey != "",
	}
	if s := e.state.Load(); s != nil {
		st.Loaded = true
		st.NodeCount = len(s.index.Nodes)
		st.EmbeddingModel = s.embedder.Model()
		st.Fingerprint = s.index.Manifest.Fingerprint()
		st.LoadedAt = s.loadedAt
	}
	return st
}

func nodeCount(s *engineState) int {
	if s == nil {
		return 0
	}
	return len(s.index.Nodes)
}
