package retrieval

import (
	"context"
	"fmt"

	"github.com/recyclens/rag-service/internal/embedding"
)

// Retriever returns the nodes most similar to a query string, best first.
// An empty result is not an error.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]RankedNode, error)
}

// RetrieverFunc adapts a function to Retriever.
type RetrieverFunc func(ctx context.Context, query string) ([]RankedNode, error)

// Retrieve calls f.
func (f RetrieverFunc) Retrieve(ctx context.Context, query string) ([]RankedNode, error) {
	return f(ctx, query)
}

// vectorRetriever embeds the query and searches a vector adapter.
type vectorRetriever struct {
	embedder embedding.Embedder
	adapter  VectorAdapter
	topK     int
}

func (r *vectorRetriever) Retrieve(ctx context.Context, query string) ([]RankedNode, error) {
	vec, err := r.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.adapter.Search(ctx, vec, r.topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	nodes := make([]RankedNode, len(hits))
	for i, h := range hits {
		nodes[i] = RankedNode{
			ID:       h.ID,
			Text:     h.Text,
			Score:    h.Score,
			Metadata: h.Metadata,
		}
	}
	return nodes, nil
}
