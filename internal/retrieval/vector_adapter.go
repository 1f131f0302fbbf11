package retrieval

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
)

// VectorAdapter is a nearest-neighbour index over embedded chunks.
type VectorAdapter interface {
	// Search returns up to k entries closest to query, best first.
	Search(ctx context.Context, query []float32, k int) ([]VectorResult, error)

	// Insert adds entries to the index. Re-inserting an ID replaces it.
	Insert(ctx context.Context, entries []VectorEntry) error

	// Count returns the number of entries in the index.
	Count(ctx context.Context) (int64, error)

	Close() error
}

// VectorEntry is a chunk to index.
type VectorEntry struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata map[string]string
}

// VectorResult is a search hit.
type VectorResult struct {
	ID       string
	Distance float32
	Score    float32 // 1 - distance
	Text     string
	Metadata map[string]string
}

// ErrVectorDimensionMismatch indicates a vector of the wrong length.
var ErrVectorDimensionMismatch = errors.New("vector dimension mismatch")

// FlatIndex is an exact cosine-similarity index held in memory. Ties keep
// insertion order, so results are deterministic for a given load.
type FlatIndex struct {
	mu        sync.RWMutex
	dimension int
	entries   []indexedVector
	positions map[string]int
}

type indexedVector struct {
	entry  VectorEntry
	vector []float32
}

// NewFlatIndex creates an empty index. A dimension of 0 is fixed by the first
// inserted vector.
func NewFlatIndex(dimension int) *FlatIndex {
	return &FlatIndex{
		dimension: dimension,
		positions: make(map[string]int),
	}
}

// Search scans every entry and returns the k nearest by cosine distance.
func (f *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]VectorResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.entries) == 0 || k <= 0 {
		return []VectorResult{}, nil
	}
	if len(query) != f.dimension {
		return nil, fmt.Errorf("%w: index has %d, query has %d", ErrVectorDimensionMismatch, f.dimension, len(query))
	}

	q := normalizeVector(query)

	type scored struct {
		pos      int
		distance float32
	}
	results := make([]scored, len(f.entries))
	for i, iv := range f.entries {
		results[i] = scored{pos: i, distance: cosineDistance(q, iv.vector)}
	}

	slices.SortStableFunc(results, func(a, b scored) int {
		return cmp.Compare(a.distance, b.distance)
	})

	k = min(k, len(results))
	out := make([]VectorResult, k)
	for i := 0; i < k; i++ {
		e := f.entries[results[i].pos].entry
		out[i] = VectorResult{
			ID:       e.ID,
			Distance: results[i].distance,
			Score:    1 - results[i].distance,
			Text:     e.Text,
			Metadata: e.Metadata,
		}
	}

	return out, nil
}

// Insert adds entries, normalising their vectors. Entries with empty vectors
// are skipped.
func (f *FlatIndex) Insert(_ context.Context, entries []VectorEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, e := range entries {
		if len(e.Vector) == 0 {
			continue
		}
		if f.dimension == 0 {
			f.dimension = len(e.Vector)
		}
		if len(e.Vector) != f.dimension {
			return fmt.Errorf("%w: expected %d, got %d for id %s", ErrVectorDimensionMismatch, f.dimension, len(e.Vector), e.ID)
		}

		iv := indexedVector{entry: e, vector: normalizeVector(e.Vector)}
		if pos, ok := f.positions[e.ID]; ok {
			f.entries[pos] = iv
			continue
		}
		f.positions[e.ID] = len(f.entries)
		f.entries = append(f.entries, iv)
	}

	return nil
}

// Count returns the number of entries in the index.
func (f *FlatIndex) Count(_ context.Context) (int64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return int64(len(f.entries)), nil
}

// Dimension returns the vector length the index accepts.
func (f *FlatIndex) Dimension() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dimension
}

// Close releases the stored vectors.
func (f *FlatIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = nil
	f.positions = make(map[string]int)
	return nil
}

// cosineDistance computes 1 - dot(a, b) for unit vectors.
func cosineDistance(a, b []float32) float32 {
	if len(a) != len(b) {
		return 1.0
	}

	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}

	// rounding can push the dot product slightly outside [-1, 1]
	if dot > 1 {
		dot = 1
	} else if dot < -1 {
		dot = -1
	}

	return 1 - dot
}

// normalizeVector returns a unit-length copy of v.
func normalizeVector(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)

	if norm == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, x := range v {
		normalized[i] = float32(float64(x) / norm)
	}
	return normalized
}

var _ VectorAdapter = (*FlatIndex)(nil)
