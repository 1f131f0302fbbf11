package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recyclens/rag-service/internal/corpus"
	"github.com/recyclens/rag-service/internal/embedding"
	"github.com/recyclens/rag-service/internal/observability"
)

func testDocs(t *testing.T) []*corpus.Document {
	t.Helper()

	albany, err := corpus.ParseDocument("albany/batteries.md", []byte(`---
county: albany
state: NY
source_url: https://albanyny.gov/recycling/batteries
---
Rechargeable batteries are accepted at the Albany drop-off center.`))
	require.NoError(t, err)

	tompkins, err := corpus.ParseDocument("tompkins/plastics.md", []byte(`---
county: tompkins
state: NY
content_type: pdf
source_file: tompkins_recycling_guide.pdf
---
Plastic containers #1, #2 and #5 go in the blue bin.`))
	require.NoError(t, err)

	empty, err := corpus.ParseDocument("empty.md", []byte("---\ncounty: albany\n---\n"))
	require.NoError(t, err)

	return []*corpus.Document{albany, tompkins, empty}
}

func buildTestIndex(t *testing.T, dir string) *Manifest {
	t.Helper()
	b := NewBuilder(observability.NopLogger(), embedding.NewMockClient(16), BuilderConfig{ChunkSize: 512, ChunkOverlap: 32, BatchSize: 1})
	m, err := b.Build(context.Background(), testDocs(t), dir, nil)
	require.NoError(t, err)
	return m
}

func TestBuilder_BuildAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "rag_index")

	var calls []int
	b := NewBuilder(observability.NopLogger(), embedding.NewMockClient(16), BuilderConfig{ChunkSize: 512, ChunkOverlap: 32, BatchSize: 1})
	manifest, err := b.Build(context.Background(), testDocs(t), dir, func(done, total int) {
		assert.Equal(t, 2, total)
		calls = append(calls, done)
	})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, calls)
	assert.Equal(t, FormatVersion, manifest.Version)
	assert.Equal(t, "mock-embedding-model", manifest.EmbeddingModel)
	assert.Equal(t, 16, manifest.Dimension)
	assert.Equal(t, 2, manifest.NodeCount)
	assert.Equal(t, 2, manifest.DocumentCount)

	idx, err := Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, idx.Nodes, 2)

	assert.Equal(t, manifest.Fingerprint(), idx.Manifest.Fingerprint())
	assert.Equal(t, 0, idx.Nodes[0].Position)
	assert.Contains(t, idx.Nodes[0].Text, "Albany drop-off center")
	assert.Equal(t, "https://albanyny.gov/recycling/batteries", idx.Nodes[0].Metadata[corpus.KeySourceURL])
	assert.Equal(t, "tompkins_recycling_guide.pdf", idx.Nodes[1].Metadata[corpus.KeySourceFile])
	assert.Len(t, idx.Nodes[1].Embedding, 16)
}

func TestBuilder_StableNodeIDs(t *testing.T) {
	root := t.TempDir()
	buildTestIndex(t, filepath.Join(root, "a"))
	buildTestIndex(t, filepath.Join(root, "b"))

	a, err := Load(context.Background(), filepath.Join(root, "a"))
	require.NoError(t, err)
	b, err := Load(context.Background(), filepath.Join(root, "b"))
	require.NoError(t, err)

	for i := range a.Nodes {
		assert.Equal(t, a.Nodes[i].ID, b.Nodes[i].ID)
	}
}

func TestBuilder_ReplacesExistingIndex(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "rag_index")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.json"), []byte("{}"), 0o644))

	buildTestIndex(t, dir)

	_, err := os.Stat(filepath.Join(dir, "stale.json"))
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(filepath.Dir(dir))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "build directory is cleaned up")
}

func TestBuilder_EmptyCorpus(t *testing.T) {
	b := NewBuilder(observability.NopLogger(), embedding.NewMockClient(8), BuilderConfig{})
	_, err := b.Build(context.Background(), nil, filepath.Join(t.TempDir(), "idx"), nil)
	require.Error(t, err)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrNotFound)

	empty := t.TempDir()
	_, err = Load(context.Background(), empty)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_MissingNodeStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteManifest(dir, &Manifest{Version: FormatVersion, EmbeddingModel: "m", Dimension: 4}))

	_, err := Load(context.Background(), dir)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_CorruptManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte("version: [not an int"), 0o644))

	_, err := Load(context.Background(), dir)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestLoad_NodeCountMismatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "idx")
	m := buildTestIndex(t, dir)

	m.NodeCount = 5
	require.NoError(t, WriteManifest(dir, m))

	_, err := Load(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest lists 5 nodes")
}

func TestManifest_Fingerprint(t *testing.T) {
	built := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := &Manifest{Version: 1, BuiltAt: built, NodeCount: 10}
	b := &Manifest{Version: 1, BuiltAt: built, NodeCount: 11}

	assert.Equal(t, a.Fingerprint(), (&Manifest{Version: 1, BuiltAt: built, NodeCount: 10}).Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestVectorEncoding(t *testing.T) {
	v := []float32{0.5, -1.25, 3.0e-7, 0}
	got, err := decodeVector(encodeVector(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestStore_Count(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "idx")
	buildTestIndex(t, dir)

	store, err := OpenStore(context.Background(), filepath.Join(dir, NodesFile), true)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
