package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/recyclens/rag-service/internal/corpus"
	"github.com/recyclens/rag-service/internal/embedding"
	"github.com/recyclens/rag-service/internal/observability"
)

// nodeNamespace seeds node IDs so a rebuild of the same corpus reuses them.
var nodeNamespace = uuid.MustParse("7b0c2f5e-3d1a-4c8e-9a55-2f4b6d8e1c90")

// BuilderConfig holds index build settings.
type BuilderConfig struct {
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int
}

// Builder embeds a corpus and writes it out as an index directory.
type Builder struct {
	logger   *observability.Logger
	embedder embedding.Embedder
	chunker  *corpus.Chunker
	cfg      BuilderConfig
}

// Progress is called after each embedding batch with the number of chunks
// embedded so far and the total.
type Progress func(done, total int)

// NewBuilder creates a new index builder.
func NewBuilder(logger *observability.Logger, embedder embedding.Embedder, cfg BuilderConfig) *Builder {
	return &Builder{
		logger:   logger.WithOperation("index_build"),
		embedder: embedder,
		chunker:  corpus.NewChunker(corpus.ChunkerConfig{ChunkSize: cfg.ChunkSize, ChunkOverlap: cfg.ChunkOverlap}),
		cfg:      cfg,
	}
}

// Build chunks and embeds docs and writes the index to outDir, replacing any
// index already there. The new index is assembled in a sibling directory and
// renamed into place, so readers never see a partial build.
func (b *Builder) Build(ctx context.Context, docs []*corpus.Document, outDir string, progress Progress) (*Manifest, error) {
	var (
		chunks []corpus.Chunk
		ids    []string
		used   int
	)
	for _, doc := range docs {
		split := b.chunker.Split(doc)
		if len(split) == 0 {
			b.logger.Warn().Str("path", doc.Path).Msg("Document has no text, skipping")
			continue
		}
		used++
		for _, c := range split {
			chunks = append(chunks, c)
			ids = append(ids, uuid.NewSHA1(nodeNamespace, []byte(doc.Path+"#"+strconv.Itoa(c.Index))).String())
		}
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("corpus has no text to index")
	}

	b.logger.Info().
		Int("documents", used).
		Int("chunks", len(chunks)).
		Str("model", b.embedder.Model()).
		Msg("Embedding corpus")

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := embedding.EmbedBatch(ctx, b.embedder, texts, b.cfg.BatchSize, func(done int) {
		if progress != nil {
			progress(done, len(texts))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}

	nodes := make([]Node, len(chunks))
	for i, c := range chunks {
		nodes[i] = Node{
			ID:        ids[i],
			Position:  i,
			Text:      c.Text,
			Metadata:  c.Metadata,
			Embedding: vectors[i],
		}
	}

	manifest := &Manifest{
		Version:        FormatVersion,
		EmbeddingModel: b.embedder.Model(),
		Dimension:      len(vectors[0]),
		NodeCount:      len(nodes),
		DocumentCount:  used,
		ChunkSize:      b.cfg.ChunkSize,
		ChunkOverlap:   b.cfg.ChunkOverlap,
		BuiltAt:        time.Now().UTC().Truncate(time.Second),
	}

	if err := b.write(ctx, outDir, manifest, nodes); err != nil {
		return nil, err
	}

	b.logger.Info().Str("dir", outDir).Int("nodes", len(nodes)).Msg("Index written")
	return manifest, nil
}

func (b *Builder) write(ctx context.Context, outDir string, manifest *Manifest, nodes []Node) error {
	parent := filepath.Dir(filepath.Clean(outDir))
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(outDir)+"-build-")
	if err != nil {
		return fmt.Errorf("create build dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	store, err := OpenStore(ctx, filepath.Join(tmp, NodesFile), false)
	if err != nil {
		return err
	}
	if err := store.Insert(ctx, nodes); err != nil {
		store.Close()
		return err
	}
	if err := store.Close(); err != nil {
		return fmt.Errorf("close node store: %w", err)
	}

	if err := WriteManifest(tmp, manifest); err != nil {
		return err
	}

	if err := os.RemoveAll(outDir); err != nil {
		return fmt.Errorf("remove previous index: %w", err)
	}
	if err := os.Rename(tmp, outDir); err != nil {
		return fmt.Errorf("move index into place: %w", err)
	}
	return nil
}
