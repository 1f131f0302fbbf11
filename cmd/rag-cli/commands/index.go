package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/recyclens/rag-service/cmd/rag-cli/ui"
	"github.com/recyclens/rag-service/internal/bootstrap"
	"github.com/recyclens/rag-service/internal/corpus"
	"github.com/recyclens/rag-service/internal/index"
)

var (
	buildDocsDir         string
	buildOutDir          string
	buildInvalidateCache bool
	inspectDir           string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or inspect the regulations index",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Embed a directory of Markdown regulation documents into an index",
	Long: `Chunk and embed every Markdown document in the docs directory and write the
index to the output directory. An existing index there is replaced atomically.

Documents may start with YAML frontmatter (county, state, content_type,
source_url or source_file); those fields are attached to every chunk.`,
	Example: `  rag-cli index build --docs ./rag_docs --out ./rag_index_morechunked`,
	RunE:    runIndexBuild,
}

var indexInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show what an index contains",
	RunE:  runIndexInspect,
}

func init() {
	indexBuildCmd.Flags().StringVar(&buildDocsDir, "docs", "", "directory of Markdown documents (defaults to corpus.docs_dir)")
	indexBuildCmd.Flags().StringVar(&buildOutDir, "out", "", "index output directory (defaults to index.path)")
	indexBuildCmd.Flags().BoolVar(&buildInvalidateCache, "invalidate-cache", false, "drop cached lookup outcomes after the build")

	indexInspectCmd.Flags().StringVar(&inspectDir, "index", "", "index directory (defaults to index.path)")

	indexCmd.AddCommand(indexBuildCmd, indexInspectCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Hour)
	defer cancel()

	docsDir := firstNonEmpty(buildDocsDir, cfg.Corpus.DocsDir)
	outDir := firstNonEmpty(buildOutDir, cfg.Index.Path)
	logger := cliLogger()

	ui.Section("Build Regulations Index")
	ui.KeyValue("Documents", docsDir)
	ui.KeyValue("Output", outDir)
	ui.KeyValue("Model", cfg.Embedding.Model)
	ui.Newline()

	ui.Step("Loading documents")
	docs, err := corpus.LoadDir(docsDir)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("no Markdown documents found in %s", docsDir)
	}
	ui.Success("Loaded %d documents", len(docs))

	embedder, err := bootstrap.NewBuildEmbedder(cfg)
	if err != nil {
		return err
	}

	builder := index.NewBuilder(logger, embedder, index.BuilderConfig{
		ChunkSize:    cfg.Corpus.ChunkSize,
		ChunkOverlap: cfg.Corpus.ChunkOverlap,
		BatchSize:    cfg.Embedding.BatchSize,
	})

	ui.Step("Embedding chunks")
	var bar *ui.ProgressBar
	start := time.Now()
	manifest, err := builder.Build(ctx, docs, outDir, func(done, total int) {
		if bar == nil {
			bar = ui.NewProgressBar(int64(total), "Embedding")
		}
		bar.Set(int64(done))
	})
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	ui.Success("Indexed %d chunks from %d documents in %s", manifest.NodeCount, manifest.DocumentCount, time.Since(start).Round(time.Second))

	if buildInvalidateCache {
		if err := invalidateOutcomes(ctx); err != nil {
			ui.Warning("Could not clear cached outcomes: %v", err)
		} else {
			ui.Success("Cleared cached lookup outcomes")
		}
	}

	return nil
}

func invalidateOutcomes(ctx context.Context) error {
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Logger: cliLogger()})
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Outcomes.Invalidate(ctx)
}

func runIndexInspect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dir := firstNonEmpty(inspectDir, cfg.Index.Path)

	if !index.Exists(dir) {
		return fmt.Errorf("no index at %s", dir)
	}

	manifest, err := index.ReadManifest(dir)
	if err != nil {
		return err
	}

	store, err := index.OpenStore(ctx, filepath.Join(dir, index.NodesFile), true)
	if err != nil {
		return err
	}
	defer store.Close()

	count, err := store.Count(ctx)
	if err != nil {
		return err
	}

	ui.Section("Regulations Index")
	ui.Table([]string{"Field", "Value"}, [][]string{
		{"Path", dir},
		{"Format version", strconv.Itoa(manifest.Version)},
		{"Embedding model", manifest.EmbeddingModel},
		{"Dimension", strconv.Itoa(manifest.Dimension)},
		{"Documents", strconv.Itoa(manifest.DocumentCount)},
		{"Nodes (manifest)", strconv.Itoa(manifest.NodeCount)},
		{"Nodes (store)", strconv.Itoa(count)},
		{"Chunk size / overlap", fmt.Sprintf("%d / %d", manifest.ChunkSize, manifest.ChunkOverlap)},
		{"Built at", manifest.BuiltAt.Format(time.RFC3339)},
		{"Fingerprint", manifest.Fingerprint()},
	})

	if err := manifest.Validate(); err != nil {
		ui.Warning("Manifest is not loadable: %v", err)
	}
	if count != manifest.NodeCount {
		ui.Warning("Node store and manifest disagree; rebuild the index")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
