package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Index is a fully loaded index directory.
type Index struct {
	Dir      string
	Manifest *Manifest
	Nodes    []Node
}

// Load reads the manifest and every node from dir. Missing files wrap
// ErrNotFound; anything else that prevents a consistent load is returned as is.
func Load(ctx context.Context, dir string) (*Index, error) {
	if !Exists(dir) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
	}

	manifest, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	if err := manifest.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	dbPath := filepath.Join(dir, NodesFile)
	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s has no %s", ErrNotFound, dir, NodesFile)
	}

	store, err := OpenStore(ctx, dbPath, true)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	nodes, err := store.Nodes(ctx)
	if err != nil {
		return nil, err
	}

	if len(nodes) != manifest.NodeCount {
		return nil, fmt.Errorf("manifest lists %d nodes, store has %d", manifest.NodeCount, len(nodes))
	}
	for _, n := range nodes {
		if len(n.Embedding) != manifest.Dimension {
			return nil, fmt.Errorf("node %s has dimension %d, manifest says %d", n.ID, len(n.Embedding), manifest.Dimension)
		}
	}

	return &Index{Dir: dir, Manifest: manifest, Nodes: nodes}, nil
}
