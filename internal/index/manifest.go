// Package index reads and writes the persisted vector index: a directory with
// a YAML manifest and a SQLite database of embedded nodes.
package index

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ManifestFile  = "manifest.yaml"
	NodesFile     = "nodes.db"
	FormatVersion = 1
)

// ErrNotFound means the index directory or one of its files is missing.
var ErrNotFound = errors.New("index not found")

// Manifest describes how an index was built.
type Manifest struct {
	Version        int       `yaml:"version"`
	EmbeddingModel string    `yaml:"embedding_model"`
	Dimension      int       `yaml:"dimension"`
	NodeCount      int       `yaml:"node_count"`
	DocumentCount  int       `yaml:"document_count"`
	ChunkSize      int       `yaml:"chunk_size"`
	ChunkOverlap   int       `yaml:"chunk_overlap"`
	BuiltAt        time.Time `yaml:"built_at"`
}

// Fingerprint identifies one build of an index. Two loads of the same
// directory contents return the same fingerprint.
func (m *Manifest) Fingerprint() string {
	return fmt.Sprintf("v%d-%d-%d", m.Version, m.BuiltAt.UTC().UnixNano(), m.NodeCount)
}

// Validate checks that the manifest describes a loadable index.
func (m *Manifest) Validate() error {
	if m.Version != FormatVersion {
		return fmt.Errorf("unsupported index version %d", m.Version)
	}
	if m.EmbeddingModel == "" {
		return fmt.Errorf("manifest has no embedding model")
	}
	if m.Dimension <= 0 {
		return fmt.Errorf("manifest has invalid dimension %d", m.Dimension)
	}
	return nil
}

// ReadManifest loads dir/manifest.yaml.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s has no %s", ErrNotFound, dir, ManifestFile)
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// WriteManifest writes m to dir/manifest.yaml.
func WriteManifest(dir string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Exists reports whether path is an existing directory.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
