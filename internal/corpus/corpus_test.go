package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tompkinsDoc = `---
county: tompkins
state: NY
content_type: html
source_url: https://recycletompkins.org/batteries
year: 2024
---

# Household Batteries

Alkaline batteries can go in the trash in New York State.

Rechargeable batteries must be brought to a drop-off location. See [the list](https://example.org/list).
`

func TestParseDocument_Frontmatter(t *testing.T) {
	doc, err := ParseDocument("docs/tompkins/batteries.md", []byte(tompkinsDoc))
	require.NoError(t, err)

	assert.Equal(t, "tompkins", doc.County())
	assert.Equal(t, "https://recycletompkins.org/batteries", doc.SourceURL())
	assert.Equal(t, "NY", doc.Metadata[KeyState])
	assert.Equal(t, "html", doc.Metadata[KeyContentType])
	assert.Equal(t, "2024", doc.Metadata["year"])
	assert.Equal(t, "batteries.md", doc.Metadata[KeyFileName])
	assert.True(t, strings.HasPrefix(doc.Body, "# Household Batteries"))
}

func TestParseDocument_URLWinsOverFile(t *testing.T) {
	content := "---\nsource_url: https://a.example\nsource_file: a.pdf\n---\nbody"
	doc, err := ParseDocument("a.md", []byte(content))
	require.NoError(t, err)

	assert.Equal(t, "https://a.example", doc.Metadata[KeySourceURL])
	_, hasFile := doc.Metadata[KeySourceFile]
	assert.False(t, hasFile)
}

func TestParseDocument_NoFrontmatter(t *testing.T) {
	doc, err := ParseDocument("plain.md", []byte("\nJust text.\n"))
	require.NoError(t, err)
	assert.Equal(t, "Just text.", doc.Body)
	assert.Equal(t, map[string]string{KeyFileName: "plain.md"}, doc.Metadata)
}

func TestParseDocument_Unclosed(t *testing.T) {
	_, err := ParseDocument("bad.md", []byte("---\ncounty: albany\nno end"))
	assert.ErrorIs(t, err, ErrUnclosedFrontmatter)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "albany"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "albany", "b.md"), []byte("---\ncounty: albany\nsource_file: guide.pdf\n---\nB"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("A"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))

	docs, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "A", docs[0].Body)
	assert.Equal(t, "albany", docs[1].County())
	assert.Equal(t, "guide.pdf", docs[1].Metadata[KeySourceFile])
}

func TestChunker_Split(t *testing.T) {
	doc, err := ParseDocument("t.md", []byte(tompkinsDoc))
	require.NoError(t, err)

	chunks := NewChunker(ChunkerConfig{ChunkSize: 1024, ChunkOverlap: 64}).Split(doc)
	require.Len(t, chunks, 1)

	c := chunks[0]
	assert.Contains(t, c.Text, "Alkaline batteries can go in the trash")
	assert.Contains(t, c.Text, "See the list.")
	assert.NotContains(t, c.Text, "https://example.org/list")
	assert.Equal(t, "tompkins", c.Metadata[KeyCounty])
}

func TestChunker_SplitRespectsSizeAndOverlap(t *testing.T) {
	var paras []string
	for i := 0; i < 10; i++ {
		paras = append(paras, strings.Repeat("word ", 20)+"end.")
	}
	doc := &Document{Metadata: map[string]string{KeyCounty: "albany"}, Body: strings.Join(paras, "\n\n")}

	chunks := NewChunker(ChunkerConfig{ChunkSize: 250, ChunkOverlap: 20}).Split(doc)
	require.Greater(t, len(chunks), 3)

	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.LessOrEqual(t, len(c.Text), 250+20+2)
		assert.Equal(t, "albany", c.Metadata[KeyCounty])
	}

	// metadata maps are independent copies
	chunks[0].Metadata[KeyCounty] = "changed"
	assert.Equal(t, "albany", chunks[1].Metadata[KeyCounty])
}

func TestChunker_BreaksLongParagraph(t *testing.T) {
	doc := &Document{Metadata: map[string]string{}, Body: strings.Repeat("glass ", 100)}
	chunks := NewChunker(ChunkerConfig{ChunkSize: 100, ChunkOverlap: 0}).Split(doc)

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), 100)
	}
}
