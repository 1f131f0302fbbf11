package corpus

import (
	"regexp"
	"strings"
)

var (
	imagePattern   = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkPattern    = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	commentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)
	blankLines     = regexp.MustCompile(`\n{3,}`)
)

// Chunk is a piece of a document small enough to embed.
type Chunk struct {
	Text     string
	Index    int
	Metadata map[string]string
}

// ChunkerConfig holds chunking limits, measured in bytes.
type ChunkerConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

// Chunker packs paragraphs into chunks of roughly ChunkSize bytes, carrying
// up to ChunkOverlap bytes from the end of each chunk into the next.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker, filling in defaults for unset limits.
func NewChunker(cfg ChunkerConfig) *Chunker {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1024
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 8
	}
	return &Chunker{size: cfg.ChunkSize, overlap: cfg.ChunkOverlap}
}

// Split chunks doc.Body. Every chunk gets its own copy of the document metadata.
func (c *Chunker) Split(doc *Document) []Chunk {
	var chunks []Chunk
	emit := func(text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		meta := make(map[string]string, len(doc.Metadata))
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		chunks = append(chunks, Chunk{Text: text, Index: len(chunks), Metadata: meta})
	}

	var current strings.Builder
	for _, para := range c.paragraphs(cleanMarkdown(doc.Body)) {
		if current.Len() > 0 && current.Len()+len(para)+2 > c.size {
			emit(current.String())
			tail := overlapText(current.String(), c.overlap)
			current.Reset()
			current.WriteString(tail)
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	emit(current.String())

	return chunks
}

// paragraphs splits on blank lines and breaks any paragraph longer than the
// chunk size at word boundaries.
func (c *Chunker) paragraphs(content string) []string {
	var out []string
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		for len(para) > c.size {
			cut := strings.LastIndex(para[:c.size], " ")
			if cut <= 0 {
				cut = c.size
			}
			out = append(out, strings.TrimSpace(para[:cut]))
			para = strings.TrimSpace(para[cut:])
		}
		if para != "" {
			out = append(out, para)
		}
	}
	return out
}

func cleanMarkdown(content string) string {
	content = commentPattern.ReplaceAllString(content, "")
	content = imagePattern.ReplaceAllString(content, "")
	content = linkPattern.ReplaceAllString(content, "$1")
	return blankLines.ReplaceAllString(content, "\n\n")
}

func overlapText(text string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(text) <= maxLen {
		return text
	}
	overlap := text[len(text)-maxLen:]
	if idx := strings.Index(overlap, " "); idx >= 0 {
		overlap = overlap[idx+1:]
	}
	return overlap
}
