package retrieval

import "strings"

// Node metadata keys that identify where a chunk came from.
const (
	MetaSourceURL  = "source_url"
	MetaSourceFile = "source_file"
)

// RankedNode is one retrieved chunk. Retrievers return nodes best first.
type RankedNode struct {
	ID       string
	Text     string
	Score    float32
	Metadata map[string]string
}

// SourceKind distinguishes the provenance of a node.
type SourceKind int

const (
	SourceNone SourceKind = iota
	SourceURL
	SourceFile
)

func (k SourceKind) String() string {
	switch k {
	case SourceURL:
		return "url"
	case SourceFile:
		return "file"
	default:
		return "none"
	}
}

// SourceRef is the provenance of a node: a URL, a file name, or nothing.
type SourceRef struct {
	Kind  SourceKind
	Value string
}

// Source returns the node's provenance. A source_url wins over a source_file;
// empty values count as absent.
func (n RankedNode) Source() SourceRef {
	if v := strings.TrimSpace(n.Metadata[MetaSourceURL]); v != "" {
		return SourceRef{Kind: SourceURL, Value: v}
	}
	if v := strings.TrimSpace(n.Metadata[MetaSourceFile]); v != "" {
		return SourceRef{Kind: SourceFile, Value: v}
	}
	return SourceRef{Kind: SourceNone}
}

// ResultSet is the text and provenance gathered from one term's retrieval.
type ResultSet struct {
	Term    string
	Query   string
	Text    string
	Sources []string
}

// Complete reports whether the set has both text and at least one source.
func (r ResultSet) Complete() bool {
	return !blank(r.Text) && len(r.Sources) > 0
}

// beats is the selection rule: a candidate with non-blank text replaces best
// when its text is strictly longer or it has strictly more sources.
func (r ResultSet) beats(best ResultSet) bool {
	if blank(r.Text) {
		return false
	}
	return len(r.Text) > len(best.Text) || len(r.Sources) > len(best.Sources)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// collect joins the non-blank node texts with blank lines and lists node
// sources, both in retrieval order. Duplicate sources are kept.
func collect(nodes []RankedNode) (string, []string) {
	texts := make([]string, 0, len(nodes))
	sources := make([]string, 0, len(nodes))

	for _, n := range nodes {
		if !blank(n.Text) {
			texts = append(texts, n.Text)
		}
		switch ref := n.Source(); ref.Kind {
		case SourceURL, SourceFile:
			sources = append(sources, ref.Value)
		case SourceNone:
		}
	}

	return strings.Join(texts, "\n\n"), sources
}
