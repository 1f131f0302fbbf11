// Package corpus reads the scraped regulation documents (Markdown with YAML
// frontmatter) and splits them into chunks for indexing.
package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Metadata keys written by the scraper.
const (
	KeyCounty      = "county"
	KeyState       = "state"
	KeyContentType = "content_type"
	KeySourceURL   = "source_url"
	KeySourceFile  = "source_file"
	KeyFileName    = "file_name"
)

// ErrUnclosedFrontmatter is returned when a document opens a frontmatter block
// without closing it.
var ErrUnclosedFrontmatter = errors.New("unclosed YAML frontmatter")

// Document is one scraped page or PDF rendered as Markdown.
type Document struct {
	Path     string
	Metadata map[string]string
	Body     string
}

// SourceURL returns the page the document was scraped from, if any.
func (d *Document) SourceURL() string { return d.Metadata[KeySourceURL] }

// County returns the county tag from the frontmatter.
func (d *Document) County() string { return d.Metadata[KeyCounty] }

// ParseDocument splits content into frontmatter and body. Scalar frontmatter
// values become string metadata; nested values are ignored. A document that
// names both a source_url and a source_file keeps only the URL.
func ParseDocument(path string, content []byte) (*Document, error) {
	doc := &Document{
		Path:     path,
		Metadata: map[string]string{KeyFileName: filepath.Base(path)},
	}

	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	if !strings.HasPrefix(strings.TrimSpace(text), "---") {
		doc.Body = strings.TrimSpace(text)
		return doc, nil
	}

	lines := strings.Split(strings.TrimLeft(text, " \t\n"), "\n")
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return nil, fmt.Errorf("%s: %w", path, ErrUnclosedFrontmatter)
	}

	raw := map[string]interface{}{}
	if err := yaml.Unmarshal([]byte(strings.Join(lines[1:end], "\n")), &raw); err != nil {
		return nil, fmt.Errorf("%s: parse frontmatter: %w", path, err)
	}

	for k, v := range raw {
		switch val := v.(type) {
		case nil, map[string]interface{}, []interface{}:
			continue
		case string:
			if s := strings.TrimSpace(val); s != "" {
				doc.Metadata[k] = s
			}
		default:
			doc.Metadata[k] = fmt.Sprint(val)
		}
	}

	if doc.Metadata[KeySourceURL] != "" {
		delete(doc.Metadata, KeySourceFile)
	}

	doc.Body = strings.TrimSpace(strings.Join(lines[end+1:], "\n"))
	return doc, nil
}

// LoadDir reads every .md file under dir, sorted by path.
func LoadDir(dir string) ([]*Document, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk corpus dir: %w", err)
	}
	sort.Strings(paths)

	docs := make([]*Document, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		doc, err := ParseDocument(path, content)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, nil
}
