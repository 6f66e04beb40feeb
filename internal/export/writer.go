// Writes exported pages as markdown files with YAML front matter.

package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/adamwulf/hunch-sub000/internal/notion"
	"github.com/adamwulf/hunch-sub000/internal/render"
)

// Layout of the output directory.
const (
	assetsDir     = "assets"
	stateDir      = ".hunch"
	checkpointLog = "checkpoint.jsonl"
)

// Writer writes pages under Dir.
//
// Each page goes to <Dir>/<page id>.md; downloaded files go to <Dir>/assets.
type Writer struct {
	Dir string
}

// FrontMatter is the YAML header of an exported page.
type FrontMatter struct {
	ID         string            `yaml:"id"`
	Title      string            `yaml:"title"`
	URL        string            `yaml:"url,omitempty"`
	Parent     string            `yaml:"parent,omitempty"`
	Created    time.Time         `yaml:"created"`
	LastEdited time.Time         `yaml:"last_edited"`
	Archived   bool              `yaml:"archived,omitempty"`
	Properties map[string]string `yaml:"properties,omitempty"`
}

// NewFrontMatter describes page. Property values are rendered as they are in the page body.
func NewFrontMatter(page *notion.Page, assets map[string]string) FrontMatter {
	fm := FrontMatter{
		ID:         page.ID,
		Title:      notion.PlainText(page.Title()),
		URL:        page.URL,
		Parent:     page.Parent.ID(),
		Created:    page.CreatedTime.UTC(),
		LastEdited: page.LastEditedTime.UTC(),
		Archived:   page.Archived,
	}
	for name, p := range page.Properties {
		p := p
		if p.Type == notion.PropertyTitle {
			continue
		}
		if text, ok := render.PropertyText(&p, assets); ok {
			if fm.Properties == nil {
				fm.Properties = map[string]string{}
			}
			fm.Properties[name] = text
		}
	}
	return fm
}

// AssetDir returns the directory holding downloaded files.
func (w *Writer) AssetDir() string {
	return filepath.Join(w.Dir, assetsDir)
}

// CheckpointPath returns the file caching fetched block trees between runs.
func (w *Writer) CheckpointPath() string {
	return filepath.Join(w.Dir, stateDir, checkpointLog)
}

// PagePath returns the file a page is written to.
func (w *Writer) PagePath(id string) string {
	return filepath.Join(w.Dir, id+".md")
}

// Ensure creates the output directory and keeps internal state out of version control.
func (w *Writer) Ensure() error {
	if err := os.MkdirAll(filepath.Join(w.Dir, stateDir), 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	ignore := filepath.Join(w.Dir, ".gitignore")
	if _, err := os.Stat(ignore); err == nil {
		return nil
	}
	if err := os.WriteFile(ignore, []byte(stateDir+"/\n"), 0o644); err != nil { //nolint:gosec // G306: 0o644 is intentional for readable files
		return fmt.Errorf("failed to write .gitignore: %w", err)
	}
	return nil
}

// WritePage writes the markdown body of page preceded by its front matter and returns the path.
func (w *Writer) WritePage(fm FrontMatter, body string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return "", fmt.Errorf("failed to encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode front matter: %w", err)
	}
	buf.WriteString("---\n\n")
	buf.WriteString(body)

	p := w.PagePath(fm.ID)
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil { //nolint:gosec // G306: 0o644 is intentional for readable files
		return "", fmt.Errorf("failed to write %s: %w", p, err)
	}
	return p, nil
}

// relativeAssets rewrites local asset paths so they resolve from the page files.
func (w *Writer) relativeAssets(local map[string]string) map[string]string {
	out := make(map[string]string, len(local))
	for u, p := range local {
		rel, err := filepath.Rel(w.Dir, p)
		if err != nil {
			continue
		}
		out[u] = filepath.ToSlash(rel)
	}
	return out
}
