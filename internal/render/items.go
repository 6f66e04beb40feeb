// Renders root items (pages, databases, comments, users) as markdown.

package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/buger/jsonparser"

	"github.com/adamwulf/hunch-sub000/internal/notion"
)

// Document is a page together with its materialized content.
type Document struct {
	*notion.Page
	Blocks []notion.Block
}

// MarshalJSON emits the page with its block tree under "children".
func (d Document) MarshalJSON() ([]byte, error) {
	page, err := jsonMarshal(d.Page)
	if err != nil {
		return nil, err
	}
	tree, err := notion.MarshalBlockTree(d.Blocks)
	if err != nil {
		return nil, err
	}
	out, err := jsonparser.Set(page, tree, "children")
	if err != nil {
		return nil, fmt.Errorf("failed to attach page content: %w", err)
	}
	return out, nil
}

// Render converts items to markdown, one after the other.
func (m *Markdown) Render(items []notion.Item) (string, error) {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString(m.Item(item))
	}
	return sb.String(), nil
}

// Item converts one item to markdown.
func (m *Markdown) Item(item notion.Item) string {
	switch v := item.(type) {
	case Document:
		return m.Page(v.Page, v.Blocks)
	case *Document:
		return m.Page(v.Page, v.Blocks)
	case *notion.Page:
		return m.Page(v, nil)
	case *notion.Database:
		return m.Database(v)
	case *notion.Block:
		return m.Blocks([]notion.Block{*v})
	case *notion.Comment:
		return m.Comment(v)
	case *notion.User:
		kind := v.Type
		if kind == "" {
			kind = "user"
		}
		return fmt.Sprintf("- %s (%s)\n", v.DisplayName(), kind)
	case notion.SearchResult:
		return m.Item(v.Item())
	default:
		return fmt.Sprintf("- %s\n", item.Summary())
	}
}

// Page converts a page header, its sorted property list and its content to markdown.
func (m *Markdown) Page(p *notion.Page, blocks []notion.Block) string {
	var sb strings.Builder
	sb.WriteString("# " + orUntitled(m.RichText(p.Title())) + "\n\n")
	listed := false
	for _, name := range sortedProperties(p.Properties) {
		prop := p.Properties[name]
		if prop.Type == notion.PropertyTitle {
			continue
		}
		text, ok := PropertyText(&prop, m.Assets)
		if !ok {
			continue
		}
		sb.WriteString("- " + name + ": " + text + "\n")
		listed = true
	}
	if listed {
		sb.WriteString("\n")
	}
	sb.WriteString(m.Blocks(blocks))
	return sb.String()
}

// Database converts a database title, description and schema to markdown.
func (m *Markdown) Database(d *notion.Database) string {
	var sb strings.Builder
	sb.WriteString("# " + orUntitled(m.RichText(d.Title)) + "\n\n")
	if desc := m.RichText(d.Description); desc != "" {
		sb.WriteString(desc + "\n\n")
	}
	names := sortedProperties(d.Properties)
	for _, name := range names {
		sb.WriteString("- " + name + " (" + string(d.Properties[name].Type) + ")\n")
	}
	if len(names) > 0 {
		sb.WriteString("\n")
	}
	return sb.String()
}

// Comment converts a comment to an author line followed by its body.
func (m *Markdown) Comment(c *notion.Comment) string {
	header := "**" + c.CreatedBy.DisplayName() + "**"
	if !c.CreatedTime.IsZero() {
		header += " (" + c.CreatedTime.UTC().Format(time.RFC3339) + ")"
	}
	return header + "\n\n" + m.RichText(c.RichText) + "\n\n"
}
