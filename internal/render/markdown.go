// Converts Notion blocks and root items to Markdown.

package render

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/adamwulf/hunch-sub000/internal/notion"
)

// Markdown renders blocks and items as markdown.
//
// The zero value renders with colors and underlines and links media to their remote URL.
type Markdown struct {
	// IgnoreColor drops color annotations.
	IgnoreColor bool
	// IgnoreUnderline drops underline annotations.
	IgnoreUnderline bool
	// Assets maps remote media URLs to local paths that replace them.
	Assets map[string]string
}

// mdState is carried from one sibling to the next.
type mdState struct {
	level  int  // list nesting depth, 4 spaces each
	inList bool // previous sibling was a list item
	number int  // position in the current numbered run
}

// Blocks converts a block tree to markdown.
func (m *Markdown) Blocks(blocks []notion.Block) string {
	out, _ := m.blocks(blocks, mdState{})
	return out
}

// blocks renders a sibling sequence, threading the state from one block to the next, and returns
// the state after the last block.
func (m *Markdown) blocks(blocks []notion.Block, st mdState) (string, mdState) {
	var sb strings.Builder
	for i := range blocks {
		var out string
		out, st = m.block(&blocks[i], st)
		sb.WriteString(out)
	}
	return sb.String(), st
}

// children renders a nested sibling sequence and reports whether it ends inside a list run.
func (m *Markdown) children(blocks []notion.Block, level int) (string, bool) {
	out, st := m.blocks(blocks, mdState{level: level})
	return out, st.inList
}

// block renders one block and returns the state for its next sibling.
func (m *Markdown) block(b *notion.Block, st mdState) (string, mdState) {
	if b.Type.IsContainer() && b.HasPayload() {
		// Containers are transparent: their children continue the parent's sequence.
		return m.blocks(b.Children, st)
	}
	next := mdState{level: st.level, inList: b.Type.IsListItem()}
	if b.Type == notion.BlockNumberedListItem {
		next.number = st.number + 1
	}
	out, open := m.blockBody(b, next)
	if st.inList && !next.inList {
		// Close the list run.
		out = "\n" + out
	}
	if open {
		// A list run ending the children is closed by whatever comes next.
		next.inList = true
	}
	return out, next
}

// blockBody renders b and reports whether its unindented children end inside a list run.
func (m *Markdown) blockBody(b *notion.Block, st mdState) (string, bool) {
	indent := strings.Repeat("    ", st.level)
	if !b.HasPayload() || b.Type == notion.BlockUnsupported {
		return fmt.Sprintf("%s[unsupported block: %s]\n\n", indent, b.Type), false
	}

	switch b.Type {
	case notion.BlockParagraph:
		text := m.RichText(b.Paragraph.RichText)
		out := "\n"
		if text != "" {
			out = indent + text + "\n\n"
		}
		inner, open := m.children(b.Children, 0)
		return out + inner, open

	case notion.BlockHeading1, notion.BlockHeading2, notion.BlockHeading3:
		var h *notion.HeadingBlock
		n := 1
		switch b.Type {
		case notion.BlockHeading1:
			h = b.Heading1
		case notion.BlockHeading2:
			h, n = b.Heading2, 2
		default:
			h, n = b.Heading3, 3
		}
		inner, open := m.children(b.Children, 0)
		return strings.Repeat("#", n) + " " + m.RichText(h.RichText) + "\n\n" + inner, open

	case notion.BlockBulletedListItem:
		inner, _ := m.children(b.Children, st.level+1)
		return indent + "- " + m.RichText(b.BulletedListItem.RichText) + "\n" + inner, false

	case notion.BlockNumberedListItem:
		inner, _ := m.children(b.Children, st.level+1)
		return fmt.Sprintf("%s%d. %s\n", indent, st.number, m.RichText(b.NumberedListItem.RichText)) + inner, false

	case notion.BlockToDo:
		box := "[ ]"
		if b.ToDo.Checked {
			box = "[x]"
		}
		inner, _ := m.children(b.Children, st.level+1)
		return indent + "- " + box + " " + m.RichText(b.ToDo.RichText) + "\n" + inner, false

	case notion.BlockToggle:
		inner, open := m.children(b.Children, 0)
		if open {
			inner += "\n"
		}
		return indent + "<details>\n" + indent + "<summary>" + m.RichText(b.Toggle.RichText) + "</summary>\n\n" +
			inner + indent + "</details>\n\n", false

	case notion.BlockQuote:
		return m.quote(m.RichText(b.Quote.RichText), b.Children), false

	case notion.BlockCallout:
		text := m.RichText(b.Callout.RichText)
		if icon := b.Callout.Icon; icon != nil && icon.Emoji != "" {
			text = icon.Emoji + " " + text
		}
		return m.quote(text, b.Children), false

	case notion.BlockCode:
		lang := b.Code.Language
		if lang == "plain text" {
			lang = ""
		}
		out := "```" + lang + "\n" + notion.PlainText(b.Code.RichText) + "\n```\n\n"
		if caption := m.RichText(b.Code.Caption); caption != "" {
			out += caption + "\n\n"
		}
		return out, false

	case notion.BlockEquation:
		return "$$\n" + b.Equation.Expression + "\n$$\n\n", false

	case notion.BlockDivider:
		return "---\n\n", false

	case notion.BlockTableOfContents:
		return "[TOC]\n\n", false

	case notion.BlockBreadcrumb:
		return "", false

	case notion.BlockImage, notion.BlockVideo, notion.BlockAudio, notion.BlockFile, notion.BlockPDF:
		return m.media(b.Type, b.Media()), false

	case notion.BlockBookmark:
		label := m.RichText(b.Bookmark.Caption)
		if label == "" {
			label = b.Bookmark.URL
		}
		return fmt.Sprintf("[%s](%s)\n\n", label, b.Bookmark.URL), false

	case notion.BlockEmbed:
		label := m.RichText(b.Embed.Caption)
		if label == "" {
			label = b.Embed.URL
		}
		return fmt.Sprintf("[%s](%s)\n\n", label, b.Embed.URL), false

	case notion.BlockLinkPreview:
		return fmt.Sprintf("[%s](%s)\n\n", b.LinkPreview.URL, b.LinkPreview.URL), false

	case notion.BlockChildPage:
		return fmt.Sprintf("[%s](%s)\n\n", orUntitled(b.ChildPage.Title), notionURL(b.ID)), false

	case notion.BlockChildDatabase:
		return fmt.Sprintf("[%s](%s)\n\n", orUntitled(b.ChildDatabase.Title), notionURL(b.ID)), false

	case notion.BlockLinkToPage:
		target := b.LinkToPage.PageID
		if target == "" {
			target = b.LinkToPage.DatabaseID
		}
		return fmt.Sprintf("[Linked page](%s)\n\n", notionURL(target)), false

	case notion.BlockTemplate:
		inner, open := m.children(b.Children, 0)
		if text := m.RichText(b.Template.RichText); text != "" {
			inner = text + "\n\n" + inner
		}
		return inner, open

	case notion.BlockTable:
		return m.table(b), false

	case notion.BlockTableRow:
		cells := make([]string, len(b.TableRow.Cells))
		for i, cell := range b.TableRow.Cells {
			cells[i] = m.RichText(cell)
		}
		return "| " + strings.Join(cells, " | ") + " |\n", false
	}
	return fmt.Sprintf("%s[unsupported block: %s]\n\n", indent, b.Type), false
}

// quote prefixes every line of text and the rendered children with "> ".
func (m *Markdown) quote(text string, children []notion.Block) string {
	body := text
	inner, _ := m.children(children, 0)
	if inner = strings.TrimRight(inner, "\n"); inner != "" {
		body += "\n\n" + inner
	}
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + line
		}
	}
	return strings.Join(lines, "\n") + "\n\n"
}

func (m *Markdown) media(typ notion.BlockType, media *notion.MediaBlock) string {
	src := media.URL()
	if local, ok := m.Assets[src]; ok {
		src = local
	}
	caption := m.RichText(media.Caption)
	if typ == notion.BlockImage {
		return fmt.Sprintf("![%s](%s)\n\n", caption, src)
	}
	if caption == "" {
		caption = media.Name
	}
	if caption == "" {
		caption = fileName(media.URL())
	}
	if caption == "" {
		caption = string(typ)
	}
	return fmt.Sprintf("[%s](%s)\n\n", caption, src)
}

// table renders a table block and its rows as HTML, markdown tables having no row headers.
func (m *Markdown) table(b *notion.Block) string {
	var sb strings.Builder
	sb.WriteString("<table>\n")
	row := 0
	for i := range b.Children {
		r := b.Children[i].TableRow
		if r == nil {
			continue
		}
		sb.WriteString("<tr>")
		for col, cell := range r.Cells {
			tag := "td"
			if (b.Table.HasColumnHeader && row == 0) || (b.Table.HasRowHeader && col == 0) {
				tag = "th"
			}
			sb.WriteString("<" + tag + ">" + m.RichText(cell) + "</" + tag + ">")
		}
		sb.WriteString("</tr>\n")
		row++
	}
	sb.WriteString("</table>\n\n")
	return sb.String()
}

// RichText converts rich text to markdown with formatting.
func (m *Markdown) RichText(rt []notion.RichText) string {
	var sb strings.Builder
	for i := range rt {
		sb.WriteString(m.run(&rt[i]))
	}
	return sb.String()
}

func (m *Markdown) run(t *notion.RichText) string {
	if t.Type == "equation" && t.Equation != nil {
		return "$" + t.Equation.Expression + "$"
	}
	// Markers must hug the text: "** a**" is not bold.
	lead, text, trail := splitSpace(t.PlainText)
	if text == "" {
		return t.PlainText
	}
	if a := t.Annotations; a != nil {
		if a.Code {
			text = "`" + text + "`"
		}
		if a.Bold {
			text = "**" + text + "**"
		}
		if a.Italic {
			text = "_" + text + "_"
		}
		if a.Strikethrough {
			text = "~~" + text + "~~"
		}
		if a.Underline && !m.IgnoreUnderline {
			text = "<u>" + text + "</u>"
		}
		if a.Color != "" && a.Color != "default" && !m.IgnoreColor {
			if bg, ok := strings.CutSuffix(a.Color, "_background"); ok {
				text = `<span style="background-color: ` + bg + `">` + text + "</span>"
			} else {
				text = `<span style="color: ` + a.Color + `">` + text + "</span>"
			}
		}
	}
	if t.Href != nil && *t.Href != "" {
		text = "[" + text + "](" + *t.Href + ")"
	} else if t.Text != nil && t.Text.Link != nil && t.Text.Link.URL != "" {
		text = "[" + text + "](" + t.Text.Link.URL + ")"
	}
	return lead + text + trail
}

func splitSpace(s string) (lead, core, trail string) {
	core = strings.TrimLeft(s, " \t\n")
	lead = s[:len(s)-len(core)]
	trimmed := strings.TrimRight(core, " \t\n")
	trail = core[len(trimmed):]
	return lead, trimmed, trail
}

// notionURL returns the web URL of a page or database id.
func notionURL(id string) string {
	return "https://www.notion.so/" + strings.ReplaceAll(id, "-", "")
}

func fileName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" || u.Path == "/" {
		return ""
	}
	return path.Base(u.Path)
}

func orUntitled(s string) string {
	if s == "" {
		return "Untitled"
	}
	return s
}
