// Defines rich text, the annotated text runs used by blocks and properties.

package notion

import "strings"

// RichText represents formatted text content.
//
// PlainText is always present and is the display fallback for mentions and equations.
type RichText struct {
	Type        string       `json:"type,omitempty"` // "text", "mention", "equation"
	Text        *TextContent `json:"text,omitempty"`
	Mention     *Mention     `json:"mention,omitempty"`
	Equation    *Equation    `json:"equation,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
	PlainText   string       `json:"plain_text"`
	Href        *string      `json:"href,omitempty"`
}

// TextContent represents plain text content.
type TextContent struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

// Link represents a hyperlink.
type Link struct {
	URL string `json:"url"`
}

// Mention represents a mention in rich text.
type Mention struct {
	Type        string       `json:"type"` // "user", "page", "database", "date", "link_preview"
	User        *User        `json:"user,omitempty"`
	Page        *Reference   `json:"page,omitempty"`
	Database    *Reference   `json:"database,omitempty"`
	Date        *DateValue   `json:"date,omitempty"`
	LinkPreview *LinkPreview `json:"link_preview,omitempty"`
}

// Reference is a reference to a page or database by id.
type Reference struct {
	ID string `json:"id"`
}

// LinkPreview represents a link preview mention.
type LinkPreview struct {
	URL string `json:"url"`
}

// Equation represents a LaTeX equation.
type Equation struct {
	Expression string `json:"expression"`
}

// Annotations represents text formatting. Flags compose independently.
type Annotations struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Strikethrough bool   `json:"strikethrough"`
	Underline     bool   `json:"underline"`
	Code          bool   `json:"code"`
	Color         string `json:"color"`
}

// NewText returns an unannotated text run, as used when creating content.
func NewText(s string) RichText {
	return RichText{Type: "text", Text: &TextContent{Content: s}, PlainText: s}
}

// PlainText concatenates the plain text of every run.
func PlainText(rt []RichText) string {
	var sb strings.Builder
	for i := range rt {
		sb.WriteString(rt[i].PlainText)
	}
	return sb.String()
}
