// Defines the Item capability shared by every renderable Notion object, and search results.

package notion

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/buger/jsonparser"
)

// Item is a Notion object that can be listed and rendered.
type Item interface {
	// ItemID returns the object id.
	ItemID() string
	// ObjectType returns the object kind ("page", "database", "block", "comment", "user").
	ObjectType() string
	// ParentRef returns the parent of the object; users have none.
	ParentRef() Parent
	// Summary returns a one-line human readable summary.
	Summary() string
}

func (p *Page) ItemID() string     { return p.ID }
func (p *Page) ObjectType() string { return "page" }
func (p *Page) ParentRef() Parent  { return p.Parent }
func (p *Page) Summary() string    { return orUntitled(PlainText(p.Title())) }

func (d *Database) ItemID() string     { return d.ID }
func (d *Database) ObjectType() string { return "database" }
func (d *Database) ParentRef() Parent  { return d.Parent }
func (d *Database) Summary() string    { return orUntitled(PlainText(d.Title)) }

func (b *Block) ItemID() string     { return b.ID }
func (b *Block) ObjectType() string { return "block" }
func (b *Block) ParentRef() Parent  { return b.Parent }

func (b *Block) Summary() string {
	if text := PlainText(b.RichText()); text != "" {
		return string(b.Type) + ": " + firstLine(text)
	}
	switch {
	case b.ChildPage != nil:
		return string(b.Type) + ": " + b.ChildPage.Title
	case b.ChildDatabase != nil:
		return string(b.Type) + ": " + b.ChildDatabase.Title
	}
	return string(b.Type)
}

func (c *Comment) ItemID() string     { return c.ID }
func (c *Comment) ObjectType() string { return "comment" }
func (c *Comment) ParentRef() Parent  { return c.Parent }
func (c *Comment) Summary() string    { return firstLine(PlainText(c.RichText)) }

func (u *User) ItemID() string     { return u.ID }
func (u *User) ObjectType() string { return "user" }
func (u *User) ParentRef() Parent  { return Parent{} }
func (u *User) Summary() string    { return u.DisplayName() }

func orUntitled(s string) string {
	if s == "" {
		return "Untitled"
	}
	return s
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// SearchResult is one result of the search endpoint: either a page or a database.
type SearchResult struct {
	Page     *Page
	Database *Database
}

// Item returns the page or database held by the result.
func (r SearchResult) Item() Item {
	if r.Database != nil {
		return r.Database
	}
	return r.Page
}

func (r SearchResult) ItemID() string     { return r.Item().ItemID() }
func (r SearchResult) ObjectType() string { return r.Item().ObjectType() }
func (r SearchResult) ParentRef() Parent  { return r.Item().ParentRef() }
func (r SearchResult) Summary() string    { return r.Item().Summary() }

// UnmarshalJSON selects the variant from the "object" member.
func (r *SearchResult) UnmarshalJSON(data []byte) error {
	object, err := jsonparser.GetString(data, "object")
	if err != nil {
		return fmt.Errorf("failed to read search result object: %w", err)
	}
	*r = SearchResult{}
	switch object {
	case "page":
		r.Page = &Page{}
		return json.Unmarshal(data, r.Page)
	case "database":
		r.Database = &Database{}
		return json.Unmarshal(data, r.Database)
	default:
		return fmt.Errorf("unexpected search result object %q", object)
	}
}

// MarshalJSON emits the held page or database.
func (r SearchResult) MarshalJSON() ([]byte, error) {
	if r.Database != nil {
		return json.Marshal(r.Database)
	}
	return json.Marshal(r.Page)
}
