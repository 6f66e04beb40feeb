// Defines Notion API object types shared by pages, databases, blocks and comments.

package notion

import (
	"time"
)

// PaginatedResponse is the common structure for paginated API responses.
type PaginatedResponse[T any] struct {
	Object     string  `json:"object"`
	Results    []T     `json:"results"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// Parent represents the parent of a page, database, block or comment.
//
// Parents are values: children never point back to their parent object.
type Parent struct {
	Type       string `json:"type"` // "database_id", "page_id", "workspace", "block_id"
	DatabaseID string `json:"database_id,omitempty"`
	PageID     string `json:"page_id,omitempty"`
	BlockID    string `json:"block_id,omitempty"`
	Workspace  bool   `json:"workspace,omitempty"`
}

// ID returns the id of the parent object, or "" for the workspace.
func (p Parent) ID() string {
	switch p.Type {
	case "database_id":
		return p.DatabaseID
	case "page_id":
		return p.PageID
	case "block_id":
		return p.BlockID
	default:
		return ""
	}
}

// User represents a Notion user or bot.
type User struct {
	Object    string         `json:"object"`
	ID        string         `json:"id"`
	Type      string         `json:"type,omitempty"` // "person" or "bot"
	Name      string         `json:"name,omitempty"`
	AvatarURL *string        `json:"avatar_url,omitempty"`
	Person    *PersonDetails `json:"person,omitempty"`
	Bot       *BotDetails    `json:"bot,omitempty"`
}

// PersonDetails contains person-specific details.
type PersonDetails struct {
	Email string `json:"email"`
}

// BotDetails contains bot-specific details.
type BotDetails struct {
	WorkspaceName string `json:"workspace_name,omitempty"`
}

// DisplayName returns the user's name, falling back to its id.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.ID
}

// Icon represents a page, database or callout icon.
type Icon struct {
	Type     string `json:"type"` // "emoji", "external", "file"
	Emoji    string `json:"emoji,omitempty"`
	External *File  `json:"external,omitempty"`
	File     *File  `json:"file,omitempty"`
}

// File represents a file reference.
type File struct {
	URL        string     `json:"url"`
	ExpiryTime *time.Time `json:"expiry_time,omitempty"`
}

// FileObject is a Notion-hosted or external file, as found in files properties and covers.
type FileObject struct {
	Name     string `json:"name,omitempty"`
	Type     string `json:"type"` // "file" or "external"
	File     *File  `json:"file,omitempty"`
	External *File  `json:"external,omitempty"`
}

// URL returns the location of the file, whichever variant holds it.
func (f *FileObject) URL() string {
	if f == nil {
		return ""
	}
	if f.File != nil {
		return f.File.URL
	}
	if f.External != nil {
		return f.External.URL
	}
	return ""
}

// SelectOption represents a select, multi_select or status option.
type SelectOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// DateValue represents a date or date range. Start and End are ISO-8601 strings.
type DateValue struct {
	Start    string  `json:"start"`
	End      *string `json:"end,omitempty"`
	TimeZone *string `json:"time_zone,omitempty"`
}

// FormulaValue represents a formula result.
type FormulaValue struct {
	Type    string     `json:"type"` // "string", "number", "boolean", "date"
	String  *string    `json:"string,omitempty"`
	Number  *float64   `json:"number,omitempty"`
	Boolean *bool      `json:"boolean,omitempty"`
	Date    *DateValue `json:"date,omitempty"`
}

// RelationValue represents a relation to another page.
type RelationValue struct {
	ID string `json:"id"`
}

// RollupValue represents a rollup result.
type RollupValue struct {
	Type     string          `json:"type"` // "number", "date", "array", "unsupported", "incomplete"
	Number   *float64        `json:"number,omitempty"`
	Date     *DateValue      `json:"date,omitempty"`
	Array    []PropertyValue `json:"array"`
	Function string          `json:"function,omitempty"`
}

// UniqueIDValue represents a unique_id property value.
type UniqueIDValue struct {
	Prefix *string `json:"prefix,omitempty"`
	Number int     `json:"number"`
}

// Page represents a Notion page (including database rows).
type Page struct {
	Object         string                   `json:"object"`
	ID             string                   `json:"id"`
	CreatedTime    time.Time                `json:"created_time"`
	LastEditedTime time.Time                `json:"last_edited_time"`
	CreatedBy      *User                    `json:"created_by,omitempty"`
	LastEditedBy   *User                    `json:"last_edited_by,omitempty"`
	Parent         Parent                   `json:"parent"`
	Archived       bool                     `json:"archived"`
	InTrash        bool                     `json:"in_trash,omitempty"`
	Icon           *Icon                    `json:"icon,omitempty"`
	Cover          *FileObject              `json:"cover,omitempty"`
	Properties     map[string]PropertyValue `json:"properties"`
	URL            string                   `json:"url"`
	PublicURL      *string                  `json:"public_url,omitempty"`
}

// Title returns the rich text of the page's title property.
//
// A page has at most one title property; a page without one has an empty title.
func (p *Page) Title() []RichText {
	for _, prop := range p.Properties {
		if prop.Type == PropertyTitle && !prop.Null {
			return prop.Title
		}
	}
	return nil
}

// Database represents a Notion database.
//
// Properties hold the database schema. Kinds whose schema shape differs from the value shape
// decode as null variants that still carry the property id, name and kind.
type Database struct {
	Object         string                   `json:"object"`
	ID             string                   `json:"id"`
	CreatedTime    time.Time                `json:"created_time"`
	LastEditedTime time.Time                `json:"last_edited_time"`
	CreatedBy      *User                    `json:"created_by,omitempty"`
	LastEditedBy   *User                    `json:"last_edited_by,omitempty"`
	Title          []RichText               `json:"title"`
	Description    []RichText               `json:"description"`
	Icon           *Icon                    `json:"icon,omitempty"`
	Cover          *FileObject              `json:"cover,omitempty"`
	Properties     map[string]PropertyValue `json:"properties"`
	Parent         Parent                   `json:"parent"`
	URL            string                   `json:"url"`
	PublicURL      *string                  `json:"public_url,omitempty"`
	Archived       bool                     `json:"archived"`
	InTrash        bool                     `json:"in_trash,omitempty"`
	IsInline       bool                     `json:"is_inline"`
}

// Comment represents a comment on a page or block.
//
// Replies in the same thread share a DiscussionID.
type Comment struct {
	Object         string     `json:"object"`
	ID             string     `json:"id"`
	Parent         Parent     `json:"parent"`
	DiscussionID   string     `json:"discussion_id"`
	CreatedTime    time.Time  `json:"created_time"`
	LastEditedTime time.Time  `json:"last_edited_time"`
	CreatedBy      User       `json:"created_by"`
	RichText       []RichText `json:"rich_text"`
}
