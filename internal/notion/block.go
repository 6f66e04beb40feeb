// Defines Notion blocks and their codec.

package notion

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"time"
)

// BlockType is the type tag of a block.
type BlockType string

// Block types.
const (
	BlockParagraph        BlockType = "paragraph"
	BlockHeading1         BlockType = "heading_1"
	BlockHeading2         BlockType = "heading_2"
	BlockHeading3         BlockType = "heading_3"
	BlockBulletedListItem BlockType = "bulleted_list_item"
	BlockNumberedListItem BlockType = "numbered_list_item"
	BlockToDo             BlockType = "to_do"
	BlockToggle           BlockType = "toggle"
	BlockCode             BlockType = "code"
	BlockQuote            BlockType = "quote"
	BlockCallout          BlockType = "callout"
	BlockDivider          BlockType = "divider"
	BlockTableOfContents  BlockType = "table_of_contents"
	BlockBreadcrumb       BlockType = "breadcrumb"
	BlockColumnList       BlockType = "column_list"
	BlockColumn           BlockType = "column"
	BlockImage            BlockType = "image"
	BlockVideo            BlockType = "video"
	BlockAudio            BlockType = "audio"
	BlockFile             BlockType = "file"
	BlockPDF              BlockType = "pdf"
	BlockBookmark         BlockType = "bookmark"
	BlockEmbed            BlockType = "embed"
	BlockLinkPreview      BlockType = "link_preview"
	BlockEquation         BlockType = "equation"
	BlockSyncedBlock      BlockType = "synced_block"
	BlockTable            BlockType = "table"
	BlockTableRow         BlockType = "table_row"
	BlockChildPage        BlockType = "child_page"
	BlockChildDatabase    BlockType = "child_database"
	BlockLinkToPage       BlockType = "link_to_page"
	BlockTemplate         BlockType = "template"
	BlockUnsupported      BlockType = "unsupported"
)

// IsListItem reports whether blocks of this type render as list entries.
func (t BlockType) IsListItem() bool {
	return t == BlockBulletedListItem || t == BlockNumberedListItem || t == BlockToDo
}

// IsContainer reports whether blocks of this type only group their children for layout.
func (t BlockType) IsContainer() bool {
	return t == BlockColumnList || t == BlockColumn || t == BlockSyncedBlock
}

// Block represents a Notion block.
//
// Only the field matching Type holds the payload. It is nil when the payload could not be
// decoded or the type is unknown to this client.
//
// Children is not part of the wire format: it is empty after decoding and only filled by tree
// materialization. It stays empty whenever HasChildren is false.
type Block struct {
	Object         string    `json:"object"`
	ID             string    `json:"id"`
	Parent         Parent    `json:"parent"`
	Type           BlockType `json:"type"`
	CreatedTime    time.Time `json:"created_time"`
	CreatedBy      *User     `json:"created_by,omitempty"`
	LastEditedTime time.Time `json:"last_edited_time"`
	LastEditedBy   *User     `json:"last_edited_by,omitempty"`
	Archived       bool      `json:"archived"`
	InTrash        bool      `json:"in_trash"`
	HasChildren    bool      `json:"has_children"`

	Paragraph        *ParagraphBlock       `json:"paragraph,omitempty"`
	Heading1         *HeadingBlock         `json:"heading_1,omitempty"`
	Heading2         *HeadingBlock         `json:"heading_2,omitempty"`
	Heading3         *HeadingBlock         `json:"heading_3,omitempty"`
	BulletedListItem *ListItemBlock        `json:"bulleted_list_item,omitempty"`
	NumberedListItem *ListItemBlock        `json:"numbered_list_item,omitempty"`
	ToDo             *ToDoBlock            `json:"to_do,omitempty"`
	Toggle           *ToggleBlock          `json:"toggle,omitempty"`
	Code             *CodeBlock            `json:"code,omitempty"`
	Quote            *QuoteBlock           `json:"quote,omitempty"`
	Callout          *CalloutBlock         `json:"callout,omitempty"`
	Divider          *struct{}             `json:"divider,omitempty"`
	TableOfContents  *TableOfContentsBlock `json:"table_of_contents,omitempty"`
	Breadcrumb       *struct{}             `json:"breadcrumb,omitempty"`
	ColumnList       *struct{}             `json:"column_list,omitempty"`
	Column           *ColumnBlock          `json:"column,omitempty"`
	Image            *MediaBlock           `json:"image,omitempty"`
	Video            *MediaBlock           `json:"video,omitempty"`
	Audio            *MediaBlock           `json:"audio,omitempty"`
	File             *MediaBlock           `json:"file,omitempty"`
	PDF              *MediaBlock           `json:"pdf,omitempty"`
	Bookmark         *BookmarkBlock        `json:"bookmark,omitempty"`
	Embed            *EmbedBlock           `json:"embed,omitempty"`
	LinkPreview      *LinkPreviewBlock     `json:"link_preview,omitempty"`
	Equation         *EquationBlock        `json:"equation,omitempty"`
	SyncedBlock      *SyncedBlockContent   `json:"synced_block,omitempty"`
	Table            *TableBlock           `json:"table,omitempty"`
	TableRow         *TableRowBlock        `json:"table_row,omitempty"`
	ChildPage        *ChildPageBlock       `json:"child_page,omitempty"`
	ChildDatabase    *ChildDatabaseBlock   `json:"child_database,omitempty"`
	LinkToPage       *LinkToPageBlock      `json:"link_to_page,omitempty"`
	Template         *TemplateBlock        `json:"template,omitempty"`
	Unsupported      *struct{}             `json:"unsupported,omitempty"`

	Children []Block `json:"-"`
}

// ParagraphBlock represents a paragraph block.
type ParagraphBlock struct {
	RichText []RichText `json:"rich_text"`
	Color    string     `json:"color"`
}

// HeadingBlock represents a heading block.
type HeadingBlock struct {
	RichText     []RichText `json:"rich_text"`
	Color        string     `json:"color"`
	IsToggleable bool       `json:"is_toggleable"`
}

// ListItemBlock represents a list item block.
type ListItemBlock struct {
	RichText []RichText `json:"rich_text"`
	Color    string     `json:"color"`
}

// ToDoBlock represents a to-do block.
type ToDoBlock struct {
	RichText []RichText `json:"rich_text"`
	Checked  bool       `json:"checked"`
	Color    string     `json:"color"`
}

// ToggleBlock represents a toggle block.
type ToggleBlock struct {
	RichText []RichText `json:"rich_text"`
	Color    string     `json:"color"`
}

// CodeBlock represents a code block.
type CodeBlock struct {
	RichText []RichText `json:"rich_text"`
	Caption  []RichText `json:"caption"`
	Language string     `json:"language"`
}

// QuoteBlock represents a quote block.
type QuoteBlock struct {
	RichText []RichText `json:"rich_text"`
	Color    string     `json:"color"`
}

// CalloutBlock represents a callout block.
type CalloutBlock struct {
	RichText []RichText `json:"rich_text"`
	Icon     *Icon      `json:"icon,omitempty"`
	Color    string     `json:"color"`
}

// TableOfContentsBlock represents a table of contents block.
type TableOfContentsBlock struct {
	Color string `json:"color"`
}

// ColumnBlock represents one column of a column list.
type ColumnBlock struct {
	WidthRatio *float64 `json:"width_ratio,omitempty"`
}

// MediaBlock represents an image, video, audio, file, or PDF block.
type MediaBlock struct {
	Type     string     `json:"type"` // "file" or "external"
	File     *File      `json:"file,omitempty"`
	External *File      `json:"external,omitempty"`
	Caption  []RichText `json:"caption,omitempty"`
	Name     string     `json:"name,omitempty"`
}

// URL returns the location of the media, whichever variant holds it.
func (m *MediaBlock) URL() string {
	if m == nil {
		return ""
	}
	if m.File != nil {
		return m.File.URL
	}
	if m.External != nil {
		return m.External.URL
	}
	return ""
}

// BookmarkBlock represents a bookmark block.
type BookmarkBlock struct {
	URL     string     `json:"url"`
	Caption []RichText `json:"caption"`
}

// EmbedBlock represents an embed block.
type EmbedBlock struct {
	URL     string     `json:"url"`
	Caption []RichText `json:"caption,omitempty"`
}

// LinkPreviewBlock represents a link preview block.
type LinkPreviewBlock struct {
	URL string `json:"url"`
}

// EquationBlock represents an equation block.
type EquationBlock struct {
	Expression string `json:"expression"`
}

// SyncedBlockContent represents synced block content.
//
// SyncedFrom is nil for the original synced block.
type SyncedBlockContent struct {
	SyncedFrom *SyncedFrom `json:"synced_from,omitempty"`
}

// SyncedFrom indicates where a synced block is synced from.
type SyncedFrom struct {
	Type    string `json:"type,omitempty"`
	BlockID string `json:"block_id"`
}

// TableBlock represents a table block. Rows are its children.
type TableBlock struct {
	TableWidth      int  `json:"table_width"`
	HasColumnHeader bool `json:"has_column_header"`
	HasRowHeader    bool `json:"has_row_header"`
}

// TableRowBlock represents a table row block.
type TableRowBlock struct {
	Cells [][]RichText `json:"cells"`
}

// ChildPageBlock represents a child page block.
type ChildPageBlock struct {
	Title string `json:"title"`
}

// ChildDatabaseBlock represents a child database block.
type ChildDatabaseBlock struct {
	Title string `json:"title"`
}

// LinkToPageBlock represents a link to a page or database.
type LinkToPageBlock struct {
	Type       string `json:"type"` // "page_id" or "database_id"
	PageID     string `json:"page_id,omitempty"`
	DatabaseID string `json:"database_id,omitempty"`
}

// TemplateBlock represents a template button.
type TemplateBlock struct {
	RichText []RichText `json:"rich_text"`
}

// blockPayloads maps each block type to the address of its payload field.
var blockPayloads = map[BlockType]func(b *Block) any{
	BlockParagraph:        func(b *Block) any { return &b.Paragraph },
	BlockHeading1:         func(b *Block) any { return &b.Heading1 },
	BlockHeading2:         func(b *Block) any { return &b.Heading2 },
	BlockHeading3:         func(b *Block) any { return &b.Heading3 },
	BlockBulletedListItem: func(b *Block) any { return &b.BulletedListItem },
	BlockNumberedListItem: func(b *Block) any { return &b.NumberedListItem },
	BlockToDo:             func(b *Block) any { return &b.ToDo },
	BlockToggle:           func(b *Block) any { return &b.Toggle },
	BlockCode:             func(b *Block) any { return &b.Code },
	BlockQuote:            func(b *Block) any { return &b.Quote },
	BlockCallout:          func(b *Block) any { return &b.Callout },
	BlockDivider:          func(b *Block) any { return &b.Divider },
	BlockTableOfContents:  func(b *Block) any { return &b.TableOfContents },
	BlockBreadcrumb:       func(b *Block) any { return &b.Breadcrumb },
	BlockColumnList:       func(b *Block) any { return &b.ColumnList },
	BlockColumn:           func(b *Block) any { return &b.Column },
	BlockImage:            func(b *Block) any { return &b.Image },
	BlockVideo:            func(b *Block) any { return &b.Video },
	BlockAudio:            func(b *Block) any { return &b.Audio },
	BlockFile:             func(b *Block) any { return &b.File },
	BlockPDF:              func(b *Block) any { return &b.PDF },
	BlockBookmark:         func(b *Block) any { return &b.Bookmark },
	BlockEmbed:            func(b *Block) any { return &b.Embed },
	BlockLinkPreview:      func(b *Block) any { return &b.LinkPreview },
	BlockEquation:         func(b *Block) any { return &b.Equation },
	BlockSyncedBlock:      func(b *Block) any { return &b.SyncedBlock },
	BlockTable:            func(b *Block) any { return &b.Table },
	BlockTableRow:         func(b *Block) any { return &b.TableRow },
	BlockChildPage:        func(b *Block) any { return &b.ChildPage },
	BlockChildDatabase:    func(b *Block) any { return &b.ChildDatabase },
	BlockLinkToPage:       func(b *Block) any { return &b.LinkToPage },
	BlockTemplate:         func(b *Block) any { return &b.Template },
	BlockUnsupported:      func(b *Block) any { return &b.Unsupported },
}

// HasPayload reports whether the payload of the block's type was decoded.
func (b *Block) HasPayload() bool {
	field, ok := blockPayloads[b.Type]
	if !ok {
		return false
	}
	return !reflect.ValueOf(field(b)).Elem().IsNil()
}

// RichText returns the main text of text-like blocks, nil for the others.
func (b *Block) RichText() []RichText {
	switch {
	case b.Paragraph != nil:
		return b.Paragraph.RichText
	case b.Heading1 != nil:
		return b.Heading1.RichText
	case b.Heading2 != nil:
		return b.Heading2.RichText
	case b.Heading3 != nil:
		return b.Heading3.RichText
	case b.BulletedListItem != nil:
		return b.BulletedListItem.RichText
	case b.NumberedListItem != nil:
		return b.NumberedListItem.RichText
	case b.ToDo != nil:
		return b.ToDo.RichText
	case b.Toggle != nil:
		return b.Toggle.RichText
	case b.Code != nil:
		return b.Code.RichText
	case b.Quote != nil:
		return b.Quote.RichText
	case b.Callout != nil:
		return b.Callout.RichText
	case b.Template != nil:
		return b.Template.RichText
	}
	return nil
}

// Media returns the payload of image, video, audio, file and pdf blocks.
func (b *Block) Media() *MediaBlock {
	switch b.Type {
	case BlockImage:
		return b.Image
	case BlockVideo:
		return b.Video
	case BlockAudio:
		return b.Audio
	case BlockFile:
		return b.File
	case BlockPDF:
		return b.PDF
	}
	return nil
}

// blockEnvelope holds the block metadata shared by every type.
type blockEnvelope struct {
	Object         string    `json:"object"`
	ID             string    `json:"id"`
	Parent         Parent    `json:"parent"`
	Type           BlockType `json:"type"`
	CreatedTime    time.Time `json:"created_time"`
	CreatedBy      *User     `json:"created_by"`
	LastEditedTime time.Time `json:"last_edited_time"`
	LastEditedBy   *User     `json:"last_edited_by"`
	Archived       bool      `json:"archived"`
	InTrash        bool      `json:"in_trash"`
	HasChildren    bool      `json:"has_children"`
}

// UnmarshalJSON decodes the envelope, then the payload named by the type tag.
//
// A payload that does not fit its type is logged and dropped; the block keeps its metadata.
func (b *Block) UnmarshalJSON(data []byte) error {
	var env blockEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to decode block: %w", err)
	}
	*b = Block{
		Object:         env.Object,
		ID:             env.ID,
		Parent:         env.Parent,
		Type:           env.Type,
		CreatedTime:    env.CreatedTime,
		CreatedBy:      env.CreatedBy,
		LastEditedTime: env.LastEditedTime,
		LastEditedBy:   env.LastEditedBy,
		Archived:       env.Archived,
		InTrash:        env.InTrash,
		HasChildren:    env.HasChildren,
	}
	field, known := blockPayloads[env.Type]
	if !known {
		slog.Debug("notion: unknown block type", "id", env.ID, "type", env.Type)
		return nil
	}
	raw, _, ok := member(data, string(env.Type))
	if !ok {
		slog.Debug("notion: block without payload", "id", env.ID, "type", env.Type)
		return nil
	}
	if err := json.Unmarshal(raw, field(b)); err != nil {
		// Reset whatever was partially decoded.
		reflect.ValueOf(field(b)).Elem().SetZero()
		slog.Debug("notion: block payload dropped", "id", env.ID, "type", env.Type, "err", err)
	}
	return nil
}

// blockWire is the envelope as emitted; zero metadata is omitted so that blocks built locally
// can be sent to the append endpoint.
type blockWire struct {
	Object         string     `json:"object,omitempty"`
	ID             string     `json:"id,omitempty"`
	Parent         *Parent    `json:"parent,omitempty"`
	Type           BlockType  `json:"type"`
	CreatedTime    *time.Time `json:"created_time,omitempty"`
	CreatedBy      *User      `json:"created_by,omitempty"`
	LastEditedTime *time.Time `json:"last_edited_time,omitempty"`
	LastEditedBy   *User      `json:"last_edited_by,omitempty"`
	Archived       bool       `json:"archived,omitempty"`
	InTrash        bool       `json:"in_trash,omitempty"`
	HasChildren    bool       `json:"has_children,omitempty"`
}

// MarshalJSON emits the envelope and the payload of the block's type. Children are not emitted.
func (b Block) MarshalJSON() ([]byte, error) {
	w := blockWire{
		Object:       b.Object,
		ID:           b.ID,
		Type:         b.Type,
		CreatedBy:    b.CreatedBy,
		LastEditedBy: b.LastEditedBy,
		Archived:     b.Archived,
		InTrash:      b.InTrash,
		HasChildren:  b.HasChildren,
	}
	if b.Parent != (Parent{}) {
		w.Parent = &b.Parent
	}
	if !b.CreatedTime.IsZero() {
		w.CreatedTime = &b.CreatedTime
	}
	if !b.LastEditedTime.IsZero() {
		w.LastEditedTime = &b.LastEditedTime
	}
	out, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	if !b.HasPayload() {
		return out, nil
	}
	raw, err := json.Marshal(blockPayloads[b.Type](&b))
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s block: %w", b.Type, err)
	}
	return appendMember(out, string(b.Type), raw), nil
}

// MarshalBlockTree encodes materialized blocks, adding a "children" array to every block that
// has children.
func MarshalBlockTree(blocks []Block) ([]byte, error) {
	out := []byte{'['}
	for i := range blocks {
		if i > 0 {
			out = append(out, ',')
		}
		raw, err := MarshalBlockNode(&blocks[i])
		if err != nil {
			return nil, err
		}
		out = append(out, raw...)
	}
	return append(out, ']'), nil
}

// MarshalBlockNode encodes one block with its children, as MarshalBlockTree does.
func MarshalBlockNode(b *Block) ([]byte, error) {
	raw, err := b.MarshalJSON()
	if err != nil {
		return nil, err
	}
	if len(b.Children) == 0 {
		return raw, nil
	}
	children, err := MarshalBlockTree(b.Children)
	if err != nil {
		return nil, err
	}
	return appendMember(raw, "children", children), nil
}

// UnmarshalBlockTree decodes the output of MarshalBlockTree.
func UnmarshalBlockTree(data []byte) ([]Block, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("failed to decode block tree: %w", err)
	}
	blocks := make([]Block, len(raws))
	for i, raw := range raws {
		if err := blocks[i].UnmarshalJSON(raw); err != nil {
			return nil, err
		}
		if children, _, ok := member(raw, "children"); ok {
			var err error
			if blocks[i].Children, err = UnmarshalBlockTree(children); err != nil {
				return nil, err
			}
		}
	}
	return blocks, nil
}
