// Caches materialized block trees so an interrupted export resumes without refetching.

package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/adamwulf/hunch-sub000/internal/jsonl"
	"github.com/adamwulf/hunch-sub000/internal/notion"
)

// snapshot is the block tree of a page as of its last edit.
type snapshot struct {
	PageID     string          `json:"page_id"`
	LastEdited time.Time       `json:"last_edited_time"`
	MaxDepth   int             `json:"max_depth,omitempty"`
	Blocks     json.RawMessage `json:"blocks"`
}

func (s snapshot) Key() string { return s.PageID }

// checkpoint stores one snapshot per page.
type checkpoint struct {
	table *jsonl.Table[snapshot]
}

func openCheckpoint(path string) (*checkpoint, error) {
	t, err := jsonl.Open[snapshot](path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint: %w", err)
	}
	slog.Debug("export: checkpoint loaded", "path", path, "pages", t.Len())
	return &checkpoint{table: t}, nil
}

// blocks returns the cached tree of page if it was fetched after the page's last edit with the
// same depth limit.
func (c *checkpoint) blocks(page *notion.Page, maxDepth int) ([]notion.Block, bool) {
	s, ok := c.table.Get(page.ID)
	if !ok || !s.LastEdited.Equal(page.LastEditedTime) || s.MaxDepth != maxDepth {
		return nil, false
	}
	blocks, err := notion.UnmarshalBlockTree(s.Blocks)
	if err != nil {
		return nil, false
	}
	return blocks, true
}

func (c *checkpoint) store(page *notion.Page, maxDepth int, blocks []notion.Block) error {
	raw, err := notion.MarshalBlockTree(blocks)
	if err != nil {
		return fmt.Errorf("failed to encode blocks: %w", err)
	}
	return c.table.Put(snapshot{PageID: page.ID, LastEdited: page.LastEditedTime, MaxDepth: maxDepth, Blocks: raw})
}

func (c *checkpoint) compact() error {
	return c.table.Compact()
}
