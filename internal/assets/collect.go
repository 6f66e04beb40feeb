// Collects the file URLs referenced by a page and its block tree.

package assets

import (
	"slices"

	"github.com/adamwulf/hunch-sub000/internal/notion"
)

// URLs returns the distinct file URLs referenced by page and blocks, in document order.
//
// It covers the page icon and cover, files properties, callout icons and media blocks. page may
// be nil.
func URLs(page *notion.Page, blocks []notion.Block) []string {
	c := collector{seen: map[string]bool{}}
	if page != nil {
		c.icon(page.Icon)
		c.add(page.Cover.URL())
		names := make([]string, 0, len(page.Properties))
		for name := range page.Properties {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			p := page.Properties[name]
			if p.Type != notion.PropertyFiles || p.Null {
				continue
			}
			for i := range p.Files {
				c.add(p.Files[i].URL())
			}
		}
	}
	c.blocks(blocks)
	return c.urls
}

type collector struct {
	seen map[string]bool
	urls []string
}

func (c *collector) add(u string) {
	if u == "" || c.seen[u] {
		return
	}
	c.seen[u] = true
	c.urls = append(c.urls, u)
}

func (c *collector) icon(icon *notion.Icon) {
	if icon == nil {
		return
	}
	switch {
	case icon.File != nil:
		c.add(icon.File.URL)
	case icon.External != nil:
		c.add(icon.External.URL)
	}
}

func (c *collector) blocks(blocks []notion.Block) {
	for i := range blocks {
		b := &blocks[i]
		if m := b.Media(); m != nil {
			c.add(m.URL())
		}
		if b.Type == notion.BlockCallout && b.Callout != nil {
			c.icon(b.Callout.Icon)
		}
		c.blocks(b.Children)
	}
}
