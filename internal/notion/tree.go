// Implements block tree materialization.

package notion

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// TreeOptions controls FetchBlocks.
type TreeOptions struct {
	// MaxDepth stops expansion below this many levels; 0 means unlimited. Blocks at the last
	// level keep HasChildren but have no Children.
	MaxDepth int
	// Concurrency is the number of sibling subtrees fetched at once at each level. Values <= 1
	// fetch depth-first sequentially. The result order never depends on it.
	Concurrency int
}

// ancestry is the chain of block ids from the root down to the block being expanded.
type ancestry struct {
	id     string
	parent *ancestry
}

func (a *ancestry) contains(id string) bool {
	for ; a != nil; a = a.parent {
		if a.id == id {
			return true
		}
	}
	return false
}

// FetchBlocks returns the children of the page or block rootID with every descendant attached.
//
// Each block whose HasChildren is set is replaced by a copy holding its materialized Children.
// A block id repeated on its own ancestor path returns ErrDataCorrupted.
func (c *Client) FetchBlocks(ctx context.Context, rootID string, opts TreeOptions) ([]Block, error) {
	id, err := NormalizeID(rootID)
	if err != nil {
		return nil, err
	}
	return c.materialize(ctx, &ancestry{id: id}, 1, opts)
}

func (c *Client) materialize(ctx context.Context, path *ancestry, depth int, opts TreeOptions) ([]Block, error) {
	blocks, err := c.FetchBlockChildren(ctx, path.id, 0)
	if err != nil {
		return nil, err
	}
	slog.Debug("notion: expanding level", "parent", path.id, "depth", depth, "blocks", len(blocks))
	out := make([]Block, len(blocks))
	expand := func(ctx context.Context, i int) error {
		b := blocks[i]
		if !b.HasChildren || (opts.MaxDepth > 0 && depth >= opts.MaxDepth) {
			out[i] = b
			return nil
		}
		id, err := NormalizeID(b.ID)
		if err != nil {
			return err
		}
		if path.contains(id) {
			return fmt.Errorf("%w: block %s is its own ancestor", ErrDataCorrupted, id)
		}
		children, err := c.materialize(ctx, &ancestry{id: id, parent: path}, depth+1, opts)
		if err != nil {
			return err
		}
		b.Children = children
		out[i] = b
		return nil
	}

	if opts.Concurrency <= 1 {
		for i := range blocks {
			if err := expand(ctx, i); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i := range blocks {
		i := i
		g.Go(func() error { return expand(gctx, i) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
