// Implements the block endpoints.

package notion

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
)

// RetrieveBlock retrieves one block, without its children.
func (c *Client) RetrieveBlock(ctx context.Context, id string) (*Block, error) {
	p, err := objectPath("blocks", id)
	if err != nil {
		return nil, err
	}
	return fetch[Block](ctx, c, getRequest(p, nil))
}

// FetchBlockChildren returns the direct children of a page or block.
func (c *Client) FetchBlockChildren(ctx context.Context, id string, limit int) ([]Block, error) {
	p, err := objectPath("blocks", id, "children")
	if err != nil {
		return nil, err
	}
	return collect(ctx, limit, func(ctx context.Context, cursor string, pageSize int) (*PaginatedResponse[Block], error) {
		return fetch[PaginatedResponse[Block]](ctx, c, getRequest(p, cursorQuery(cursor, pageSize)))
	})
}

// AppendBlockChildren appends blocks after the last child of id and returns the created blocks.
// It is sent once and never retried.
func (c *Client) AppendBlockChildren(ctx context.Context, id string, children []Block) ([]Block, error) {
	if len(children) == 0 || len(children) > MaxPageSize {
		return nil, fmt.Errorf("%w: can append 1 to %d blocks, got %d", ErrInvalidEndpoint, MaxPageSize, len(children))
	}
	p, err := objectPath("blocks", id, "children")
	if err != nil {
		return nil, err
	}
	body := struct {
		Children []Block `json:"children"`
	}{children}
	resp, err := fetch[PaginatedResponse[Block]](ctx, c, writeRequest(http.MethodPatch, p, body))
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// UpdateBlock replaces the content of block id with the payload of b. Only the payload matching
// b.Type is sent. It is sent once and never retried.
func (c *Client) UpdateBlock(ctx context.Context, id string, b *Block) (*Block, error) {
	field, ok := blockPayloads[b.Type]
	if !ok || !b.HasPayload() {
		return nil, fmt.Errorf("%w: block update needs a %q payload", ErrInvalidEndpoint, b.Type)
	}
	p, err := objectPath("blocks", id)
	if err != nil {
		return nil, err
	}
	update := Block{Type: b.Type}
	reflect.ValueOf(field(&update)).Elem().Set(reflect.ValueOf(field(b)).Elem())
	return fetch[Block](ctx, c, writeRequest(http.MethodPatch, p, update))
}

// DeleteBlock moves a block to the trash. It is sent once and never retried.
func (c *Client) DeleteBlock(ctx context.Context, id string) (*Block, error) {
	p, err := objectPath("blocks", id)
	if err != nil {
		return nil, err
	}
	return fetch[Block](ctx, c, writeRequest(http.MethodDelete, p, nil))
}
