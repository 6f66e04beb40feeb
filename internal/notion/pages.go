// Implements the page endpoints.

package notion

import (
	"context"
	"fmt"
	"net/http"

	"github.com/adamwulf/hunch-sub000/internal/jsonvalue"
)

// PageQuery selects the pages returned by FetchPages.
type PageQuery struct {
	// DatabaseID queries the rows of this database. When empty, pages are searched.
	DatabaseID string
	// Query is the search text, used when DatabaseID is empty.
	Query string
	// Filter and Sorts are database query clauses passed through unchanged.
	Filter *jsonvalue.Value
	Sorts  *jsonvalue.Value
}

// FetchPages returns database rows or, without a database, the pages matching the search.
func (c *Client) FetchPages(ctx context.Context, q PageQuery, limit int) ([]Page, error) {
	if q.DatabaseID != "" {
		return c.QueryDatabase(ctx, q.DatabaseID, q, limit)
	}
	if q.Filter != nil || q.Sorts != nil {
		return nil, fmt.Errorf("%w: filter and sorts need a database", ErrInvalidEndpoint)
	}
	results, err := c.Search(ctx, SearchQuery{Query: q.Query, Object: "page"}, limit)
	if err != nil {
		return nil, err
	}
	pages := make([]Page, 0, len(results))
	for _, r := range results {
		if r.Page != nil {
			pages = append(pages, *r.Page)
		}
	}
	return pages, nil
}

// RetrievePage retrieves a page and its properties.
func (c *Client) RetrievePage(ctx context.Context, id string) (*Page, error) {
	p, err := objectPath("pages", id)
	if err != nil {
		return nil, err
	}
	return fetch[Page](ctx, c, getRequest(p, nil))
}

// CreatePageRequest is the body of CreatePage.
type CreatePageRequest struct {
	Parent     Parent                   `json:"parent"`
	Properties map[string]PropertyValue `json:"properties"`
	Children   []Block                  `json:"children,omitempty"`
	Icon       *Icon                    `json:"icon,omitempty"`
	Cover      *FileObject              `json:"cover,omitempty"`
}

// CreatePage creates a page. It is sent once and never retried.
func (c *Client) CreatePage(ctx context.Context, req *CreatePageRequest) (*Page, error) {
	switch req.Parent.Type {
	case "page_id", "database_id":
		id, err := NormalizeID(req.Parent.ID())
		if err != nil {
			return nil, err
		}
		parent := Parent{Type: req.Parent.Type}
		if req.Parent.Type == "page_id" {
			parent.PageID = id
		} else {
			parent.DatabaseID = id
		}
		r := *req
		r.Parent = parent
		return fetch[Page](ctx, c, writeRequest(http.MethodPost, "/pages", &r))
	default:
		return nil, fmt.Errorf("%w: page parent must be a page or a database, got %q", ErrInvalidEndpoint, req.Parent.Type)
	}
}

// UpdatePageRequest is the body of UpdatePage. Nil fields are left unchanged.
type UpdatePageRequest struct {
	Properties map[string]PropertyValue `json:"properties,omitempty"`
	Archived   *bool                    `json:"archived,omitempty"`
	Icon       *Icon                    `json:"icon,omitempty"`
	Cover      *FileObject              `json:"cover,omitempty"`
}

// UpdatePage updates page properties or archives it. It is sent once and never retried.
func (c *Client) UpdatePage(ctx context.Context, id string, req *UpdatePageRequest) (*Page, error) {
	p, err := objectPath("pages", id)
	if err != nil {
		return nil, err
	}
	return fetch[Page](ctx, c, writeRequest(http.MethodPatch, p, req))
}
