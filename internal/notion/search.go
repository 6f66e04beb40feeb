// Implements the search endpoint.

package notion

import (
	"context"
	"fmt"
)

// SearchQuery selects the pages and databases returned by Search.
type SearchQuery struct {
	// Query matches titles; empty matches everything shared with the integration.
	Query string
	// Object restricts results to "page" or "database"; empty returns both.
	Object string
	// Sort orders results by last edited time when set.
	Sort *SearchSort
}

// SearchSort is the sort order of the search endpoint.
type SearchSort struct {
	Direction string `json:"direction"` // "ascending" or "descending"
	Timestamp string `json:"timestamp"` // "last_edited_time"
}

type searchFilter struct {
	Value    string `json:"value"`
	Property string `json:"property"`
}

type searchBody struct {
	Query  string        `json:"query,omitempty"`
	Filter *searchFilter `json:"filter,omitempty"`
	Sort   *SearchSort   `json:"sort,omitempty"`
	pageBody
}

// Search returns pages and databases matching q, at most limit of them (0 for all).
func (c *Client) Search(ctx context.Context, q SearchQuery, limit int) ([]SearchResult, error) {
	body := searchBody{Query: q.Query, Sort: q.Sort}
	switch q.Object {
	case "":
	case "page", "database":
		body.Filter = &searchFilter{Value: q.Object, Property: "object"}
	default:
		return nil, fmt.Errorf("%w: cannot search for %q objects", ErrInvalidEndpoint, q.Object)
	}
	return collect(ctx, limit, func(ctx context.Context, cursor string, pageSize int) (*PaginatedResponse[SearchResult], error) {
		b := body
		b.pageBody = pageBody{StartCursor: cursor, PageSize: pageSize}
		return fetch[PaginatedResponse[SearchResult]](ctx, c, queryRequest("/search", b))
	})
}
