// Implements cursor pagination over list endpoints.

package notion

import (
	"context"
	"net/url"
	"strconv"
)

// pageFunc fetches one page of results starting at cursor ("" for the first page).
type pageFunc[T any] func(ctx context.Context, cursor string, pageSize int) (*PaginatedResponse[T], error)

// collect calls fn until the server reports no more results or limit results were gathered.
//
// A limit <= 0 means no limit. Results keep the server order. On error nothing is returned,
// even the pages already gathered.
func collect[T any](ctx context.Context, limit int, fn pageFunc[T]) ([]T, error) {
	var results []T
	var cursor string
	for {
		pageSize := MaxPageSize
		if limit > 0 {
			pageSize = min(pageSize, limit-len(results))
		}
		resp, err := fn(ctx, cursor, pageSize)
		if err != nil {
			return nil, err
		}
		results = append(results, resp.Results...)
		if limit > 0 && len(results) >= limit {
			return results[:limit], nil
		}
		if !resp.HasMore || resp.NextCursor == nil || *resp.NextCursor == "" {
			return results, nil
		}
		cursor = *resp.NextCursor
	}
}

// cursorQuery returns the query parameters of a paginated GET.
func cursorQuery(cursor string, pageSize int) url.Values {
	q := url.Values{"page_size": {strconv.Itoa(pageSize)}}
	if cursor != "" {
		q.Set("start_cursor", cursor)
	}
	return q
}

// pageBody is embedded in the body of paginated POSTs.
type pageBody struct {
	StartCursor string `json:"start_cursor,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
}
