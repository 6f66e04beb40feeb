// Implements the database endpoints.

package notion

import (
	"context"

	"github.com/adamwulf/hunch-sub000/internal/jsonvalue"
)

// FetchDatabases returns the databases shared with the integration.
func (c *Client) FetchDatabases(ctx context.Context, limit int) ([]Database, error) {
	results, err := c.Search(ctx, SearchQuery{Object: "database"}, limit)
	if err != nil {
		return nil, err
	}
	dbs := make([]Database, 0, len(results))
	for _, r := range results {
		if r.Database != nil {
			dbs = append(dbs, *r.Database)
		}
	}
	return dbs, nil
}

// RetrieveDatabase retrieves a database and its property schema.
func (c *Client) RetrieveDatabase(ctx context.Context, id string) (*Database, error) {
	p, err := objectPath("databases", id)
	if err != nil {
		return nil, err
	}
	return fetch[Database](ctx, c, getRequest(p, nil))
}

type queryBody struct {
	Filter *jsonvalue.Value `json:"filter,omitempty"`
	Sorts  *jsonvalue.Value `json:"sorts,omitempty"`
	pageBody
}

// QueryDatabase returns the rows of a database. Filter and Sorts of q are sent as is.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, q PageQuery, limit int) ([]Page, error) {
	p, err := objectPath("databases", databaseID, "query")
	if err != nil {
		return nil, err
	}
	body := queryBody{Filter: q.Filter, Sorts: q.Sorts}
	return collect(ctx, limit, func(ctx context.Context, cursor string, pageSize int) (*PaginatedResponse[Page], error) {
		b := body
		b.pageBody = pageBody{StartCursor: cursor, PageSize: pageSize}
		return fetch[PaginatedResponse[Page]](ctx, c, queryRequest(p, b))
	})
}
