// Implements the user endpoints.

package notion

import (
	"context"
)

// FetchUsers returns the users of the workspace.
func (c *Client) FetchUsers(ctx context.Context, limit int) ([]User, error) {
	return collect(ctx, limit, func(ctx context.Context, cursor string, pageSize int) (*PaginatedResponse[User], error) {
		return fetch[PaginatedResponse[User]](ctx, c, getRequest("/users", cursorQuery(cursor, pageSize)))
	})
}

// RetrieveUser retrieves one user.
func (c *Client) RetrieveUser(ctx context.Context, id string) (*User, error) {
	p, err := objectPath("users", id)
	if err != nil {
		return nil, err
	}
	return fetch[User](ctx, c, getRequest(p, nil))
}

// Me returns the bot user of the integration token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	return fetch[User](ctx, c, getRequest("/users/me", nil))
}
