// Implements the comment endpoints.

package notion

import (
	"context"
	"fmt"
	"net/http"
)

// FetchComments returns the unresolved comments of a page or block, oldest first.
func (c *Client) FetchComments(ctx context.Context, blockID string, limit int) ([]Comment, error) {
	id, err := NormalizeID(blockID)
	if err != nil {
		return nil, err
	}
	return collect(ctx, limit, func(ctx context.Context, cursor string, pageSize int) (*PaginatedResponse[Comment], error) {
		q := cursorQuery(cursor, pageSize)
		q.Set("block_id", id)
		return fetch[PaginatedResponse[Comment]](ctx, c, getRequest("/comments", q))
	})
}

// CreateCommentRequest is the body of CreateComment.
//
// Set PageID to start a new discussion on a page, or DiscussionID to reply in a thread.
type CreateCommentRequest struct {
	PageID       string
	DiscussionID string
	RichText     []RichText
}

type commentBody struct {
	Parent       *Parent    `json:"parent,omitempty"`
	DiscussionID string     `json:"discussion_id,omitempty"`
	RichText     []RichText `json:"rich_text"`
}

// CreateComment adds a comment. It is sent once and never retried.
func (c *Client) CreateComment(ctx context.Context, req *CreateCommentRequest) (*Comment, error) {
	var body commentBody
	switch {
	case req.PageID != "" && req.DiscussionID != "":
		return nil, fmt.Errorf("%w: comment needs a page or a discussion, not both", ErrInvalidEndpoint)
	case req.PageID != "":
		id, err := NormalizeID(req.PageID)
		if err != nil {
			return nil, err
		}
		body.Parent = &Parent{Type: "page_id", PageID: id}
	case req.DiscussionID != "":
		body.DiscussionID = req.DiscussionID
	default:
		return nil, fmt.Errorf("%w: comment needs a page or a discussion", ErrInvalidEndpoint)
	}
	body.RichText = req.RichText
	return fetch[Comment](ctx, c, writeRequest(http.MethodPost, "/comments", body))
}
