// Defines the errors returned by the client.

package notion

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingToken is returned when no API token is configured. No request is issued.
	ErrMissingToken = errors.New("notion: missing API token")
	// ErrInvalidEndpoint is returned when a request path or object id is malformed.
	ErrInvalidEndpoint = errors.New("notion: invalid endpoint")
	// ErrInvalidResponse is matched by every error caused by an unexpected HTTP status.
	ErrInvalidResponse = errors.New("notion: invalid response")
	// ErrDataCorrupted is returned when the block graph is not a tree.
	ErrDataCorrupted = errors.New("notion: data corrupted")
)

// StatusError is returned for a non-2xx response.
//
// Code and Message come from the Notion error object when the body holds one.
type StatusError struct {
	StatusCode int    `json:"status"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *StatusError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("notion: status %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// Is makes errors.Is(err, ErrInvalidResponse) match.
func (e *StatusError) Is(target error) bool {
	return target == ErrInvalidResponse
}

// RateLimitError is returned when the server kept answering 429 after every retry.
type RateLimitError struct {
	// RetryAfter is the delay requested by the last response.
	RetryAfter time.Duration
	// Retries is the number of retries made before giving up.
	Retries int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("notion: rate limited after %d retries (retry after %s)", e.Retries, e.RetryAfter)
}

// Is makes errors.Is(err, ErrInvalidResponse) match.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrInvalidResponse
}

// DecodeError is returned when a 2xx response body does not decode.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("notion: failed to decode response of %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError is returned when a request body cannot be encoded.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("notion: failed to encode request: %v", e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }
