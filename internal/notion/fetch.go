// Implements the retrying request primitive every endpoint goes through.

package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

// defaultRetryAfter is used when a 429 or 5xx response has no usable Retry-After header.
const defaultRetryAfter = 5 * time.Second

// request describes one API call.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	// read marks requests without side effects; only those are retried.
	read bool
}

func getRequest(path string, query url.Values) request {
	return request{method: http.MethodGet, path: path, query: query, read: true}
}

// queryRequest is a POST that only reads, like database queries and search.
func queryRequest(path string, body any) request {
	return request{method: http.MethodPost, path: path, body: body, read: true}
}

func writeRequest(method, path string, body any) request {
	return request{method: method, path: path, body: body}
}

// response is the outcome of one HTTP attempt.
type response struct {
	status int
	header http.Header
	body   []byte
}

// fetch performs r and decodes the 2xx body into a T.
//
// Read requests answered with 429 or 5xx are retried according to the client's RetryPolicy.
// Every other failure is returned as is.
func fetch[T any](ctx context.Context, c *Client, r request) (*T, error) {
	tok, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	if tok == nil || tok.AccessToken == "" {
		return nil, ErrMissingToken
	}
	endpoint, err := c.endpoint(r)
	if err != nil {
		return nil, err
	}
	var body []byte
	if r.body != nil {
		if body, err = json.Marshal(r.body); err != nil {
			return nil, &EncodeError{Err: err}
		}
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.attempt(ctx, tok, r, endpoint, body, attempt)
		if err != nil {
			return nil, err
		}
		if resp.status >= 200 && resp.status < 300 {
			var out T
			if err := json.Unmarshal(resp.body, &out); err != nil {
				slog.Error("notion: failed to decode response", "path", r.path, "err", err)
				return nil, &DecodeError{Path: r.path, Err: err}
			}
			return &out, nil
		}

		transient := resp.status == http.StatusTooManyRequests || resp.status >= 500
		retryAfter := parseRetryAfter(resp.header)
		if !transient || !r.read || attempt >= c.retry.MaxRetries {
			slog.Error("notion: request failed", "method", r.method, "path", r.path, "status", resp.status, "attempt", attempt)
			if resp.status == http.StatusTooManyRequests {
				return nil, &RateLimitError{RetryAfter: retryAfter, Retries: attempt}
			}
			return nil, statusError(resp)
		}
		delay := c.retry.delay(attempt, retryAfter)
		slog.Warn("notion: retrying", "method", r.method, "path", r.path, "status", resp.status, "attempt", attempt, "delay", delay)
		c.retries.Add(1)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// attempt issues one HTTP request, after waiting for the rate limiter.
func (c *Client) attempt(ctx context.Context, tok *oauth2.Token, r request, endpoint string, body []byte, attempt int) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	ctx, span := c.tracer.Start(ctx, "notion "+r.method+" "+spanPath(r.path),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", r.method),
			attribute.String("notion.path", r.path),
			attribute.Int("notion.attempt", attempt),
		))
	defer span.End()

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	tok.SetAuthHeader(req)
	req.Header.Set("Notion-Version", APIVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.requests.Add(1)
	slog.Debug("notion: request", "method", r.method, "path", r.path, "attempt", attempt)
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read")
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", httpResp.StatusCode))
	if httpResp.StatusCode >= 400 {
		span.SetStatus(codes.Error, httpResp.Status)
	}
	slog.Debug("notion: response", "method", r.method, "path", r.path, "status", httpResp.StatusCode, "attempt", attempt, "bytes", len(data))
	return &response{status: httpResp.StatusCode, header: httpResp.Header, body: data}, nil
}

// endpoint returns the absolute URL of r.
func (c *Client) endpoint(r request) (string, error) {
	if !strings.HasPrefix(r.path, "/") || strings.Contains(r.path, "?") {
		return "", fmt.Errorf("%w: path %q", ErrInvalidEndpoint, r.path)
	}
	u, err := url.Parse(strings.TrimSuffix(c.baseURL, "/") + r.path)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidEndpoint, c.baseURL+r.path)
	}
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}
	return u.String(), nil
}

// statusError builds the error of a terminal non-2xx response.
func statusError(resp *response) error {
	e := &StatusError{StatusCode: resp.status}
	var body StatusError
	if err := json.Unmarshal(resp.body, &body); err == nil && body.Message != "" {
		e.Code = body.Code
		e.Message = body.Message
	} else {
		e.Message = strings.TrimSpace(string(resp.body))
	}
	return e
}

// parseRetryAfter reads the Retry-After header as seconds.
func parseRetryAfter(h http.Header) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return defaultRetryAfter
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

// spanPath replaces ids in path with a placeholder to keep span names low cardinality.
func spanPath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		if _, err := NormalizeID(part); err == nil && len(part) >= 32 {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}
