// Implements the Notion API client with rate limiting and retries.

package notion

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Notion API base URL.
	BaseURL = "https://api.notion.com/v1"
	// APIVersion is the pinned Notion API version.
	APIVersion = "2022-06-28"
	// DefaultRequestsPerSecond is Notion's documented average request rate.
	DefaultRequestsPerSecond = 3
	// MaxPageSize is the largest page size accepted by list endpoints.
	MaxPageSize = 100

	tracerName = "github.com/adamwulf/hunch-sub000/internal/notion"
)

// RetryPolicy controls retries of read requests answered with 429 or 5xx.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// MinDelay is the backoff of the first retry; it doubles on each retry.
	MinDelay time.Duration
	// MaxDelay caps the backoff.
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, MinDelay: time.Second, MaxDelay: 30 * time.Second}
}

// delay returns how long to wait before retry number attempt+1.
//
// The server hint and the exponential backoff are compared and the larger one wins, plus one
// second of margin.
func (p RetryPolicy) delay(attempt int, retryAfter time.Duration) time.Duration {
	backoff := p.MinDelay
	for i := 0; i < attempt && backoff < p.MaxDelay; i++ {
		backoff *= 2
	}
	backoff = min(backoff, p.MaxDelay)
	return time.Second + max(retryAfter, backoff)
}

// Client is a rate-limited Notion API client.
//
// A Client is safe for concurrent use. Apart from the limiter and counters, every call owns its
// request state.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     oauth2.TokenSource
	limiter    *rate.Limiter
	tracer     trace.Tracer
	retry      RetryPolicy
	sleep      func(ctx context.Context, d time.Duration) error

	requests atomic.Int64
	retries  atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithRateLimit sets the client-side request rate. A value <= 0 disables throttling.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithTracerProvider sets the provider of the tracer used for request spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracer = tp.Tracer(tracerName) }
}

// withSleeper replaces the retry sleep, for tests.
func withSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

// New creates a Notion API client that authenticates with tokens.
func New(tokens oauth2.TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: BaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens:  tokens,
		limiter: rate.NewLimiter(DefaultRequestsPerSecond, 1),
		tracer:  otel.Tracer(tracerName),
		retry:   DefaultRetryPolicy(),
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewWithToken creates a client from a static integration token.
func NewWithToken(token string, opts ...Option) *Client {
	return New(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}), opts...)
}

// Requests returns the number of HTTP requests issued so far.
func (c *Client) Requests() int64 {
	return c.requests.Load()
}

// Retries returns the number of retries made so far.
func (c *Client) Retries() int64 {
	return c.retries.Load()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
