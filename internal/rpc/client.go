// Package rpc implements the ledger's HTTP+JSON transport (§4.A/§6.2):
// a live surface for current-state calls and a query (archive) surface
// for historical lookups, sharing one base URL, retry/backoff, and
// structured errors.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tickvault/ledger-go-sdk/internal/retry"
)

const (
	liveSuffix  = "/live/v1"
	querySuffix = "/query/v1"
)

// DefaultMaxRetries and friends mirror the teacher's HTTPClient defaults.
const (
	DefaultMaxRetries = 3
)

// OnRequestFunc, OnResponseFunc, and OnErrorFunc are observability hooks
// (§4.A). Firing them has no effect on semantics.
type (
	OnRequestFunc  func(method, url string)
	OnResponseFunc func(durationMs int64, status int, ok bool)
	OnErrorFunc    func(err error)
)

// Client is the RPC transport façade. It is stateless and safe for
// concurrent use (§5 "shared, stateless façade").
type Client struct {
	httpClient *http.Client
	liveBase   string
	queryBase  string
	backoff    retry.Backoff
	maxRetries int

	onRequest  OnRequestFunc
	onResponse OnResponseFunc
	onError    OnErrorFunc
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

// WithMaxRetries overrides the retry count for transient failures.
func WithMaxRetries(n int) Option { return func(c *Client) { c.maxRetries = n } }

// WithBackoff overrides the retry backoff schedule.
func WithBackoff(b retry.Backoff) Option { return func(c *Client) { c.backoff = b } }

// WithOnRequest installs a pre-request observability hook.
func WithOnRequest(f OnRequestFunc) Option { return func(c *Client) { c.onRequest = f } }

// WithOnResponse installs a post-response observability hook.
func WithOnResponse(f OnResponseFunc) Option { return func(c *Client) { c.onResponse = f } }

// WithOnError installs an error observability hook.
func WithOnError(f OnErrorFunc) Option { return func(c *Client) { c.onError = f } }

// New builds a Client from a single base URL, normalizing accidental
// "/live/v1" or "/query/v1" suffixes per §4.A.
func New(baseURL string, opts ...Option) *Client {
	trimmed := strings.TrimRight(baseURL, "/")
	root := strings.TrimSuffix(strings.TrimSuffix(trimmed, liveSuffix), querySuffix)

	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		liveBase:   root + liveSuffix,
		queryBase:  root + querySuffix,
		backoff:    retry.DefaultBackoff(),
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doJSON executes method on url with an optional JSON body, decoding a
// successful response into out. Transient failures (network errors, 429,
// 5xx) are retried with exponential backoff; a well-formed non-2xx
// response is returned as a *RequestError without retry, except for 429
// and 5xx which are treated as transient.
func (c *Client) doJSON(ctx context.Context, method, url string, body interface{}, out interface{}) error {
	var bodyBytes []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("rpc: marshal request: %w", err)
		}
		bodyBytes = b
	}

	if c.onRequest != nil {
		c.onRequest(method, url)
	}

	delay := c.backoff.Initial
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := retry.Sleep(ctx, delay); err != nil {
				return err
			}
			delay = c.backoff.Next(delay)
		}

		start := time.Now()
		status, respBody, err := c.roundTrip(ctx, method, url, bodyBytes)
		durationMs := time.Since(start).Milliseconds()

		if err != nil {
			lastErr = err
			if c.onError != nil {
				c.onError(err)
			}
			continue
		}

		ok := status >= 200 && status < 300
		if c.onResponse != nil {
			c.onResponse(durationMs, status, ok)
		}

		if !ok {
			reqErr := &RequestError{URL: url, Method: method, Status: status, StatusText: http.StatusText(status), BodyText: string(respBody)}
			if status == 429 || status >= 500 {
				lastErr = reqErr
				continue
			}
			return reqErr
		}

		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("rpc: unmarshal response: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("rpc: max retries exceeded: %w", lastErr)
}

func (c *Client) roundTrip(ctx context.Context, method, url string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("rpc: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("rpc: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("rpc: read response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}
