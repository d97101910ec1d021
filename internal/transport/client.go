// Package transport is the paced, authenticated JSON client used to talk to
// the inventory API. Every request waits on a shared pacer so the whole run
// stays under the server's throttle no matter which component is calling.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/agentstation/assetsync/pkg/constants"
	"github.com/agentstation/assetsync/pkg/errors"
	"github.com/agentstation/assetsync/pkg/logging"
)

// Client provides paced HTTP client functionality with authentication.
type Client struct {
	http    *http.Client
	auth    Authenticator
	token   string
	baseURL string
	pacer   *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRequestDelay sets the minimum spacing between consecutive requests.
// A zero delay disables pacing.
func WithRequestDelay(d time.Duration) Option {
	return func(c *Client) {
		c.pacer = newPacer(d)
	}
}

// New creates a transport client for baseURL authenticated with token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: constants.DefaultHTTPTimeout},
		auth:    &BearerAuth{},
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		pacer:   newPacer(constants.DefaultRequestDelay),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newPacer(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// BaseURL returns the API root every path is resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// DoWithContext waits for the pacer, applies authentication and common
// headers, then performs req.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	c.auth.Apply(req, c.token)
	req.Header.Set("Accept", "application/json")
	if req.Method == http.MethodPost || req.Method == http.MethodPut || req.Method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.http.Do(req)
}

// Call performs method on path with an optional query and JSON body and
// decodes the response into target (which may be nil).
func (c *Client) Call(ctx context.Context, method, path string, query url.Values, body, target any) error {
	endpoint := path
	if len(query) > 0 {
		endpoint = path + "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.WrapParse("json", "request body", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return errors.WrapResource("create", "request", method+" "+path, err)
	}

	logger := logging.FromContext(ctx)
	start := time.Now()
	resp, err := c.DoWithContext(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &errors.TransportError{Method: method, Endpoint: path, Err: err}
	}

	logger.Debug().
		Str("method", method).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("API call")

	return DecodeResponse(resp, method, path, target)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values, target any) error {
	return c.Call(ctx, http.MethodGet, path, query, nil, target)
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body, target any) error {
	return c.Call(ctx, http.MethodPost, path, nil, body, target)
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body, target any) error {
	return c.Call(ctx, http.MethodPut, path, nil, body, target)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, target any) error {
	return c.Call(ctx, http.MethodDelete, path, nil, nil, target)
}
