// Package client provides a typed Go SDK for the triplewalk query API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a triplewalk server over its JSON API and, for streamed
// walks, its WebSocket endpoint. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the API key for authentication.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a client for the given base URL (e.g. "http://localhost:3040").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Health returns the liveness report. It does not touch the store.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get(ctx, "/api/v1/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ready returns the readiness check response. A server that is up but
// cannot reach its store answers with an *APIError carrying status 503.
func (c *Client) Ready(ctx context.Context) (*ReadinessResponse, error) {
	var resp ReadinessResponse
	if err := c.get(ctx, "/api/v1/ready", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// maxResponseSize caps how much of a response body the client will buffer.
const maxResponseSize = 64 << 20

// headers returns the headers sent with every request.
func (c *Client) headers(jsonBody bool) http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("User-Agent", "triplewalk-go-client")

	if jsonBody {
		h.Set("Content-Type", "application/json")
	}

	if c.apiKey != "" {
		h.Set("Authorization", "Bearer "+c.apiKey)
	}

	return h
}

// do sends a request with an optional JSON body. Non-2xx replies become an
// *APIError; otherwise the body is decoded into result when both are present.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var payload io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header = c.headers(body != nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= http.StatusBadRequest:
		return parseAPIError(resp.StatusCode, data)
	case result == nil || len(data) == 0:
		return nil
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}

	return nil
}

// get sends a GET with params encoded into the query string.
func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	if enc := params.Encode(); enc != "" {
		path += "?" + enc
	}
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}
