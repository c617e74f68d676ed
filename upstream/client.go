// Package upstream queries the two services behind the tool catalog:
// the crates.io registry API and the docs.rs documentation host. It
// performs anonymous GETs only and normalizes every response into the
// typed records of this package, or into a classified *Error.
package upstream

import (
	"context"
	"io"
	"log/slog"
	"net/http"
)

const (
	// DefaultCratesBaseURL is the crates.io registry API root
	DefaultCratesBaseURL = "https://crates.io/api/v1"

	// DefaultDocsBaseURL is the docs.rs documentation host
	DefaultDocsBaseURL = "https://docs.rs"

	// maxResponseBody caps how much of an upstream body is read
	maxResponseBody = 10 * 1024 * 1024
)

// Client issues GET requests against crates.io and docs.rs. It is
// immutable after construction and safe for concurrent use. The client
// performs exactly one attempt per call; retry policy, if any, lives in
// the *http.Client handed to it.
type Client struct {
	cratesBaseURL string
	docsBaseURL   string
	httpClient    *http.Client
	logger        *slog.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for all upstream requests
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithCratesBaseURL overrides the crates.io API base URL
func WithCratesBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.cratesBaseURL = baseURL
	}
}

// WithDocsBaseURL overrides the docs.rs base URL
func WithDocsBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.docsBaseURL = baseURL
	}
}

// WithLogger sets the logger for request tracing
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates an upstream client with the given options
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		cratesBaseURL: DefaultCratesBaseURL,
		docsBaseURL:   DefaultDocsBaseURL,
		httpClient:    http.DefaultClient,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// fetch performs one GET and classifies the outcome. It returns the
// body, the final URL after any redirects, or a classified *Error.
func (c *Client) fetch(ctx context.Context, url string) ([]byte, string, error) {
	c.logger.Debug("fetching", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", transportError(err, url)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", transportError(err, url)
	}
	defer resp.Body.Close()

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, finalURL, transportError(err, url)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, finalURL, notFoundError("%s returned 404", url)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, finalURL, nil
	default:
		return nil, finalURL, upstreamError(resp.StatusCode, body, url)
	}
}
