package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxProbeBodySize = 64 << 10

// connection pooling limits shared by probes and the proxy
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

// Response holds the result of a probe made by [Client].
type Response struct {
	// StatusCode is the HTTP status code.
	// Zero if the request failed before receiving a response.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Error contains any error that occurred during the request.
	// nil indicates the request completed (though status may indicate an error).
	Error error
}

// Client is an HTTP client for talking to the upstream application.
//
// Client uses per-request timeouts via context rather than a global timeout,
// so long-lived proxied requests and short probes can share one transport.
type Client struct {
	transport  *http.Transport
	httpClient *http.Client
}

// NewClient creates a new upstream [Client].
func NewClient() *Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        defaultMaxIdleConns,
		MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
		IdleConnTimeout:     defaultIdleConnTimeout,
		DisableCompression:  true, // pages must arrive uncompressed for injection
	}
	return &Client{
		transport:  transport,
		httpClient: &http.Client{Transport: transport},
	}
}

// Transport returns the client's transport, for use by [NewProxy].
func (c *Client) Transport() http.RoundTripper {
	return c.transport
}

// Probe performs a GET request and returns a structured [Response].
//
// The timeout is applied via context cancellation. At most 64KB of the body
// is drained so the connection can be reused.
//
// Probe always returns a Response; errors are captured in the Error field
// rather than returned separately.
func (c *Client) Probe(ctx context.Context, url string, headers map[string]string, timeout time.Duration) Response {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("failed to create request: %w", err),
		}
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxProbeBodySize))

	return Response{
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times. After Close, the client remains usable but
// new connections will be established as needed.
func (c *Client) Close() {
	if c == nil || c.transport == nil {
		return
	}
	c.transport.CloseIdleConnections()
}
