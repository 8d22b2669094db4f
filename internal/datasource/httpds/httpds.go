// Package httpds implements an HTTP-backed data source for the pipeline.
//
// The source performs a single GET per Open; transient-failure handling is
// the job of the datasource retry wrapper, which applies the same bounded
// backoff to every source kind. A server response with a non-2xx status is
// reported as an open failure so that the wrapper can retry 5xx-class
// problems and the run can fail cleanly on anything else.
package httpds

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config configures the HTTP data source.
//
// Zero values are given sensible defaults:
//   - Timeout: 30s
type Config struct {
	// Timeout is the per-request timeout applied at the http.Client level.
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification. Useful for
	// internal endpoints with self-signed certificates; use with care.
	InsecureSkipVerify bool

	// Headers are added to every request.
	Headers http.Header

	// Transport is an optional custom RoundTripper. When nil, a default
	// *http.Transport is constructed from the TLS settings. Injectable for
	// tests.
	Transport http.RoundTripper
}

// Remote is an HTTP data source bound to one URL.
type Remote struct {
	url     string
	client  *http.Client
	headers http.Header
}

// NewRemote constructs a Remote source from cfg, applying defaults for zero
// values.
func NewRemote(url string, cfg Config) *Remote {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // explicitly configurable
			},
		}
	}
	return &Remote{
		url: url,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		headers: cfg.Headers,
	}
}

// Name returns the URL.
func (r *Remote) Name() string { return r.url }

// Open issues a GET for the configured URL and returns the response body.
// The caller must close it. Any status outside 2xx is an error; the body is
// closed before returning in that case.
func (r *Remote) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("httpds: build request: %w", err)
	}
	for k, vs := range r.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpds: get %s: %w", r.url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("httpds: get %s: status %d", r.url, resp.StatusCode)
	}
	return resp.Body, nil
}
