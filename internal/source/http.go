// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/elastic/sensorchart/internal/chart"
)

// SinceParam is the query parameter that limits the readings to those
// recorded at or after the given instant.
const SinceParam = "start_date"

// maxErrorBody caps how much of an error response is kept in a NetworkError.
const maxErrorBody = 512

// HTTP fetches readings from a JSON endpoint that returns an array of
// {"ts": ..., "value": ...} objects.
type HTTP struct {
	endpoint   string
	apiKey     string
	username   string
	password   string
	since      time.Time
	httpClient *http.Client
}

// HTTPOptions holds configuration for an HTTP source.
type HTTPOptions struct {
	URL      string        // readings endpoint
	APIKey   string        // API key for authentication
	Username string        // Username for basic auth
	Password string        // Password for basic auth
	Since    time.Time     // zero means no lower bound
	Timeout  time.Duration // client-level timeout (the chart applies its own fetch timeout)

	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// NewHTTP creates an HTTP source from options.
func NewHTTP(opts HTTPOptions) (*HTTP, error) {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid source url %q: %w", opts.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid source url %q: scheme must be http or https", opts.URL)
	}

	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &HTTP{
		endpoint:   opts.URL,
		apiKey:     opts.APIKey,
		username:   opts.Username,
		password:   opts.Password,
		since:      opts.Since,
		httpClient: client,
	}, nil
}

// URL returns the request URL, including the since parameter when set.
func (h *HTTP) URL() string {
	if h.since.IsZero() {
		return h.endpoint
	}
	u, err := url.Parse(h.endpoint)
	if err != nil {
		return h.endpoint
	}
	q := u.Query()
	q.Set(SinceParam, h.since.UTC().Format(time.RFC3339))
	u.RawQuery = q.Encode()
	return u.String()
}

// Fetch performs one GET and decodes the readings. Every failure after the
// request was built is reported as *chart.NetworkError, except cancellation
// of ctx which is returned as ctx.Err().
func (h *HTTP) Fetch(ctx context.Context) ([]chart.RawRecord, error) {
	target := h.URL()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "zstd, gzip")

	if h.apiKey != "" {
		req.Header.Set("Authorization", "ApiKey "+h.apiKey)
	} else if h.username != "" {
		req.SetBasicAuth(h.username, h.password)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &chart.NetworkError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := decodedBody(resp)
	if err != nil {
		return nil, &chart.NetworkError{URL: target, StatusCode: resp.StatusCode, Err: err}
	}
	defer body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
		return nil, &chart.NetworkError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(excerpt))),
		}
	}

	var records []chart.RawRecord
	if err := json.NewDecoder(body).Decode(&records); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &chart.NetworkError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to decode readings: %w", err),
		}
	}
	return records, nil
}

// decodedBody unwraps the response body according to its Content-Encoding.
func decodedBody(resp *http.Response) (io.ReadCloser, error) {
	switch enc := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))); enc {
	case "", "identity":
		return io.NopCloser(resp.Body), nil
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip body: %w", err)
		}
		return zr, nil
	case "zstd":
		zr, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd body: %w", err)
		}
		return zr.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", enc)
	}
}
