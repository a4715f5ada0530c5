// Package transport provides the core HTTP client with retry, error
// classification, and credential handling for the remote API.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/ghinsight/ghinsight/pkg/apierr"
	"github.com/ghinsight/ghinsight/pkg/logging"
	"github.com/ghinsight/ghinsight/pkg/ratelimit"
)

// Default header values sent on every request.
const (
	DefaultAccept     = "application/vnd.github+json"
	DefaultAPIVersion = "2022-11-28"
	DefaultUserAgent  = "ghinsight/0.1.0"
)

// Config holds the client configuration.
type Config struct {
	// BaseURL is the remote API base address (no trailing slash).
	BaseURL string

	// Timeout applies independently to each request attempt.
	Timeout time.Duration

	// MaxRetries is the total attempt budget per request (not additional
	// attempts). A persistent failure makes exactly MaxRetries calls.
	MaxRetries int

	// RetryDelay is the base backoff delay. The delay before the retry
	// following attempt n is RetryDelay * n (linear backoff).
	RetryDelay time.Duration

	// Headers are static headers attached to every request.
	Headers map[string]string

	// HTTPClient overrides the underlying HTTP client (for testing).
	HTTPClient *http.Client
}

// DefaultConfig returns a safe default configuration for the given base URL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:    baseURL,
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryDelay: 1 * time.Second,
		Headers: map[string]string{
			"Accept":               DefaultAccept,
			"X-GitHub-Api-Version": DefaultAPIVersion,
			"User-Agent":           DefaultUserAgent,
		},
	}
}

// RequestOptions carries per-request parameters.
type RequestOptions struct {
	// Query parameters appended to the request URL.
	Query url.Values

	// Headers override or extend the static configuration headers.
	Headers map[string]string

	// Body is JSON-encoded when non-nil.
	Body any
}

// Response is the outcome of a successful request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// RequestID is the generated id attached to the request for tracing.
	RequestID string

	// Duration is the total wall time including retries.
	Duration time.Duration
}

// Health reports the outcome of a health probe.
type Health struct {
	Healthy    bool
	StatusCode int
	Latency    time.Duration
}

// Stats is a snapshot of the client's request counters.
type Stats struct {
	Requests    uint64
	Failures    uint64
	Retries     uint64
	LastLatency time.Duration
}

// Client issues HTTP requests against the remote API with retry, backoff,
// and typed error classification.
type Client struct {
	httpClient *http.Client
	config     Config
	tracker    *ratelimit.Tracker
	logger     zerolog.Logger

	mu    sync.RWMutex
	token string

	requests    atomic.Uint64
	failures    atomic.Uint64
	retries     atomic.Uint64
	lastLatency atomic.Int64 // nanoseconds
}

// New creates a new transport client. The tracker is optional; when present
// it is updated from the rate limit headers of every response.
func New(cfg Config, tracker *ratelimit.Tracker) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 1 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
		tracker:    tracker,
		logger:     logging.NewLogger("transport"),
	}, nil
}

// SetToken sets or clears the credential attached to every request. An empty
// token is valid: requests are sent unauthenticated, which only lowers the
// remote rate limit.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, http.MethodGet, path, opts)
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, path string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, http.MethodPost, path, opts)
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, path string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, http.MethodPut, path, opts)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, http.MethodDelete, path, opts)
}

// Request performs an HTTP request with retry and backoff. Non-2xx outcomes
// are converted into the typed error taxonomy: 429 becomes RateLimitError,
// network failures and other HTTP errors become TransportError. A 4xx other
// than 429 is fatal and never retried; network errors, timeouts, 5xx, and
// 429 are retried up to the configured attempt budget.
func (c *Client) Request(ctx context.Context, method, path string, opts *RequestOptions) (*Response, error) {
	requestID := xid.New().String()
	start := time.Now()
	c.requests.Add(1)

	defer func() {
		elapsed := time.Since(start)
		c.lastLatency.Store(int64(elapsed))
		requestDuration.WithLabelValues(path).Observe(elapsed.Seconds())
	}()

	var bodyBytes []byte
	if opts != nil && opts.Body != nil {
		var err error
		bodyBytes, err = json.Marshal(opts.Body)
		if err != nil {
			return nil, &apierr.TransportError{
				Message: fmt.Sprintf("%s %s: encode request body", method, path),
				Cause:   err,
			}
		}
	}

	var lastResp *attemptResult
	var lastErr error

	for attempt := 1; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 1 {
			// Linear backoff before each retry.
			delay := c.config.RetryDelay * time.Duration(attempt-1)
			retriesTotal.WithLabelValues(classLabel(lastResp, lastErr)).Inc()
			c.retries.Add(1)

			c.logger.Warn().
				Str("request_id", requestID).
				Str("path", path).
				Int("attempt", attempt).
				Dur("backoff", delay).
				Msg("Retrying request after backoff")

			select {
			case <-ctx.Done():
				c.failures.Add(1)
				return nil, &apierr.TransportError{
					Message: fmt.Sprintf("%s %s: cancelled during backoff", method, path),
					Cause:   ctx.Err(),
				}
			case <-time.After(delay):
			}
		}

		result, err := c.attempt(ctx, method, path, opts, bodyBytes, requestID)
		if err != nil {
			// Network-level failure: retryable.
			lastResp, lastErr = nil, err
			errorsTotal.WithLabelValues("network").Inc()
			c.logger.Warn().
				Str("request_id", requestID).
				Str("path", path).
				Int("attempt", attempt).
				Err(err).
				Msg("Request failed at network level")
			continue
		}

		requestsTotal.WithLabelValues(path, strconv.Itoa(result.status)).Inc()

		if result.status < 400 {
			c.logger.Debug().
				Str("request_id", requestID).
				Str("path", path).
				Int("status", result.status).
				Dur("duration", time.Since(start)).
				Msg("Request completed")

			return &Response{
				StatusCode: result.status,
				Header:     result.header,
				Body:       result.body,
				RequestID:  requestID,
				Duration:   time.Since(start),
			}, nil
		}

		lastResp, lastErr = result, nil

		if !retryableStatus(result.status) {
			// 4xx other than 429: fatal, never retried.
			errorsTotal.WithLabelValues("client").Inc()
			c.failures.Add(1)
			return nil, c.classify(method, path, result, nil)
		}

		if result.status == http.StatusTooManyRequests {
			errorsTotal.WithLabelValues("rate_limit").Inc()
		} else {
			errorsTotal.WithLabelValues("server").Inc()
		}

		c.logger.Warn().
			Str("request_id", requestID).
			Str("path", path).
			Int("attempt", attempt).
			Int("status", result.status).
			Msg("Request returned retryable status")
	}

	// Attempt budget exhausted.
	retryExhaustedTotal.WithLabelValues(classLabel(lastResp, lastErr)).Inc()
	c.failures.Add(1)

	c.logger.Error().
		Str("request_id", requestID).
		Str("path", path).
		Int("max_attempts", c.config.MaxRetries).
		Msg("Retry attempts exhausted")

	return nil, c.classify(method, path, lastResp, lastErr)
}

// attemptResult captures one HTTP exchange.
type attemptResult struct {
	status int
	header http.Header
	body   []byte
}

// attempt performs a single HTTP exchange. A non-nil error means the failure
// happened below HTTP (dial, DNS, timeout) and no response exists.
func (c *Client) attempt(ctx context.Context, method, path string, opts *RequestOptions, bodyBytes []byte, requestID string) (*attemptResult, error) {
	u := c.config.BaseURL + path
	if opts != nil && len(opts.Query) > 0 {
		u += "?" + opts.Query.Encode()
	}

	var body io.Reader
	if bodyBytes != nil {
		body = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
	if bodyBytes != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts != nil {
		for k, v := range opts.Headers {
			req.Header.Set(k, v)
		}
	}
	req.Header.Set("X-Request-ID", requestID)

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if c.tracker != nil {
		c.tracker.UpdateFromHeaders(resp.Header)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &attemptResult{
		status: resp.StatusCode,
		header: resp.Header,
		body:   data,
	}, nil
}

// classify converts the final failure into a typed error. 429 becomes
// RateLimitError with the advertised limit and reset time; absence of a
// response becomes TransportError wrapping the network failure; any other
// status becomes TransportError with the status embedded.
func (c *Client) classify(method, path string, result *attemptResult, netErr error) error {
	if result == nil {
		return &apierr.TransportError{
			Message: fmt.Sprintf("%s %s", method, path),
			Cause:   netErr,
		}
	}

	if result.status == http.StatusTooManyRequests {
		limit, _ := strconv.Atoi(result.header.Get(ratelimit.HeaderLimit))
		rlErr := &apierr.RateLimitError{Limit: limit}
		if reset, err := strconv.ParseInt(result.header.Get(ratelimit.HeaderReset), 10, 64); err == nil {
			rlErr.ResetAt = time.Unix(reset, 0)
		}
		return rlErr
	}

	return &apierr.TransportError{
		Message:    fmt.Sprintf("%s %s: status %d: %s", method, path, result.status, bodySnippet(result.body)),
		StatusCode: result.status,
	}
}

// retryableStatus reports whether an HTTP status is worth retrying:
// 5xx and 429 are, every other 4xx is fatal.
func retryableStatus(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

// classLabel names the error class of the latest failure for metrics.
func classLabel(result *attemptResult, netErr error) string {
	switch {
	case netErr != nil, result == nil:
		return "network"
	case result.status == http.StatusTooManyRequests:
		return "rate_limit"
	case result.status >= 500:
		return "server"
	default:
		return "client"
	}
}

// bodySnippet trims a response body for embedding in error messages.
func bodySnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	if s == "" {
		return "<empty body>"
	}
	return s
}

// HealthCheck probes the rate-limit endpoint and reports reachability and
// round-trip latency. The probe bypasses the retry loop: a health check
// should report the current state, not mask flapping with retries.
func (c *Client) HealthCheck(ctx context.Context) Health {
	start := time.Now()
	result, err := c.attempt(ctx, http.MethodGet, "/rate_limit", nil, nil, xid.New().String())
	latency := time.Since(start)

	if err != nil {
		return Health{Healthy: false, Latency: latency}
	}
	return Health{
		Healthy:    result.status < 500,
		StatusCode: result.status,
		Latency:    latency,
	}
}

// ClientStats returns a snapshot of the request counters.
func (c *Client) ClientStats() Stats {
	return Stats{
		Requests:    c.requests.Load(),
		Failures:    c.failures.Load(),
		Retries:     c.retries.Load(),
		LastLatency: time.Duration(c.lastLatency.Load()),
	}
}
