package mdblist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ratingsync/internal/logging"
	"ratingsync/internal/metrics"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20
)

// FetchResult is the uniform outcome of a provider call. A zero FetchResult
// means nothing usable came back.
type FetchResult struct {
	Payload     *Payload
	RawBody     []byte
	StatusCode  int
	RateLimit   RateLimitHeaders
	HardLimited bool
}

// OK reports whether the call produced a payload.
func (r FetchResult) OK() bool {
	return r.Payload != nil
}

// Fetcher is the provider operation the update pipeline depends on.
type Fetcher interface {
	Fetch(ctx context.Context, contentType, externalID, apiKey string) (FetchResult, error)
}

// Client calls the provider API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

var _ Fetcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-call timeout. It applies to a copy of the HTTP
// client, so a client passed to WithHTTPClient is never modified.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "mdblist")
		}
	}
}

// New creates a provider client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("provider base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.timeout > 0 {
		hc := *client.httpClient
		hc.Timeout = client.timeout
		client.httpClient = &hc
	}
	return client, nil
}

// Fetch looks up a title by content type and TMDB id. Missing inputs return an
// empty result without a network call. The returned error is non-nil only when
// ctx was cancelled.
func (c *Client) Fetch(ctx context.Context, contentType, externalID, apiKey string) (FetchResult, error) {
	contentType = strings.TrimSpace(contentType)
	externalID = strings.TrimSpace(externalID)
	apiKey = strings.TrimSpace(apiKey)
	if contentType == "" || externalID == "" || apiKey == "" {
		return FetchResult{}, nil
	}
	if err := ctx.Err(); err != nil {
		return FetchResult{}, err
	}

	endpoint := fmt.Sprintf("%s/tmdb/%s/%s?%s",
		c.baseURL,
		url.PathEscape(contentType),
		url.PathEscape(externalID),
		url.Values{"apikey": []string{apiKey}}.Encode(),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Debug("build provider request failed", logging.Error(err))
		return FetchResult{}, nil
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	metrics.ProviderRequestDuration.Observe(latency.Seconds())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return FetchResult{}, ctxErr
		}
		metrics.ProviderRequests.WithLabelValues("network_error").Inc()
		logging.WarnWithContext(c.logger, "provider request failed", "provider_request_failed",
			logging.String("content_type", contentType),
			logging.String("external_id", externalID),
			logging.Duration("latency", latency),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check network connectivity and provider.base_url"),
			logging.String(logging.FieldImpact, "cached ratings are used when available"),
		)
		return FetchResult{}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return FetchResult{}, ctxErr
		}
		metrics.ProviderRequests.WithLabelValues("read_error").Inc()
		c.logger.Debug("read provider body failed", logging.Error(err))
		return FetchResult{}, nil
	}

	result := FetchResult{
		StatusCode: resp.StatusCode,
		RateLimit:  ParseRateLimitHeaders(resp.Header),
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		result.HardLimited = true
		metrics.ProviderRequests.WithLabelValues("rate_limited").Inc()
		return result, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		metrics.ProviderRequests.WithLabelValues("http_error").Inc()
		c.logger.Debug("provider returned non-success status",
			logging.Int("status", resp.StatusCode),
			logging.String("content_type", contentType),
			logging.String("external_id", externalID),
		)
		return result, nil
	}

	payload, ok := ParsePayload(body)
	if !ok {
		metrics.ProviderRequests.WithLabelValues("decode_error").Inc()
		logging.WarnWithContext(c.logger, "provider returned malformed body", "provider_decode_failed",
			logging.String("content_type", contentType),
			logging.String("external_id", externalID),
			logging.Int("body_bytes", len(body)),
			logging.String(logging.FieldErrorHint, "provider may have changed its response format"),
		)
		return FetchResult{}, nil
	}

	metrics.ProviderRequests.WithLabelValues("ok").Inc()
	result.Payload = payload
	result.RawBody = body
	return result, nil
}
