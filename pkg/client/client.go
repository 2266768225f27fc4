// Package client provides the HTTP transport for the Shopify Admin REST API:
// authenticated GET requests with query parameters, client-side request
// pacing, and bounded retry with exponential backoff. Higher layers drive it
// one request at a time; it holds no per-shop state beyond its configuration.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// HeaderAPIVersion is the response header echoing the API version that
// actually served the request. A mismatch against the requested version is
// reported as a warning, never as an error.
const HeaderAPIVersion = "X-Shopify-Api-Version"

// Prometheus metrics for Admin API requests.
var (
	shopifyRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopify_requests_total",
		Help: "Total Admin API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	shopifyRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shopify_request_duration_seconds",
		Help:    "Admin API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	shopifyErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopify_errors_total",
		Help: "Total Admin API errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of HTTP errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors (except 429).
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 bucket-exhausted errors.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// Credentials holds the basic-auth pair for a private Admin API app.
type Credentials struct {
	APIKey   string
	Password string
}

// Config holds the client configuration.
type Config struct {
	// ShopBaseURL is the shop origin, e.g. "https://example.myshopify.com".
	ShopBaseURL string

	// APIVersion is the Admin API version to request, e.g. "2024-01".
	APIVersion string

	// Credentials for basic auth, supplied per shop.
	Credentials Credentials

	// UserAgent header sent with every request.
	UserAgent string

	// RequestsPerSecond caps the client-side request rate. Shopify leaks
	// two calls per second from the standard bucket.
	RequestsPerSecond float64

	// Burst allows short spikes above the steady-state rate.
	Burst int

	// Retry
	MaxRetries     int
	InitialBackoff time.Duration

	// Timeout for a single HTTP round trip.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(shopBaseURL, apiVersion string, creds Credentials) Config {
	return Config{
		ShopBaseURL:       shopBaseURL,
		APIVersion:        apiVersion,
		Credentials:       creds,
		UserAgent:         "shopify-admin-client/0.1.0",
		RequestsPerSecond: 2,
		Burst:             4,
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		Timeout:           30 * time.Second,
	}
}

// Client is the Admin API transport.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	config     Config
	logger     zerolog.Logger
}

// Response is one HTTP round trip's worth of data: everything the pagination
// and flattening layers need, with the body fully read and the connection
// released.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// New creates a new Admin API client.
func New(cfg Config) (*Client, error) {
	if cfg.ShopBaseURL == "" {
		return nil, fmt.Errorf("shop base URL is required")
	}

	parsed, err := url.Parse(cfg.ShopBaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("shop base URL %q is not an absolute URL", cfg.ShopBaseURL)
	}

	if cfg.APIVersion == "" {
		return nil, fmt.Errorf("API version is required")
	}

	if cfg.Credentials.APIKey == "" || cfg.Credentials.Password == "" {
		return nil, fmt.Errorf("API key and password are required")
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.RequestsPerSecond <= 0 {
		return nil, fmt.Errorf("requests per second must be > 0 (got %v)", cfg.RequestsPerSecond)
	}

	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	logger := log.With().Str("component", "admin-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		config:  cfg,
		logger:  logger,
	}, nil
}

// APIVersion returns the Admin API version this client requests.
func (c *Client) APIVersion() string {
	return c.config.APIVersion
}

// ResourceURL builds the collection URL for a resource path such as
// "orders" or "orders/count".
func (c *Client) ResourceURL(resource string) string {
	base := strings.TrimRight(c.config.ShopBaseURL, "/")
	return fmt.Sprintf("%s/admin/api/%s/%s.json", base, c.config.APIVersion, resource)
}

// Get performs a GET request against rawURL with the given query parameters
// merged in. It paces itself against the configured request rate, retries
// network, 5xx and 429 failures with backoff, and returns a fully read
// Response. Any non-success status is returned as a *RequestError; 4xx
// errors are never retried.
func (c *Client) Get(ctx context.Context, rawURL string, query url.Values) (*Response, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse request URL: %w", err)
	}

	if len(query) > 0 {
		merged := target.Query()
		for key, values := range query {
			merged[key] = values
		}
		target.RawQuery = merged.Encode()
	}

	endpoint := target.Path

	startTime := time.Now()
	defer func() {
		shopifyRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("request pacing: %w", err)
	}

	var response *Response

	retryCfg := RetryConfig{
		MaxAttempts:       c.config.MaxRetries,
		InitialBackoff:    c.config.InitialBackoff,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
	if retryCfg.MaxAttempts <= 0 {
		retryCfg.MaxAttempts = 1
	}
	if retryCfg.InitialBackoff <= 0 {
		retryCfg.InitialBackoff = 1 * time.Second
	}

	retryErr := retryWithBackoff(ctx, retryCfg, func() error {
		resp, err := c.roundTrip(ctx, target.String(), endpoint)
		if err != nil {
			return err
		}
		response = resp
		return nil
	}, classifyError)

	if retryErr != nil {
		return nil, retryErr
	}

	return response, nil
}

// roundTrip issues one HTTP request and reads the full body. Error statuses
// are converted to *RequestError so the retry loop can classify them.
func (c *Client) roundTrip(ctx context.Context, rawURL, endpoint string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.SetBasicAuth(c.config.Credentials.APIKey, c.config.Credentials.Password)
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Msg("Executing Admin API request")

	res, err := c.httpClient.Do(req)
	if err != nil {
		shopifyErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		shopifyRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		shopifyErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("Reading response body failed")
		return nil, err
	}

	shopifyRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", res.StatusCode)).Inc()

	if res.StatusCode >= 400 {
		errClass := classifyStatus(res.StatusCode)
		shopifyErrorsTotal.WithLabelValues(string(errClass)).Inc()

		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", res.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Admin API request error")

		return nil, &RequestError{
			StatusCode: res.StatusCode,
			ErrorClass: errClass,
			Message:    errorMessage(res.Status, body),
		}
	}

	c.checkVersionEcho(res.Header, endpoint)

	return &Response{
		StatusCode: res.StatusCode,
		Header:     res.Header.Clone(),
		Body:       body,
	}, nil
}

// checkVersionEcho warns when the server answered with a different API
// version than requested. Version drift changes response shapes, so callers
// should hear about it, but the fetch itself continues.
func (c *Client) checkVersionEcho(headers http.Header, endpoint string) {
	echo := headers.Get(HeaderAPIVersion)
	if echo == "" || echo == c.config.APIVersion {
		return
	}

	c.logger.Warn().
		Str("endpoint", endpoint).
		Str("requested_version", c.config.APIVersion).
		Str("served_version", echo).
		Msg("Admin API version mismatch")
}

// classifyStatus categorizes an HTTP error status.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// classifyError maps an error from a round trip to its class for retry decisions.
func classifyError(err error) ErrorClass {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.ErrorClass
	}
	return ErrorClassNetwork
}

// errorMessage prefers the API's error payload over the bare status line.
func errorMessage(status string, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return status
	}
	const maxLen = 200
	if len(trimmed) > maxLen {
		trimmed = trimmed[:maxLen]
	}
	return fmt.Sprintf("%s: %s", status, trimmed)
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}
