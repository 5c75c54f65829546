package faceapi

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/kozaktomas/face-quiz/internal/metrics"
	"golang.org/x/time/rate"
)

// TokenSource supplies the bearer token for authenticated requests.
// The session store satisfies it; the client never writes tokens.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token() string { return string(t) }

// Client represents a client for the face quiz API
type Client struct {
	baseURL    *url.URL
	tokens     TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	captureDir string
	logger     hclog.Logger
	metrics    *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		c.httpClient.Timeout = d
		return nil
	}
}

// WithRateLimit allows at most n requests per window. n <= 0 disables limiting.
func WithRateLimit(n int, window time.Duration) Option {
	return func(c *Client) error {
		if n <= 0 || window <= 0 {
			c.limiter = nil
			return nil
		}
		c.limiter = rate.NewLimiter(rate.Every(window/time.Duration(n)), n)
		return nil
	}
}

// WithCaptureDir enables API response capturing to the specified directory.
func WithCaptureDir(dir string) Option {
	return func(c *Client) error {
		return c.SetCaptureDir(dir)
	}
}

// WithLogger sets the logger; requests are logged at debug level.
func WithLogger(l hclog.Logger) Option {
	return func(c *Client) error {
		c.logger = l
		return nil
	}
}

// WithMetrics records request outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) error {
		c.metrics = m
		return nil
	}
}

// New creates a client for the API at rawURL. tokens may be nil when only
// unauthenticated operations (register, login, password reset) are used.
func New(rawURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(rawURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: scheme must be http or https", rawURL)
	}
	if tokens == nil {
		tokens = StaticToken("")
	}

	c := &Client{
		baseURL:    parsed,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// BaseURL returns the API origin.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// resolveURL builds a full URL from the base URL and an endpoint path such as "/quiz/start".
func (c *Client) resolveURL(endpoint string) string {
	return c.baseURL.JoinPath(endpoint).String()
}

// SetCaptureDir enables API response capturing to the specified directory.
// Pass an empty string to disable capturing.
func (c *Client) SetCaptureDir(dir string) error {
	if dir == "" {
		c.captureDir = ""
		return nil
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("could not create capture directory: %w", err)
	}
	c.captureDir = dir
	return nil
}
