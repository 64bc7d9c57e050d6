// Package httpclient implements ports.Backend over the storefront REST API.
// Every failure is surfaced as one of the domain sentinel errors so callers
// never inspect HTTP status codes.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/minimal/storefront/internal/core/domain"
	"github.com/minimal/storefront/internal/metrics"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
	userAgent      = "storefront-client/1.0"
)

// Config configures the backend client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RateLimit caps outgoing requests per second. Zero disables the limit.
	RateLimit float64
}

// TokenSource returns the bearer token to attach to a request, or "" for none.
type TokenSource func(ctx context.Context) string

// Option customizes a Client.
type Option func(*Client)

// WithTokenSource attaches a bearer token to every request.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// Client talks to the storefront backend.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	headers    map[string]string
	limiter    *rate.Limiter
	token      TokenSource
	logger     zerolog.Logger
}

// New creates a Client for cfg.BaseURL.
func New(cfg Config, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    u,
		headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": userAgent,
		},
		logger: logger,
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// request describes one backend call.
type request struct {
	op     string
	method string
	path   []string
	query  url.Values
	body   any
	// anonymous requests never carry the bearer token.
	anonymous bool
}

// errConflict marks a 409, reported as a validation failure.
var errConflict = errors.New("conflict")

// errorBody is the backend's error envelope.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, req request, out any) (err error) {
	start := time.Now()
	defer func() {
		metrics.BackendRequestDuration.WithLabelValues(req.op, outcome(err)).Observe(time.Since(start).Seconds())
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: %w: %v", req.op, domain.ErrTransport, err)
		}
	}

	u := c.buildURL(req.path, req.query)

	var body io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", req.op, err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", req.op, err)
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("X-Request-ID", requestID)
	if c.token != nil && !req.anonymous {
		if tok := c.token(ctx); tok != "" {
			httpReq.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn().Err(err).Str("op", req.op).Str("request_id", requestID).Msg("backend unreachable")
		return fmt.Errorf("%s: %w: %v", req.op, domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%s: %w: read body: %v", req.op, domain.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := statusError(resp.StatusCode, raw)
		c.logger.Debug().
			Str("op", req.op).
			Str("request_id", requestID).
			Int("status", resp.StatusCode).
			Err(err).
			Msg("backend rejected request")
		return fmt.Errorf("%s: %w", req.op, err)
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fmt.Errorf("%s: %w: empty body", req.op, domain.ErrMalformedResponse)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: %w: %v", req.op, domain.ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) buildURL(segments []string, query url.Values) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u := c.baseURL.JoinPath(escaped...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// statusError maps a non-2xx response onto the domain taxonomy.
func statusError(status int, raw []byte) error {
	var eb errorBody
	_ = json.Unmarshal(raw, &eb)
	msg := eb.Error
	if msg == "" {
		msg = eb.Message
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	var sentinel error
	switch {
	case status == http.StatusConflict:
		return fmt.Errorf("%w: %w: %s (status %d)", domain.ErrValidation, errConflict, msg, status)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		sentinel = domain.ErrValidation
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		sentinel = domain.ErrUnauthorized
	case status == http.StatusNotFound:
		sentinel = domain.ErrNotFound
	default:
		sentinel = domain.ErrTransport
	}
	return fmt.Errorf("%w: %s (status %d)", sentinel, msg, status)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "malformed"
	default:
		return "transport"
	}
}
