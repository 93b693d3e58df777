// Package upstream is the HTTP client for the pre-aggregated flow API.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Endpoint paths served by the flow API.
const (
	PathKPIs  = "/api/kpis"
	PathTrend = "/api/trend"
	PathLines = "/api/lines"
)

const maxBodyBytes = 32 << 20

// Client fetches and validates the three dashboard datasets.
type Client struct {
	baseURL  string
	http     *http.Client
	validate *validator.Validate
	logger   *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, logger *zap.Logger, opts ...Option) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("upstream base URL is required")
	}

	c := &Client{
		baseURL:  baseURL,
		http:     &http.Client{},
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// KPIs fetches the headline summary. A nil summary (JSON null) or an empty
// object is returned as-is; callers treat both as "no data".
func (c *Client) KPIs(ctx context.Context, query string) (*KPISummary, error) {
	body, err := c.get(ctx, PathKPIs, query)
	if err != nil {
		return nil, err
	}
	if isNull(body) {
		return nil, nil
	}

	var summary KPISummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", PathKPIs, ErrMalformedResponse, err)
	}
	if summary.Present() {
		shape := kpiShape(summary)
		if err := c.validate.Struct(shape); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", PathKPIs, ErrMalformedResponse, err)
		}
	}
	return &summary, nil
}

// Trend fetches the ordered trend series.
func (c *Client) Trend(ctx context.Context, query string) ([]TrendPoint, error) {
	body, err := c.get(ctx, PathTrend, query)
	if err != nil {
		return nil, err
	}

	var points []TrendPoint
	if err := decodeList(body, &points); err != nil {
		return nil, fmt.Errorf("%s: %w", PathTrend, err)
	}
	for i := range points {
		if err := c.validate.Struct(points[i]); err != nil {
			return nil, fmt.Errorf("%s: %w: item %d: %v", PathTrend, ErrMalformedResponse, i, err)
		}
	}
	return points, nil
}

// Lines fetches the line ranking, sorted by the server.
func (c *Client) Lines(ctx context.Context, query string) ([]LineFlow, error) {
	body, err := c.get(ctx, PathLines, query)
	if err != nil {
		return nil, err
	}

	var lines []LineFlow
	if err := decodeList(body, &lines); err != nil {
		return nil, fmt.Errorf("%s: %w", PathLines, err)
	}
	for i := range lines {
		if err := c.validate.Struct(lines[i]); err != nil {
			return nil, fmt.Errorf("%s: %w: item %d: %v", PathLines, ErrMalformedResponse, i, err)
		}
	}
	return lines, nil
}

func (c *Client) get(ctx context.Context, path, query string) ([]byte, error) {
	url := c.baseURL + path + query
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s failed: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s body: %w", path, err)
	}

	c.logger.Debug("Upstream response",
		zap.String("path", path),
		zap.String("query", query),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: %w %d", path, ErrUnexpectedStatus, resp.StatusCode)
	}
	return body, nil
}

func decodeList(body []byte, dest any) error {
	if isNull(body) {
		return fmt.Errorf("%w: expected array, got null", ErrMalformedResponse)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func isNull(body []byte) bool {
	return bytes.Equal(bytes.TrimSpace(body), []byte("null"))
}
