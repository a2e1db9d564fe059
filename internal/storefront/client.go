// Package storefront talks to the commerce platform's public storefront
// endpoints: search suggestions, product documents and the cart.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/Houeta/darkside-companion/internal/metrics"
)

const (
	userAgent      = "Mozilla/5.0 (compatible; DarksideCompanion/1.0)"
	requestTimeout = 10 * time.Second
	rateBurst      = 8
	errBodyLimit   = 512
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrUnexpectedStatus = errors.New("unexpected status code")
)

// StatusError is returned for any non-2xx storefront response.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status code error: [%d] %s", e.Code, e.Status)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

type Client struct {
	log     *slog.Logger
	client  *http.Client
	baseURL *url.URL
	limiter *rate.Limiter
	metrics *metrics.Metrics
}

// NewClient creates a storefront client for baseURL. rps limits the request
// rate shared by every caller of the client.
func NewClient(log *slog.Logger, baseURL string, rps float64, m *metrics.Metrics) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse storefront URL %s: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("storefront URL %q must be absolute", baseURL)
	}

	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}

	if m == nil {
		m = metrics.NewNop()
	}

	return &Client{
		log:     log,
		client:  &http.Client{Timeout: requestTimeout},
		baseURL: u,
		limiter: rate.NewLimiter(limit, rateBurst),
		metrics: m,
	}, nil
}

// BaseURL returns the storefront origin the client talks to.
func (c *Client) BaseURL() *url.URL {
	return c.baseURL
}

type request struct {
	endpoint string
	method   string
	path     []string
	query    url.Values
	body     any
	session  *Session
}

// do sends req and decodes a 2xx JSON response into out.
func (c *Client) do(ctx context.Context, req request, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	reqURL := c.baseURL.JoinPath(req.path...)
	reqURL.RawQuery = req.query.Encode()

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, reqURL.String(), body)
	if err != nil {
		return fmt.Errorf("failed to create new request %s: %w", reqURL.String(), err)
	}

	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	req.session.attach(httpReq)

	c.log.DebugContext(ctx, "Send request", "method", httpReq.Method, "URL", httpReq.URL)

	res, err := c.client.Do(httpReq)
	if err != nil {
		c.metrics.StorefrontRequests.WithLabelValues(req.endpoint, "error").Inc()
		return fmt.Errorf("failed to request %s: %w", reqURL.Redacted(), err)
	}
	defer res.Body.Close()

	c.metrics.StorefrontRequests.WithLabelValues(req.endpoint, strconv.Itoa(res.StatusCode)).Inc()
	req.session.store(httpReq.URL, res)

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, errBodyLimit))
		return &StatusError{Code: res.StatusCode, Status: res.Status, Body: string(snippet)}
	}

	if out == nil {
		return nil
	}

	if err = json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.endpoint, err)
	}

	return nil
}
