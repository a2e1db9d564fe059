// Package search implements the as-you-type product search pipeline:
// input normalization, debouncing, and discarding of stale responses.
package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Houeta/darkside-companion/internal/metrics"
	"github.com/Houeta/darkside-companion/internal/models"
)

// Defaults of the search pipeline.
const (
	DefaultDebounce  = 300 * time.Millisecond
	DefaultMinLength = 2
	DefaultLimit     = 8

	fetchTimeout = 10 * time.Second
)

// Suggester fetches product suggestions for a query.
type Suggester interface {
	SuggestProducts(ctx context.Context, query string, limit int) ([]models.ProductSummary, error)
}

// Display is the results panel driven by the client. Calls are serialized
// and must not call back into the client.
type Display interface {
	Show(query string, results []models.ProductSummary)
	Hide()
}

// SelectFunc loads the detail view of a chosen product.
type SelectFunc func(ctx context.Context, handle string)

type Config struct {
	Debounce  time.Duration
	MinLength int
	Limit     int
}

func (c Config) withDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.MinLength <= 0 {
		c.MinLength = DefaultMinLength
	}
	if c.Limit <= 0 || c.Limit > DefaultLimit {
		c.Limit = DefaultLimit
	}

	return c
}

// Client turns raw input events into at most one visible result set: the
// one belonging to the most recently issued query.
type Client struct {
	mu         sync.Mutex
	ctx        context.Context //nolint:containedctx // parent of background fetches
	log        *slog.Logger
	suggester  Suggester
	display    Display
	onSelect   SelectFunc
	metrics    *metrics.Metrics
	cfg        Config
	query      string
	generation uint64
	timer      *time.Timer
}

// NewClient creates a search client. Fetches run detached from the input
// call and are bound to ctx.
func NewClient(
	ctx context.Context,
	log *slog.Logger,
	suggester Suggester,
	display Display,
	cfg Config,
	onSelect SelectFunc,
	m *metrics.Metrics,
) *Client {
	if m == nil {
		m = metrics.NewNop()
	}

	return &Client{
		ctx:       ctx,
		log:       log,
		suggester: suggester,
		display:   display,
		onSelect:  onSelect,
		metrics:   m,
		cfg:       cfg.withDefaults(),
	}
}

// Input handles a change of the query text.
func (c *Client) Input(text string) {
	query := strings.TrimSpace(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.query = query
	c.generation++
	c.stopTimerLocked()

	if utf8.RuneCountInString(query) < c.cfg.MinLength {
		c.display.Hide()
		return
	}

	gen := c.generation
	c.timer = time.AfterFunc(c.cfg.Debounce, func() { c.fetch(query, gen) })
}

// Dismiss hides the results panel. The query and any pending fetch are kept.
func (c *Client) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.display.Hide()
}

// Select clears the query, hides the panel and loads the chosen product.
func (c *Client) Select(ctx context.Context, handle string) {
	c.mu.Lock()
	c.query = ""
	c.generation++
	c.stopTimerLocked()
	c.display.Hide()
	c.mu.Unlock()

	if c.onSelect != nil {
		c.onSelect(ctx, handle)
	}
}

// Query returns the current normalized query.
func (c *Client) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.query
}

// Close cancels a scheduled fetch. In-flight fetches finish and are ignored
// once the generation moves on.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.stopTimerLocked()
}

func (c *Client) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Client) fetch(query string, gen uint64) {
	ctx, cancel := context.WithTimeout(c.ctx, fetchTimeout)
	defer cancel()

	start := time.Now()
	results, err := c.suggester.SuggestProducts(ctx, query, c.cfg.Limit)
	c.metrics.SearchDuration.Observe(time.Since(start).Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.metrics.SearchResults.WithLabelValues(metrics.SearchStale).Inc()
		c.log.DebugContext(ctx, "Discarding stale search response", "query", query)
		return
	}

	switch {
	case err != nil:
		c.metrics.SearchResults.WithLabelValues(metrics.SearchError).Inc()
		c.log.ErrorContext(ctx, "Search error", "query", query, "error", err)
		c.display.Hide()
	case len(results) == 0:
		c.metrics.SearchResults.WithLabelValues(metrics.SearchEmpty).Inc()
		c.display.Hide()
	default:
		if len(results) > c.cfg.Limit {
			results = results[:c.cfg.Limit]
		}
		c.metrics.SearchResults.WithLabelValues(metrics.SearchShown).Inc()
		c.display.Show(query, results)
	}
}
