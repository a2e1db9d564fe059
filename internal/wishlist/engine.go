package wishlist

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Houeta/darkside-companion/internal/metrics"
	"github.com/Houeta/darkside-companion/internal/models"
)

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// View is the set of wishlist displays an engine keeps in sync: count
// badges and per-product toggle controls. Implementations must not call
// back into the engine.
type View interface {
	SetCount(count int)
	BoundHandles() []string
	SetActive(handle string, active bool)
}

// NopView discards every update.
type NopView struct{}

func (NopView) SetCount(int) {}

func (NopView) BoundHandles() []string { return nil }

func (NopView) SetActive(string, bool) {}

// Engine owns one wishlist: the in-memory list is authoritative for the
// session and every mutation is persisted and pushed to the view.
//
// View updates run outside mu and are serialized by viewMu. Each push reads
// the list as it is at push time.
type Engine struct {
	viewMu  sync.Mutex
	mu      sync.Mutex
	log     *slog.Logger
	store   *LocalStore
	view    View
	metrics *metrics.Metrics
	now     func() time.Time
	items   []models.WishlistItem
}

type Option func(*Engine)

// WithClock overrides the clock used to stamp dateAdded.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine loads the persisted list once and performs the initial view sync.
func NewEngine(ctx context.Context, log *slog.Logger, store *LocalStore, view View, opts ...Option) *Engine {
	if view == nil {
		view = NopView{}
	}

	eng := &Engine{
		log:   log.With("key", store.Key()),
		store: store,
		view:  view,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(eng)
	}

	eng.items = store.Load(ctx)
	eng.Sync()

	return eng
}

// IsInWishlist reports whether handle is in the list.
func (e *Engine) IsInWishlist(handle string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Contains(e.items, handle)
}

// Add snapshots product into the list. It returns false when the handle
// was already present.
func (e *Engine) Add(ctx context.Context, product models.ProductSummary) bool {
	e.mu.Lock()
	next, ok := Add(e.items, e.snapshot(product))
	if ok {
		e.commitLocked(ctx, next, ActionAdded)
	}
	e.mu.Unlock()

	if ok {
		e.Sync()
	}

	return ok
}

// Remove drops handle from the list. It returns false when nothing changed.
func (e *Engine) Remove(ctx context.Context, handle string) bool {
	e.mu.Lock()
	next, ok := Remove(e.items, handle)
	if ok {
		e.commitLocked(ctx, next, ActionRemoved)
	}
	e.mu.Unlock()

	if ok {
		e.Sync()
	}

	return ok
}

// Toggle adds or removes product and reports which branch ran.
func (e *Engine) Toggle(ctx context.Context, product models.ProductSummary) Action {
	e.mu.Lock()
	next, action := Toggle(e.items, e.snapshot(product))
	e.commitLocked(ctx, next, action)
	e.mu.Unlock()

	e.Sync()

	return action
}

// Items returns a copy of the list in insertion order.
func (e *Engine) Items() []models.WishlistItem {
	e.mu.Lock()
	defer e.mu.Unlock()

	return slices.Clone(e.items)
}

// Count returns the number of items in the list.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.items)
}

// Sync pushes the current state to the view without mutating the list.
func (e *Engine) Sync() {
	e.viewMu.Lock()
	defer e.viewMu.Unlock()

	e.mu.Lock()
	items := slices.Clone(e.items)
	e.mu.Unlock()

	e.view.SetCount(len(items))

	for _, handle := range e.view.BoundHandles() {
		e.view.SetActive(handle, Contains(items, handle))
	}
}

func (e *Engine) snapshot(p models.ProductSummary) models.WishlistItem {
	return models.WishlistItem{
		Handle:    p.Handle,
		Title:     p.Title,
		Image:     p.Image,
		Price:     p.Price,
		Vendor:    p.Vendor,
		DateAdded: e.now().UTC().Format(isoMillis),
	}
}

func (e *Engine) commitLocked(ctx context.Context, next []models.WishlistItem, action Action) {
	e.items = next

	if err := e.store.Save(ctx, e.items); err != nil {
		e.log.ErrorContext(ctx, "Failed to persist wishlist, keeping in-memory state", "error", err)
	}

	if e.metrics != nil {
		e.metrics.WishlistMutations.WithLabelValues(action.String()).Inc()
	}

	e.log.DebugContext(ctx, "Wishlist updated", "action", action.String(), "count", len(e.items))
}
