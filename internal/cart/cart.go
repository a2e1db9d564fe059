// Package cart performs add-to-cart actions on behalf of a shopper scope
// and reports the outcome the way the storefront buttons do.
package cart

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Houeta/darkside-companion/internal/compare"
	"github.com/Houeta/darkside-companion/internal/metrics"
	"github.com/Houeta/darkside-companion/internal/models"
	"github.com/Houeta/darkside-companion/internal/storefront"
)

// User-facing messages.
const (
	MsgAdded        = "Item added to cart!"
	MsgFailed       = "Error adding item to cart"
	MsgRemoved      = "Item removed from cart"
	MsgRemoveFailed = "Error removing item from cart"
	MsgEmpty        = "Your cart is empty"
)

// Storefront is the part of the storefront client the service needs.
type Storefront interface {
	AddToCart(ctx context.Context, sess *storefront.Session, variantID int64, quantity int) error
	GetCart(ctx context.Context, sess *storefront.Session) (*models.Cart, error)
	UpdateCart(ctx context.Context, sess *storefront.Session, updates map[string]int) (*models.Cart, error)
}

// Result is the outcome of an add-to-cart action.
type Result struct {
	OK      bool
	Message string
	// ItemCount is the refreshed cart count; -1 when the refresh failed.
	ItemCount int
}

type Service struct {
	mu          sync.Mutex
	log         *slog.Logger
	store       Storefront
	metrics     *metrics.Metrics
	moneyFormat string
	sessions    map[string]*storefront.Session
}

func NewService(log *slog.Logger, store Storefront, moneyFormat string, m *metrics.Metrics) *Service {
	if m == nil {
		m = metrics.NewNop()
	}

	return &Service{
		log:         log,
		store:       store,
		metrics:     m,
		moneyFormat: moneyFormat,
		sessions:    make(map[string]*storefront.Session),
	}
}

func (s *Service) session(scope string) *storefront.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[scope]
	if !ok {
		sess = storefront.NewSession()
		s.sessions[scope] = sess
	}

	return sess
}

// AddVariant adds one unit of variantID to the scope's cart and refreshes
// the cart count. Failures are reported in the result, never returned.
func (s *Service) AddVariant(ctx context.Context, scope string, variantID int64) Result {
	const opn = "cart.AddVariant"
	log := s.log.With("op", opn, "scope", scope, "variant_id", variantID)

	sess := s.session(scope)

	if err := s.store.AddToCart(ctx, sess, variantID, 1); err != nil {
		s.metrics.CartAdds.WithLabelValues("error").Inc()
		log.ErrorContext(ctx, "Error adding to cart", "error", err)
		return Result{OK: false, Message: MsgFailed, ItemCount: -1}
	}
	s.metrics.CartAdds.WithLabelValues("ok").Inc()

	res := Result{OK: true, Message: MsgAdded, ItemCount: -1}

	cart, err := s.store.GetCart(ctx, sess)
	if err != nil {
		log.WarnContext(ctx, "Item added but cart count refresh failed", "error", err)
		return res
	}

	res.ItemCount = cart.ItemCount
	log.InfoContext(ctx, "Item added to cart", "item_count", cart.ItemCount)

	return res
}

// Cart returns the scope's current cart.
func (s *Service) Cart(ctx context.Context, scope string) (*models.Cart, error) {
	const opn = "cart.Cart"

	cart, err := s.store.GetCart(ctx, s.session(scope))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	return cart, nil
}

// Remove drops the line identified by key from the scope's cart and returns
// the updated cart.
func (s *Service) Remove(ctx context.Context, scope, key string) (*models.Cart, error) {
	const opn = "cart.Remove"

	cart, err := s.store.UpdateCart(ctx, s.session(scope), map[string]int{key: 0})
	if err != nil {
		s.metrics.CartRemovals.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%s: line %s: %w", opn, key, err)
	}
	s.metrics.CartRemovals.WithLabelValues("ok").Inc()

	s.log.InfoContext(ctx, "Item removed from cart", "op", opn, "scope", scope, "item_count", cart.ItemCount)

	return cart, nil
}

// Describe renders cart as plain text: a count and total line followed by
// one line per item.
func (s *Service) Describe(cart *models.Cart) string {
	if cart == nil || cart.ItemCount == 0 {
		return MsgEmpty
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d item(s) in cart, total %s", cart.ItemCount, compare.FormatMoney(cart.TotalPrice, s.moneyFormat))
	for _, it := range cart.Items {
		fmt.Fprintf(&sb, "\n• %s × %d · %s", it.Title, it.Quantity, compare.FormatMoney(it.LinePrice, s.moneyFormat))
	}

	return sb.String()
}
