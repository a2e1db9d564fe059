package cart_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Houeta/darkside-companion/internal/cart"
	"github.com/Houeta/darkside-companion/internal/metrics"
	"github.com/Houeta/darkside-companion/internal/models"
	"github.com/Houeta/darkside-companion/internal/storefront"
)

type storefrontMock struct {
	mock.Mock
}

func (m *storefrontMock) AddToCart(ctx context.Context, sess *storefront.Session, variantID int64, quantity int) error {
	args := m.Called(ctx, sess, variantID, quantity)
	return args.Error(0)
}

func (m *storefrontMock) GetCart(ctx context.Context, sess *storefront.Session) (*models.Cart, error) {
	args := m.Called(ctx, sess)
	c, _ := args.Get(0).(*models.Cart)
	return c, args.Error(1)
}

func (m *storefrontMock) UpdateCart(ctx context.Context, sess *storefront.Session, updates map[string]int) (*models.Cart, error) {
	args := m.Called(ctx, sess, updates)
	c, _ := args.Get(0).(*models.Cart)
	return c, args.Error(1)
}

func newService(t *testing.T) (*cart.Service, *storefrontMock, *metrics.Metrics) {
	t.Helper()

	sf := &storefrontMock{}
	t.Cleanup(func() { sf.AssertExpectations(t) })
	m := metrics.NewNop()

	return cart.NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), sf, "${{amount}}", m), sf, m
}

func TestAddVariant_Success(t *testing.T) {
	svc, sf, m := newService(t)
	sf.On("AddToCart", mock.Anything, mock.AnythingOfType("*storefront.Session"), int64(101), 1).Return(nil).Once()
	sf.On("GetCart", mock.Anything, mock.AnythingOfType("*storefront.Session")).Return(&models.Cart{ItemCount: 3}, nil).Once()

	res := svc.AddVariant(t.Context(), "42", 101)

	assert.Equal(t, cart.Result{OK: true, Message: cart.MsgAdded, ItemCount: 3}, res)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.CartAdds.WithLabelValues("ok")), 0)
}

func TestAddVariant_FailureSkipsRefresh(t *testing.T) {
	svc, sf, m := newService(t)
	sf.On("AddToCart", mock.Anything, mock.Anything, int64(7), 1).Return(assert.AnError).Once()

	res := svc.AddVariant(t.Context(), "42", 7)

	assert.Equal(t, cart.Result{OK: false, Message: cart.MsgFailed, ItemCount: -1}, res)
	sf.AssertNotCalled(t, "GetCart", mock.Anything, mock.Anything)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.CartAdds.WithLabelValues("error")), 0)
}

func TestAddVariant_RefreshFailureStillAdded(t *testing.T) {
	svc, sf, _ := newService(t)
	sf.On("AddToCart", mock.Anything, mock.Anything, int64(7), 1).Return(nil).Once()
	sf.On("GetCart", mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()

	res := svc.AddVariant(t.Context(), "42", 7)

	assert.True(t, res.OK)
	assert.Equal(t, -1, res.ItemCount)
}

func TestAddVariant_SessionPerScope(t *testing.T) {
	svc, sf, _ := newService(t)

	var sessions []*storefront.Session
	sf.On("AddToCart", mock.Anything, mock.Anything, int64(1), 1).
		Run(func(args mock.Arguments) {
			sessions = append(sessions, args.Get(1).(*storefront.Session))
		}).
		Return(nil).Times(3)
	sf.On("GetCart", mock.Anything, mock.Anything).Return(&models.Cart{ItemCount: 1}, nil).Times(3)

	svc.AddVariant(t.Context(), "a", 1)
	svc.AddVariant(t.Context(), "a", 1)
	svc.AddVariant(t.Context(), "b", 1)

	require.Len(t, sessions, 3)
	assert.Same(t, sessions[0], sessions[1])
	assert.NotSame(t, sessions[0], sessions[2])
}

func TestCart(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, sf, _ := newService(t)
		sf.On("GetCart", mock.Anything, mock.Anything).Return(&models.Cart{ItemCount: 2}, nil).Once()

		c, err := svc.Cart(t.Context(), "1")

		require.NoError(t, err)
		assert.Equal(t, 2, c.ItemCount)
	})

	t.Run("error", func(t *testing.T) {
		svc, sf, _ := newService(t)
		sf.On("GetCart", mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()

		_, err := svc.Cart(t.Context(), "1")

		require.ErrorIs(t, err, assert.AnError)
	})
}

func TestDescribe(t *testing.T) {
	svc, _, _ := newService(t)

	testCases := []struct {
		name     string
		cart     *models.Cart
		expected string
	}{
		{name: "nil cart", cart: nil, expected: cart.MsgEmpty},
		{name: "empty cart", cart: &models.Cart{}, expected: cart.MsgEmpty},
		{
			name: "with lines",
			cart: &models.Cart{
				ItemCount:  3,
				TotalPrice: 123456,
				Items: []models.CartItem{
					{Key: "1:a", Title: "Black Lotus - Near Mint", Quantity: 1, LinePrice: 120000},
					{Key: "2:b", Title: "Mox Pearl - Damaged", Quantity: 2, LinePrice: 3456},
				},
			},
			expected: "3 item(s) in cart, total $1,234.56\n" +
				"• Black Lotus - Near Mint × 1 · $1,200.00\n" +
				"• Mox Pearl - Damaged × 2 · $34.56",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, svc.Describe(tc.cart))
		})
	}
}

func TestRemove(t *testing.T) {
	t.Run("sets the line quantity to zero", func(t *testing.T) {
		svc, sf, m := newService(t)
		sf.On("UpdateCart", mock.Anything, mock.AnythingOfType("*storefront.Session"), map[string]int{"1:a": 0}).
			Return(&models.Cart{ItemCount: 2}, nil).Once()

		c, err := svc.Remove(t.Context(), "42", "1:a")

		require.NoError(t, err)
		assert.Equal(t, 2, c.ItemCount)
		assert.InDelta(t, 1.0, testutil.ToFloat64(m.CartRemovals.WithLabelValues("ok")), 0)
	})

	t.Run("uses the scope session", func(t *testing.T) {
		svc, sf, _ := newService(t)

		var added, updated *storefront.Session
		sf.On("AddToCart", mock.Anything, mock.Anything, int64(1), 1).
			Run(func(args mock.Arguments) { added = args.Get(1).(*storefront.Session) }).
			Return(nil).Once()
		sf.On("GetCart", mock.Anything, mock.Anything).Return(&models.Cart{ItemCount: 1}, nil).Once()
		sf.On("UpdateCart", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { updated = args.Get(1).(*storefront.Session) }).
			Return(&models.Cart{}, nil).Once()

		svc.AddVariant(t.Context(), "42", 1)
		_, err := svc.Remove(t.Context(), "42", "1")

		require.NoError(t, err)
		assert.Same(t, added, updated)
	})

	t.Run("error", func(t *testing.T) {
		svc, sf, m := newService(t)
		sf.On("UpdateCart", mock.Anything, mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()

		_, err := svc.Remove(t.Context(), "42", "1:a")

		require.ErrorIs(t, err, assert.AnError)
		assert.InDelta(t, 1.0, testutil.ToFloat64(m.CartRemovals.WithLabelValues("error")), 0)
	})
}
