package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v4"

	"github.com/Houeta/darkside-companion/internal/cache"
	"github.com/Houeta/darkside-companion/internal/cart"
	"github.com/Houeta/darkside-companion/internal/models"
	"github.com/Houeta/darkside-companion/internal/repository"
	"github.com/Houeta/darkside-companion/internal/search"
	"github.com/Houeta/darkside-companion/internal/storefront"
	"github.com/Houeta/darkside-companion/test/mocks"
)

// =============================================================================
// Fakes
// =============================================================================

type memStorage struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memStorage) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.data[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return v, nil
}

func (m *memStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
	return nil
}

func (m *memStorage) Close() error { return nil }

type fakeLoader struct {
	products map[string]*models.Product
}

func (f *fakeLoader) GetProduct(_ context.Context, handle string) (*models.Product, error) {
	p, ok := f.products[handle]
	if !ok {
		return nil, fmt.Errorf("fake: %w", storefront.ErrProductNotFound)
	}
	return p, nil
}

type fakeSuggester struct {
	results []models.ProductSummary
}

func (f *fakeSuggester) SuggestProducts(_ context.Context, _ string, _ int) ([]models.ProductSummary, error) {
	return f.results, nil
}

type fakeCart struct {
	result    cart.Result
	cart      *models.Cart
	removeErr error
	removed   []string
}

func (f *fakeCart) AddVariant(_ context.Context, _ string, _ int64) cart.Result { return f.result }

func (f *fakeCart) Cart(_ context.Context, _ string) (*models.Cart, error) { return f.cart, nil }

func (f *fakeCart) Remove(_ context.Context, _ string, key string) (*models.Cart, error) {
	if f.removeErr != nil {
		return nil, f.removeErr
	}
	f.removed = append(f.removed, key)

	kept := &models.Cart{}
	for _, it := range f.cart.Items {
		if it.Key == key {
			continue
		}
		kept.Items = append(kept.Items, it)
		kept.ItemCount += it.Quantity
	}

	return kept, nil
}

func (f *fakeCart) Describe(c *models.Cart) string {
	if c == nil || c.ItemCount == 0 {
		return cart.MsgEmpty
	}
	return fmt.Sprintf("%d item(s) in cart", c.ItemCount)
}

func qty(n int) *int { return &n }

func lotus() *models.Product {
	return &models.Product{
		Handle: "black-lotus",
		Title:  "Black Lotus",
		Vendor: "Wizards",
		Type:   "MTG Single",
		Price:  1999,
		Variants: []models.Variant{
			{ID: 101, Title: "Near Mint", Option1: "Near Mint", Price: 1999, InventoryQuantity: qty(5)},
			{ID: 102, Title: "Damaged", Option1: "Damaged", Price: 500, InventoryQuantity: qty(0)},
		},
	}
}

func newTestBot(t *testing.T, api API, c *fakeCart) *Bot {
	t.Helper()

	if c == nil {
		c = &fakeCart{}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return newBot(t.Context(), logger, api, Deps{
		Products:    &fakeLoader{products: map[string]*models.Product{"black-lotus": lotus()}},
		Suggester:   &fakeSuggester{results: []models.ProductSummary{lotus().Summary()}},
		Storage:     &memStorage{data: make(map[string]string)},
		Cart:        c,
		Cache:       cache.NewProductCache(t.Context(), time.Minute),
		Search:      search.Config{Debounce: time.Millisecond},
		MoneyFormat: "${{amount}}",
	})
}

// =============================================================================
// Lifecycle
// =============================================================================

func TestStart(t *testing.T) {
	t.Parallel()

	mockBot := mocks.NewAPI(t)
	mockBot.On("Start").Once()

	testBot := newTestBot(t, mockBot, nil)

	testBot.Start()

	mockBot.AssertExpectations(t)
}

func TestStop(t *testing.T) {
	t.Parallel()

	mockBot := mocks.NewAPI(t)
	mockBot.On("Stop").Once()

	testBot := newTestBot(t, mockBot, nil)
	testBot.session(1)

	testBot.Stop()

	mockBot.AssertExpectations(t)
}

func TestRegisterRoutes(t *testing.T) {
	t.Parallel()

	mockBot := mocks.NewAPI(t)

	for _, endpoint := range []interface{}{
		"/start", "/help", "/wishlist", "/compare", "/cart",
		telebot.OnText, telebot.OnQuery, telebot.OnInlineResult,
		&btnWish, &btnCart, &btnUncart,
	} {
		mockBot.On("Handle", endpoint, mock.AnythingOfType("telebot.HandlerFunc")).Once()
	}

	testBot := newTestBot(t, mockBot, nil)

	testBot.registerRoutes()

	mockBot.AssertExpectations(t)
}

// =============================================================================
// Inline search
// =============================================================================

func TestHandleQuery_AnswersWithResults(t *testing.T) {
	mockBot := mocks.NewAPI(t)
	testBot := newTestBot(t, mockBot, nil)

	q := &telebot.Query{ID: "q1", Text: " lotus ", Sender: &telebot.User{ID: 42}}
	answered := make(chan *telebot.QueryResponse, 1)
	mockBot.On("Answer", q, mock.Anything).
		Run(func(args mock.Arguments) { answered <- args.Get(1).(*telebot.QueryResponse) }).
		Return(nil).Once()

	testBot.handleQuery(q)

	select {
	case resp := <-answered:
		require.Len(t, resp.Results, 1)
		assert.Equal(t, "black-lotus", resp.Results[0].ResultID())
		assert.True(t, resp.IsPersonal)
	case <-time.After(2 * time.Second):
		t.Fatal("inline query was not answered")
	}

	_, cached := testBot.deps.Cache.Get("black-lotus")
	assert.True(t, cached)
}

func TestHandleQuery_HeartsReflectWishlist(t *testing.T) {
	mockBot := mocks.NewAPI(t)
	testBot := newTestBot(t, mockBot, nil)

	engine := testBot.wishlists.Get(t.Context(), "42")
	engine.Add(t.Context(), lotus().Summary())

	q := &telebot.Query{ID: "q1", Text: "lotus", Sender: &telebot.User{ID: 42}}
	answered := make(chan *telebot.QueryResponse, 1)
	mockBot.On("Answer", q, mock.Anything).
		Run(func(args mock.Arguments) { answered <- args.Get(1).(*telebot.QueryResponse) }).
		Return(nil).Once()

	testBot.handleQuery(q)

	select {
	case resp := <-answered:
		require.Len(t, resp.Results, 1)
		article, ok := resp.Results[0].(*telebot.ArticleResult)
		require.True(t, ok)
		assert.Equal(t, "❤️ In wishlist (1)", heartText(article.ReplyMarkup))
	case <-time.After(2 * time.Second):
		t.Fatal("inline query was not answered")
	}
}

func TestHandleQuery_ShortQueryAnswersEmpty(t *testing.T) {
	mockBot := mocks.NewAPI(t)
	testBot := newTestBot(t, mockBot, nil)

	q := &telebot.Query{ID: "q1", Text: "l", Sender: &telebot.User{ID: 42}}
	mockBot.On("Answer", q, mock.MatchedBy(func(r *telebot.QueryResponse) bool {
		return len(r.Results) == 0
	})).Return(nil).Once()

	testBot.handleQuery(q)
}

// =============================================================================
// Selection, wishlist and cart
// =============================================================================

func heartText(markup *telebot.ReplyMarkup) string {
	if markup == nil || len(markup.InlineKeyboard) == 0 {
		return ""
	}
	return markup.InlineKeyboard[0][0].Text
}

func TestInlineResult_RendersComparisonAndTogglesWishlist(t *testing.T) {
	mockBot := mocks.NewAPI(t)
	testBot := newTestBot(t, mockBot, nil)
	target := &telebot.StoredMessage{MessageID: "inline-1"}

	// Arrange: the chosen result is edited into the comparison.
	mockBot.On("Edit", target, mock.AnythingOfType("string"), mock.MatchedBy(func(o *telebot.SendOptions) bool {
		markup := o.ReplyMarkup
		return o.ParseMode == telebot.ModeHTML &&
			heartText(markup) == "🤍 Add to wishlist (0)" &&
			len(markup.InlineKeyboard) == 2 &&
			markup.InlineKeyboard[1][0].Text == "🛒 Near Mint · 19.99"
	})).Return(nil, telebot.ErrTrueResult).Once()

	// Act
	testBot.handleInlineResult(&telebot.InlineResult{
		Sender:    &telebot.User{ID: 42},
		ResultID:  "black-lotus",
		MessageID: "inline-1",
	})

	// Assert
	require.True(t, testBot.session(42).view.isBound(*target))

	// Arrange: pressing the heart adds the card and flips the toggle.
	cb := &telebot.Callback{Sender: &telebot.User{ID: 42}, MessageID: "inline-1", Data: "black-lotus"}
	mockBot.On("EditReplyMarkup", mock.Anything, mock.MatchedBy(func(m *telebot.ReplyMarkup) bool {
		return heartText(m) == "❤️ In wishlist (1)"
	})).Return(nil, telebot.ErrTrueResult).Once()
	mockBot.On("Respond", cb, mock.MatchedBy(func(r *telebot.CallbackResponse) bool {
		return r.Text == "Added to wishlist"
	})).Return(nil).Once()

	// Act
	require.NoError(t, testBot.handleWish(t.Context(), cb))

	// Assert
	engine := testBot.wishlists.Get(t.Context(), "42")
	assert.True(t, engine.IsInWishlist("black-lotus"))
	assert.Equal(t, "19.99", engine.Items()[0].Price)

	// Pressing again removes it.
	mockBot.On("EditReplyMarkup", mock.Anything, mock.MatchedBy(func(m *telebot.ReplyMarkup) bool {
		return heartText(m) == "🤍 Add to wishlist (0)"
	})).Return(nil, telebot.ErrTrueResult).Once()
	mockBot.On("Respond", cb, mock.MatchedBy(func(r *telebot.CallbackResponse) bool {
		return r.Text == "Removed from wishlist"
	})).Return(nil).Once()

	require.NoError(t, testBot.handleWish(t.Context(), cb))
	assert.False(t, engine.IsInWishlist("black-lotus"))
}

func TestShowComparison_NotFoundSendsMessage(t *testing.T) {
	mockBot := mocks.NewAPI(t)
	testBot := newTestBot(t, mockBot, nil)

	mockBot.On("Send", &telebot.User{ID: 42}, `Product "missing" was not found.`, mock.Anything).
		Return(&telebot.Message{ID: 5, Chat: &telebot.Chat{ID: 42}}, nil).Once()

	testBot.showComparison(t.Context(), 42, "missing", nil)

	assert.Empty(t, testBot.session(42).view.BoundHandles())
}

func TestShowComparison_SendsAndBinds(t *testing.T) {
	mockBot := mocks.NewAPI(t)
	testBot := newTestBot(t, mockBot, nil)

	mockBot.On("Send", &telebot.User{ID: 42}, mock.AnythingOfType("string"), mock.AnythingOfType("*telebot.SendOptions")).
		Return(&telebot.Message{ID: 5, Chat: &telebot.Chat{ID: 42}}, nil).Once()

	testBot.showComparison(t.Context(), 42, "black-lotus", nil)

	assert.Equal(t, []string{"black-lotus"}, testBot.session(42).view.BoundHandles())
	assert.True(t, testBot.session(42).view.isBound(telebot.StoredMessage{MessageID: "5", ChatID: 42}))
}

func TestHandleCartButton(t *testing.T) {
	testCases := []struct {
		name     string
		data     string
		result   cart.Result
		expected string
	}{
		{
			name:     "added",
			data:     "101",
			result:   cart.Result{OK: true, Message: cart.MsgAdded, ItemCount: 3},
			expected: "Item added to cart! Cart: 3",
		},
		{
			name:     "added, count unknown",
			data:     "101",
			result:   cart.Result{OK: true, Message: cart.MsgAdded, ItemCount: -1},
			expected: "Item added to cart!",
		},
		{
			name:     "failed",
			data:     "101",
			result:   cart.Result{Message: cart.MsgFailed, ItemCount: -1},
			expected: "Error adding item to cart",
		},
		{
			name:     "malformed payload",
			data:     "abc",
			expected: "Error adding item to cart",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockBot := mocks.NewAPI(t)
			testBot := newTestBot(t, mockBot, &fakeCart{result: tc.result})
			cb := &telebot.Callback{Sender: &telebot.User{ID: 42}, Data: tc.data}

			mockBot.On("Respond", cb, &telebot.CallbackResponse{Text: tc.expected}).Return(nil).Once()

			require.NoError(t, testBot.handleCartButton(t.Context(), cb))
		})
	}
}

func TestCartView(t *testing.T) {
	mockBot := mocks.NewAPI(t)
	fc := &fakeCart{cart: &models.Cart{ItemCount: 3, Items: []models.CartItem{
		{Key: "101:abc", VariantID: 101, Title: "Black Lotus - Near Mint", Quantity: 2},
		{Key: "102:def", VariantID: 102, Title: "Mox Pearl - Damaged", Quantity: 1},
	}}}
	testBot := newTestBot(t, mockBot, fc)

	text, markup := testBot.cartView(t.Context(), 42)

	assert.Equal(t, "3 item(s) in cart", text)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, "✖ Remove Black Lotus - Near Mint", markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "uncart", markup.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "101:abc", markup.InlineKeyboard[0][0].Data)
	assert.Equal(t, "102:def", markup.InlineKeyboard[1][0].Data)
}

func TestHandleUncart(t *testing.T) {
	t.Run("removes the line and redraws the cart", func(t *testing.T) {
		mockBot := mocks.NewAPI(t)
		fc := &fakeCart{cart: &models.Cart{ItemCount: 3, Items: []models.CartItem{
			{Key: "101:abc", VariantID: 101, Title: "Black Lotus - Near Mint", Quantity: 2},
			{Key: "102:def", VariantID: 102, Title: "Mox Pearl - Damaged", Quantity: 1},
		}}}
		testBot := newTestBot(t, mockBot, fc)
		cb := &telebot.Callback{
			Sender:  &telebot.User{ID: 42},
			Message: &telebot.Message{ID: 9, Chat: &telebot.Chat{ID: 42}},
			Data:    "101:abc",
		}

		mockBot.On("Edit", &telebot.StoredMessage{MessageID: "9", ChatID: 42}, "1 item(s) in cart",
			mock.MatchedBy(func(m *telebot.ReplyMarkup) bool { return len(m.InlineKeyboard) == 1 })).
			Return(nil, telebot.ErrTrueResult).Once()
		mockBot.On("Respond", cb, &telebot.CallbackResponse{Text: "Item removed from cart. Cart: 1"}).
			Return(nil).Once()

		require.NoError(t, testBot.handleUncart(t.Context(), cb))
		assert.Equal(t, []string{"101:abc"}, fc.removed)
	})

	t.Run("storefront error is reported", func(t *testing.T) {
		mockBot := mocks.NewAPI(t)
		testBot := newTestBot(t, mockBot, &fakeCart{removeErr: storefront.ErrUnexpectedStatus})
		cb := &telebot.Callback{Sender: &telebot.User{ID: 42}, Data: "101:abc"}

		mockBot.On("Respond", cb, &telebot.CallbackResponse{Text: cart.MsgRemoveFailed}).Return(nil).Once()

		require.NoError(t, testBot.handleUncart(t.Context(), cb))
	})
}

func TestWishlistText(t *testing.T) {
	mockBot := mocks.NewAPI(t)
	testBot := newTestBot(t, mockBot, nil)

	assert.Contains(t, testBot.wishlistText(t.Context(), 7), "Your wishlist is empty")

	engine := testBot.wishlists.Get(t.Context(), "7")
	engine.Add(t.Context(), models.ProductSummary{Handle: "mox", Title: "Mox <Pearl>", Price: "1234.5", Vendor: "Wizards"})

	text := testBot.wishlistText(t.Context(), 7)

	assert.Contains(t, text, "<b>Your wishlist (1)</b>")
	assert.Contains(t, text, "1. <b>Mox &lt;Pearl&gt;</b> · $1,234.50 · Wizards")
	assert.Contains(t, text, "/compare mox")
}
