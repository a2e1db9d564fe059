package bot

import (
	"context"

	"gopkg.in/telebot.v4"

	"github.com/Houeta/darkside-companion/internal/cart"
	"github.com/Houeta/darkside-companion/internal/models"
)

// API is the subset of *telebot.Bot used by the companion.
type API interface {
	// Handle lets you set the handler for some command name or one of the supported endpoints. It also applies middleware if such passed to the function.
	Handle(endpoint interface{}, h telebot.HandlerFunc, m ...telebot.MiddlewareFunc)
	// Start brings bot into motion by consuming incoming updates (see Bot.Updates channel).
	Start()
	// Stop gracefully shuts the poller down.
	Stop()

	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)

	Answer(query *telebot.Query, resp *telebot.QueryResponse) error

	Edit(msg telebot.Editable, what interface{}, opts ...interface{}) (*telebot.Message, error)

	EditReplyMarkup(msg telebot.Editable, markup *telebot.ReplyMarkup) (*telebot.Message, error)

	Respond(c *telebot.Callback, resp ...*telebot.CallbackResponse) error
}

// ProductLoader loads full product documents.
type ProductLoader interface {
	GetProduct(ctx context.Context, handle string) (*models.Product, error)
}

// CartService performs cart actions per shopper scope.
type CartService interface {
	AddVariant(ctx context.Context, scope string, variantID int64) cart.Result
	Cart(ctx context.Context, scope string) (*models.Cart, error)
	Remove(ctx context.Context, scope, key string) (*models.Cart, error)
	Describe(c *models.Cart) string
}
