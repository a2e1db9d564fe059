package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"gopkg.in/telebot.v4"

	"github.com/Houeta/darkside-companion/internal/cart"
	"github.com/Houeta/darkside-companion/internal/compare"
	"github.com/Houeta/darkside-companion/internal/models"
	"github.com/Houeta/darkside-companion/internal/storefront"
	"github.com/Houeta/darkside-companion/internal/wishlist"
)

const (
	greeting = "Welcome to Darkside Games!\n\n" +
		"Type my name followed by a card name in any chat to search the store.\n" +
		"/compare <handle> shows prices and stock per condition.\n" +
		"/wishlist lists your saved cards, /cart shows your cart."
	dismissHint = "Search closed. Type my name followed by a card name to search again."
)

// startHandler process command /start.
func (b *Bot) startHandler(ctx telebot.Context) error {
	b.log.Info("User started the bot", "username", ctx.Sender().Username)

	if err := ctx.Send(greeting); err != nil {
		return fmt.Errorf("failed to send greeting message: %w", err)
	}

	return nil
}

// wishlistHandler process command /wishlist.
func (b *Bot) wishlistHandler(ctx telebot.Context) error {
	text := b.wishlistText(b.ctx, ctx.Sender().ID)

	if err := ctx.Send(text, telebot.ModeHTML); err != nil {
		return fmt.Errorf("failed to send wishlist: %w", err)
	}

	return nil
}

// compareHandler process command /compare <handle>.
func (b *Bot) compareHandler(ctx telebot.Context) error {
	args := ctx.Args()
	if len(args) == 0 {
		return ctx.Send("Usage: /compare <product-handle>")
	}

	b.showComparison(b.ctx, ctx.Sender().ID, strings.ToLower(args[0]), nil)

	return nil
}

// cartHandler process command /cart.
func (b *Bot) cartHandler(ctx telebot.Context) error {
	text, markup := b.cartView(b.ctx, ctx.Sender().ID)

	if err := ctx.Send(text, markup); err != nil {
		return fmt.Errorf("failed to send cart summary: %w", err)
	}

	return nil
}

func (b *Bot) cartView(ctx context.Context, userID int64) (string, *telebot.ReplyMarkup) {
	c, err := b.deps.Cart.Cart(ctx, scopeOf(userID))
	if err != nil {
		b.log.ErrorContext(ctx, "Failed to load cart", "user_id", userID, "error", err)
		return "Could not load your cart, please try again later.", nil
	}

	return b.deps.Cart.Describe(c), cartKeyboard(c)
}

// textHandler treats any plain message as a click outside the results panel.
func (b *Bot) textHandler(ctx telebot.Context) error {
	b.session(ctx.Sender().ID).search.Dismiss()

	return ctx.Send(dismissHint)
}

// queryHandler feeds every inline query keystroke into the user's search client.
func (b *Bot) queryHandler(ctx telebot.Context) error {
	b.handleQuery(ctx.Query())
	return nil
}

func (b *Bot) handleQuery(q *telebot.Query) {
	sess := b.session(q.Sender.ID)
	sess.display.setPending(q)
	sess.search.Input(q.Text)
}

// inlineResultHandler loads the product the user picked from the inline results.
func (b *Bot) inlineResultHandler(ctx telebot.Context) error {
	b.handleInlineResult(ctx.InlineResult())
	return nil
}

func (b *Bot) handleInlineResult(res *telebot.InlineResult) {
	sess := b.session(res.Sender.ID)

	if res.MessageID != "" {
		sess.selectInto(&telebot.StoredMessage{MessageID: res.MessageID})
	}

	sess.search.Select(b.ctx, res.ResultID)
}

func (b *Bot) wishHandler(ctx telebot.Context) error {
	return b.handleWish(b.ctx, ctx.Callback())
}

func (b *Bot) cartButtonHandler(ctx telebot.Context) error {
	return b.handleCartButton(b.ctx, ctx.Callback())
}

// handleWish toggles the product of the pressed heart button.
func (b *Bot) handleWish(ctx context.Context, cb *telebot.Callback) error {
	handle := cb.Data
	userID := cb.Sender.ID

	summary, err := b.summaryOf(ctx, handle)
	if err != nil {
		b.log.ErrorContext(ctx, "Failed to load product for wishlist", "handle", handle, "error", err)
		return b.respond(cb, "Could not load this product")
	}

	sess := b.session(userID)
	if target, ok := callbackTarget(cb); ok && !sess.view.isBound(target) {
		sess.view.bind(target, handle, nil, false, false, 0)
	}

	action := b.wishlists.Get(ctx, scopeOf(userID)).Toggle(ctx, summary)

	if action == wishlist.ActionAdded {
		return b.respond(cb, "Added to wishlist")
	}

	return b.respond(cb, "Removed from wishlist")
}

// handleCartButton adds the variant of the pressed button to the user's cart.
func (b *Bot) handleCartButton(ctx context.Context, cb *telebot.Callback) error {
	variantID, err := strconv.ParseInt(cb.Data, 10, 64)
	if err != nil {
		b.log.WarnContext(ctx, "Malformed cart button payload", "data", cb.Data)
		return b.respond(cb, "Error adding item to cart")
	}

	res := b.deps.Cart.AddVariant(ctx, scopeOf(cb.Sender.ID), variantID)

	text := res.Message
	if res.OK && res.ItemCount >= 0 {
		text = fmt.Sprintf("%s Cart: %d", res.Message, res.ItemCount)
	}

	return b.respond(cb, text)
}

func (b *Bot) uncartHandler(ctx telebot.Context) error {
	return b.handleUncart(b.ctx, ctx.Callback())
}

// handleUncart removes the cart line of the pressed button and redraws the
// cart message.
func (b *Bot) handleUncart(ctx context.Context, cb *telebot.Callback) error {
	c, err := b.deps.Cart.Remove(ctx, scopeOf(cb.Sender.ID), cb.Data)
	if err != nil {
		b.log.ErrorContext(ctx, "Failed to remove cart line", "key", cb.Data, "error", err)
		return b.respond(cb, cart.MsgRemoveFailed)
	}

	if target, ok := callbackTarget(cb); ok {
		_, err = b.bot.Edit(&target, b.deps.Cart.Describe(c), cartKeyboard(c))
		if err != nil && !errors.Is(err, telebot.ErrTrueResult) {
			b.log.WarnContext(ctx, "Failed to redraw cart", "error", err)
		}
	}

	return b.respond(cb, fmt.Sprintf("%s. Cart: %d", cart.MsgRemoved, c.ItemCount))
}

func (b *Bot) respond(cb *telebot.Callback, text string) error {
	if err := b.bot.Respond(cb, &telebot.CallbackResponse{Text: text}); err != nil {
		return fmt.Errorf("failed to respond to callback: %w", err)
	}

	return nil
}

func callbackTarget(cb *telebot.Callback) (telebot.StoredMessage, bool) {
	if cb.Message != nil {
		return storedOf(cb.Message), true
	}
	if cb.MessageID != "" {
		return telebot.StoredMessage{MessageID: cb.MessageID}, true
	}

	return telebot.StoredMessage{}, false
}

// summaryOf returns a wishlist snapshot source for handle, from the cache
// when possible.
func (b *Bot) summaryOf(ctx context.Context, handle string) (models.ProductSummary, error) {
	if b.deps.Cache != nil {
		if s, ok := b.deps.Cache.Get(handle); ok {
			return s, nil
		}
	}

	product, err := b.deps.Products.GetProduct(ctx, handle)
	if err != nil {
		return models.ProductSummary{}, err
	}

	summary := product.Summary()
	if b.deps.Cache != nil {
		b.deps.Cache.Put(summary)
	}

	return summary, nil
}

// showComparison renders the condition comparison of handle into target,
// or into a new message to the user when target is nil.
func (b *Bot) showComparison(ctx context.Context, userID int64, handle string, target telebot.Editable) {
	log := b.log.With("op", "bot.showComparison", "user_id", userID, "handle", handle)

	product, err := b.deps.Products.GetProduct(ctx, handle)
	if err != nil {
		log.ErrorContext(ctx, "Error loading product", "error", err)
		text := "Could not load this product, please try again later."
		if errors.Is(err, storefront.ErrProductNotFound) {
			text = fmt.Sprintf("Product %q was not found.", handle)
		}
		b.deliver(ctx, userID, target, text, nil)
		return
	}

	summary := product.Summary()
	if b.deps.Cache != nil {
		b.deps.Cache.Put(summary)
	}

	engine := b.wishlists.Get(ctx, scopeOf(userID))
	active, count := engine.IsInWishlist(product.Handle), engine.Count()

	rows := compare.Rows(product)
	markup := comparisonKeyboard(product.Handle, active, count, rows)

	stored, ok := b.deliver(ctx, userID, target, compare.RenderText(product), markup)
	if !ok {
		return
	}

	b.session(userID).view.bind(stored, product.Handle, rows, true, active, count)
}

// deliver edits target or sends a new message and returns where the text landed.
func (b *Bot) deliver(
	ctx context.Context,
	userID int64,
	target telebot.Editable,
	text string,
	markup *telebot.ReplyMarkup,
) (telebot.StoredMessage, bool) {
	opts := &telebot.SendOptions{ParseMode: telebot.ModeHTML, ReplyMarkup: markup}

	if target != nil {
		_, err := b.bot.Edit(target, text, opts)
		if err == nil || errors.Is(err, telebot.ErrTrueResult) {
			return storedOf(target), true
		}
		b.log.WarnContext(ctx, "Failed to edit message, sending a new one", "error", err)
	}

	msg, err := b.bot.Send(&telebot.User{ID: userID}, text, opts)
	if err != nil {
		b.log.ErrorContext(ctx, "Failed to send message", "user_id", userID, "error", err)
		return telebot.StoredMessage{}, false
	}

	return storedOf(msg), true
}

// wishlistText lists the user's wishlist.
func (b *Bot) wishlistText(ctx context.Context, userID int64) string {
	items := b.wishlists.Get(ctx, scopeOf(userID)).Items()
	if len(items) == 0 {
		return "Your wishlist is empty. Tap 🤍 on any card to save it."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Your wishlist (%d)</b>\n", len(items))
	for i, it := range items {
		fmt.Fprintf(&sb, "%d. <b>%s</b>", i+1, html.EscapeString(it.Title))
		if price := b.formatPrice(it.Price); price != "" {
			fmt.Fprintf(&sb, " · %s", html.EscapeString(price))
		}
		if it.Vendor != "" {
			fmt.Fprintf(&sb, " · %s", html.EscapeString(it.Vendor))
		}
		fmt.Fprintf(&sb, "\n   /compare %s\n", it.Handle)
	}

	return sb.String()
}

// formatPrice renders a snapshot price in the shop money format. Prices that
// are not decimal amounts are shown as stored.
func (b *Bot) formatPrice(price string) string {
	amount, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return price
	}

	return compare.FormatMoney(int64(amount*100+0.5), b.deps.MoneyFormat) //nolint:mnd // major to minor units
}
