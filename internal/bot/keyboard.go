package bot

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"gopkg.in/telebot.v4"

	"github.com/Houeta/darkside-companion/internal/compare"
	"github.com/Houeta/darkside-companion/internal/models"
)

var (
	btnWish   = telebot.Btn{Unique: "wish"}   //nolint:gochecknoglobals // callback endpoint
	btnCart   = telebot.Btn{Unique: "cart"}   //nolint:gochecknoglobals // callback endpoint
	btnUncart = telebot.Btn{Unique: "uncart"} //nolint:gochecknoglobals // callback endpoint
)

// maxLineKey keeps "\f<unique>|<key>" within Telegram's 64 byte callback data.
const maxLineKey = 64 - len("\funcart|")

func heartLabel(active bool, count int) string {
	if active {
		return fmt.Sprintf("❤️ In wishlist (%d)", count)
	}

	return fmt.Sprintf("🤍 Add to wishlist (%d)", count)
}

// comparisonKeyboard renders the wishlist toggle plus one add-to-cart
// button per purchasable condition row.
func comparisonKeyboard(handle string, active bool, count int, rows []compare.Row) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}

	lines := []telebot.Row{markup.Row(markup.Data(heartLabel(active, count), btnWish.Unique, handle))}
	for _, row := range rows {
		if row.Disabled {
			continue
		}
		label := fmt.Sprintf("🛒 %s · %s", row.Condition, row.PriceText)
		lines = append(lines, markup.Row(markup.Data(label, btnCart.Unique, strconv.FormatInt(row.VariantID, 10))))
	}

	markup.Inline(lines...)

	return markup
}

// cartKeyboard renders one remove button per cart line.
func cartKeyboard(c *models.Cart) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	if c == nil {
		return markup
	}

	lines := make([]telebot.Row, 0, len(c.Items))
	for _, it := range c.Items {
		label := fmt.Sprintf("✖ Remove %s", it.Title)
		lines = append(lines, markup.Row(markup.Data(label, btnUncart.Unique, lineKey(it))))
	}

	markup.Inline(lines...)

	return markup
}

// lineKey identifies a cart line in callback data. Line keys that do not fit
// fall back to the variant id, which the storefront also accepts.
func lineKey(it models.CartItem) string {
	if it.Key != "" && len(it.Key) <= maxLineKey {
		return it.Key
	}

	return strconv.FormatInt(it.VariantID, 10)
}

// inlineResults builds the answer to an inline query. Every heart reflects
// the user's wishlist at answer time.
func (b *Bot) inlineResults(ctx context.Context, userID int64, products []models.ProductSummary) telebot.Results {
	results := make(telebot.Results, 0, len(products))
	engine := b.wishlists.Get(ctx, scopeOf(userID))
	count := engine.Count()

	for _, p := range products {
		article := &telebot.ArticleResult{
			Title:       p.Title,
			Description: describe(p),
			Text:        fmt.Sprintf("🔎 %s", p.Title),
			ThumbURL:    absoluteURL(b.deps.StoreURL, p.Image),
		}
		article.SetResultID(p.Handle)
		article.SetReplyMarkup(comparisonKeyboard(p.Handle, engine.IsInWishlist(p.Handle), count, nil))
		results = append(results, article)
	}

	return results
}

func describe(p models.ProductSummary) string {
	parts := make([]string, 0, 3) //nolint:mnd // type, variants, price
	if p.Type != "" {
		parts = append(parts, p.Type)
	}
	if p.VariantCount > 0 {
		parts = append(parts, fmt.Sprintf("%d variants", p.VariantCount))
	}
	if p.Price != "" {
		parts = append(parts, p.Price)
	}

	return strings.Join(parts, " · ")
}

// absoluteURL resolves protocol-relative and path-only image URLs against base.
func absoluteURL(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}

	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}

	if base == nil {
		if u.Scheme == "" && u.Host != "" {
			u.Scheme = "https"
		}
		return u.String()
	}

	return base.ResolveReference(u).String()
}
