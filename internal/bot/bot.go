package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	"gopkg.in/telebot.v4"

	"github.com/Houeta/darkside-companion/internal/cache"
	"github.com/Houeta/darkside-companion/internal/metrics"
	"github.com/Houeta/darkside-companion/internal/repository"
	"github.com/Houeta/darkside-companion/internal/search"
	"github.com/Houeta/darkside-companion/internal/wishlist"
)

// Deps are the services the bot drives.
type Deps struct {
	Products    ProductLoader
	Suggester   search.Suggester
	Storage     repository.Storage
	Cart        CartService
	Cache       *cache.ProductCache
	Search      search.Config
	Metrics     *metrics.Metrics
	StoreURL    *url.URL
	MoneyFormat string
}

// Bot contains the bot API instance and other information.
type Bot struct {
	ctx       context.Context //nolint:containedctx // telebot handlers carry no context
	bot       API
	log       *slog.Logger
	deps      Deps
	wishlists *wishlist.Sessions

	mu    sync.Mutex
	users map[int64]*userSession
}

func NewBot(ctx context.Context, log *slog.Logger, token string, poller time.Duration, deps Deps) (*Bot, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: poller, AllowedUpdates: allowedUpdates},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	log.Info("Authorized on acount", "account", bot.Me.Username)

	botInstance := newBot(ctx, log, bot, deps)

	botInstance.registerRoutes()

	return botInstance, nil
}

var allowedUpdates = []string{"message", "inline_query", "chosen_inline_result", "callback_query"} //nolint:gochecknoglobals // poller config

func newBot(ctx context.Context, log *slog.Logger, api API, deps Deps) *Bot {
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNop()
	}

	b := &Bot{
		ctx:   ctx,
		bot:   api,
		log:   log,
		deps:  deps,
		users: make(map[int64]*userSession),
	}
	b.wishlists = wishlist.NewSessions(log, deps.Storage, b.viewFor, wishlist.WithMetrics(deps.Metrics))

	return b
}

// Wishlists exposes the per-user wishlist engines.
func (b *Bot) Wishlists() *wishlist.Sessions {
	return b.wishlists
}

// Start launches the bot to listen for updates.
func (b *Bot) Start() {
	b.log.Info("Telegram bot is starting...")
	b.bot.Start()
}

// Stop gracefully stops the Telegram bot and logs the action.
func (b *Bot) Stop() {
	b.log.Info("Telegram bot is stopped...")
	b.bot.Stop()

	b.mu.Lock()
	sessions := make([]*userSession, 0, len(b.users))
	for _, sess := range b.users {
		sessions = append(sessions, sess)
	}
	b.mu.Unlock()

	for _, sess := range sessions {
		sess.search.Close()
	}
}

// registerRoutes configures all routes (commands, inline mode and buttons).
func (b *Bot) registerRoutes() {
	b.bot.Handle("/start", b.startHandler)
	b.bot.Handle("/help", b.startHandler)
	b.bot.Handle("/wishlist", b.wishlistHandler)
	b.bot.Handle("/compare", b.compareHandler)
	b.bot.Handle("/cart", b.cartHandler)

	b.bot.Handle(telebot.OnText, b.textHandler)
	b.bot.Handle(telebot.OnQuery, b.queryHandler)
	b.bot.Handle(telebot.OnInlineResult, b.inlineResultHandler)

	b.bot.Handle(&btnWish, b.wishHandler)
	b.bot.Handle(&btnCart, b.cartButtonHandler)
	b.bot.Handle(&btnUncart, b.uncartHandler)
}

func scopeOf(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// viewFor binds a wishlist scope to the Telegram view of that user.
func (b *Bot) viewFor(scope string) wishlist.View {
	userID, err := strconv.ParseInt(scope, 10, 64)
	if err != nil {
		return wishlist.NopView{}
	}

	return b.session(userID).view
}
