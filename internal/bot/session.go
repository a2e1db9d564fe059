package bot

import (
	"context"
	"strings"
	"sync"

	"gopkg.in/telebot.v4"

	"github.com/Houeta/darkside-companion/internal/models"
	"github.com/Houeta/darkside-companion/internal/search"
)

// userSession is the per-user state of the bot: one search panel and one
// wishlist view.
type userSession struct {
	search  *search.Client
	display *inlineDisplay
	view    *tgView

	mu     sync.Mutex
	target telebot.Editable
}

func (b *Bot) session(userID int64) *userSession {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sess, ok := b.users[userID]; ok {
		return sess
	}

	sess := &userSession{
		display: &inlineDisplay{bot: b},
		view:    newTGView(b.log.With("user_id", userID), b.bot),
	}
	sess.search = search.NewClient(
		b.ctx,
		b.log.With("user_id", userID),
		b.deps.Suggester,
		sess.display,
		b.deps.Search,
		func(ctx context.Context, handle string) {
			b.showComparison(ctx, userID, handle, sess.takeTarget())
		},
		b.deps.Metrics,
	)
	b.users[userID] = sess

	return sess
}

// selectInto records where the next selected product is rendered.
func (s *userSession) selectInto(target telebot.Editable) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.target = target
}

func (s *userSession) takeTarget() telebot.Editable {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.target
	s.target = nil

	return target
}

// inlineDisplay shows search results by answering the user's latest inline query.
type inlineDisplay struct {
	bot *Bot

	mu      sync.Mutex
	pending *telebot.Query
}

func (d *inlineDisplay) setPending(q *telebot.Query) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = q
}

func (d *inlineDisplay) take(match func(*telebot.Query) bool) *telebot.Query {
	d.mu.Lock()
	defer d.mu.Unlock()

	q := d.pending
	if q == nil || (match != nil && !match(q)) {
		return nil
	}
	d.pending = nil

	return q
}

func (d *inlineDisplay) Show(query string, results []models.ProductSummary) {
	q := d.take(func(q *telebot.Query) bool { return strings.TrimSpace(q.Text) == query })
	if q == nil {
		return
	}

	if d.bot.deps.Cache != nil {
		d.bot.deps.Cache.PutAll(results)
	}

	d.bot.answer(q, d.bot.inlineResults(d.bot.ctx, q.Sender.ID, results))
}

func (d *inlineDisplay) Hide() {
	if q := d.take(nil); q != nil {
		d.bot.answer(q, telebot.Results{})
	}
}

func (b *Bot) answer(q *telebot.Query, results telebot.Results) {
	err := b.bot.Answer(q, &telebot.QueryResponse{Results: results, IsPersonal: true})
	if err != nil {
		b.log.Warn("Failed to answer inline query", "query", q.Text, "error", err)
	}
}
