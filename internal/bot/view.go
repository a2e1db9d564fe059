package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"gopkg.in/telebot.v4"

	"github.com/Houeta/darkside-companion/internal/compare"
)

const maxBoundMessages = 20

// boundMessage is a message whose keyboard carries a wishlist toggle.
type boundMessage struct {
	target telebot.StoredMessage
	handle string
	rows   []compare.Row

	rendered bool
	active   bool
	count    int
}

// tgView keeps the wishlist hearts and counters of one user's messages in sync.
type tgView struct {
	api API
	log *slog.Logger

	mu       sync.Mutex
	count    int
	order    []string
	messages map[string]*boundMessage
}

func newTGView(log *slog.Logger, api API) *tgView {
	return &tgView{api: api, log: log, messages: make(map[string]*boundMessage)}
}

func messageKey(target telebot.StoredMessage) string {
	return fmt.Sprintf("%s@%d", target.MessageID, target.ChatID)
}

func storedOf(msg telebot.Editable) telebot.StoredMessage {
	id, chatID := msg.MessageSig()
	return telebot.StoredMessage{MessageID: id, ChatID: chatID}
}

// bind starts tracking target. A message already rendered with the given
// state is not edited again until the state changes.
func (v *tgView) bind(target telebot.StoredMessage, handle string, rows []compare.Row, rendered, active bool, count int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	key := messageKey(target)
	if _, ok := v.messages[key]; !ok {
		v.order = append(v.order, key)
	}

	v.messages[key] = &boundMessage{
		target:   target,
		handle:   handle,
		rows:     rows,
		rendered: rendered,
		active:   active,
		count:    count,
	}

	for len(v.order) > maxBoundMessages {
		delete(v.messages, v.order[0])
		v.order = v.order[1:]
	}
}

func (v *tgView) isBound(target telebot.StoredMessage) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	_, ok := v.messages[messageKey(target)]
	return ok
}

func (v *tgView) SetCount(count int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.count = count
}

func (v *tgView) BoundHandles() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	handles := make([]string, 0, len(v.order))
	for _, key := range v.order {
		if h := v.messages[key].handle; !slices.Contains(handles, h) {
			handles = append(handles, h)
		}
	}

	return handles
}

func (v *tgView) SetActive(handle string, active bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, key := range v.order {
		msg := v.messages[key]
		if msg.handle != handle {
			continue
		}
		if msg.rendered && msg.active == active && msg.count == v.count {
			continue
		}

		markup := comparisonKeyboard(handle, active, v.count, msg.rows)
		if _, err := v.api.EditReplyMarkup(&msg.target, markup); err != nil && !errors.Is(err, telebot.ErrTrueResult) {
			v.log.Warn("Failed to update wishlist toggle", "handle", handle, "message", key, "error", err)
			continue
		}

		msg.rendered, msg.active, msg.count = true, active, v.count
	}
}
