package wishlist

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Houeta/darkside-companion/internal/repository"
)

// ViewFactory builds the view of one scope.
type ViewFactory func(scope string) View

// Sessions lazily creates one engine per scope and keeps it for the
// lifetime of the process, so each scope is loaded from storage once.
type Sessions struct {
	mu      sync.Mutex
	log     *slog.Logger
	storage repository.Storage
	newView ViewFactory
	opts    []Option
	engines map[string]*sessionEntry
}

type sessionEntry struct {
	once sync.Once
	eng  *Engine
}

func NewSessions(log *slog.Logger, storage repository.Storage, newView ViewFactory, opts ...Option) *Sessions {
	if newView == nil {
		newView = func(string) View { return NopView{} }
	}

	return &Sessions{
		log:     log,
		storage: storage,
		newView: newView,
		opts:    opts,
		engines: make(map[string]*sessionEntry),
	}
}

// Get returns the engine of scope, creating it on first use. Loading one
// scope does not block Get calls for other scopes.
func (s *Sessions) Get(ctx context.Context, scope string) *Engine {
	s.mu.Lock()
	entry, ok := s.engines[scope]
	if !ok {
		entry = &sessionEntry{}
		s.engines[scope] = entry
	}
	s.mu.Unlock()

	entry.once.Do(func() {
		store := NewLocalStore(s.log, s.storage, scope)
		entry.eng = NewEngine(ctx, s.log, store, s.newView(scope), s.opts...)
	})

	return entry.eng
}
