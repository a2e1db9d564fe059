package wishlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Houeta/darkside-companion/internal/models"
	"github.com/Houeta/darkside-companion/internal/repository"
)

// StorageKey is the key the wishlist is persisted under.
const StorageKey = "darkside_wishlist"

// ScopedKey returns the storage key of one device scope. The empty scope
// maps to StorageKey itself.
func ScopedKey(scope string) string {
	if scope == "" {
		return StorageKey
	}

	return StorageKey + ":" + scope
}

// LocalStore persists a wishlist as a JSON array under a fixed key.
type LocalStore struct {
	log     *slog.Logger
	storage repository.Storage
	key     string
}

func NewLocalStore(log *slog.Logger, storage repository.Storage, scope string) *LocalStore {
	return &LocalStore{log: log, storage: storage, key: ScopedKey(scope)}
}

// Key returns the storage key used by the store.
func (s *LocalStore) Key() string {
	return s.key
}

// Load returns the persisted list. Missing, unreadable or corrupt data
// yields an empty list; duplicate handles keep their first entry.
func (s *LocalStore) Load(ctx context.Context) []models.WishlistItem {
	const opn = "wishlist.LocalStore.Load"
	log := s.log.With("op", opn, "key", s.key)

	raw, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.WarnContext(ctx, "Failed to read wishlist, starting empty", "error", err)
		}
		return []models.WishlistItem{}
	}

	var items []models.WishlistItem
	if err = json.Unmarshal([]byte(raw), &items); err != nil {
		log.WarnContext(ctx, "Stored wishlist is corrupt, starting empty", "error", err)
		return []models.WishlistItem{}
	}

	if items == nil {
		return []models.WishlistItem{}
	}

	items, dropped := Dedupe(items)
	if dropped {
		log.WarnContext(ctx, "Stored wishlist has duplicate handles, keeping the first of each")
	}

	return items
}

// Save overwrites the persisted list.
func (s *LocalStore) Save(ctx context.Context, items []models.WishlistItem) error {
	const opn = "wishlist.LocalStore.Save"

	if items == nil {
		items = []models.WishlistItem{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%s: failed to encode wishlist: %w", opn, err)
	}

	if err = s.storage.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}

	return nil
}
