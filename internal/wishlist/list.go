package wishlist

import (
	"slices"

	"github.com/Houeta/darkside-companion/internal/models"
)

// Action reports which branch a toggle took.
type Action int

const (
	ActionAdded Action = iota + 1
	ActionRemoved
)

func (a Action) String() string {
	switch a {
	case ActionAdded:
		return "added"
	case ActionRemoved:
		return "removed"
	default:
		return "none"
	}
}

// Contains reports whether a list holds an item with the given handle.
func Contains(items []models.WishlistItem, handle string) bool {
	return slices.ContainsFunc(items, func(it models.WishlistItem) bool {
		return it.Handle == handle
	})
}

// Add appends item unless its handle is already present. The input slice
// is never modified.
func Add(items []models.WishlistItem, item models.WishlistItem) ([]models.WishlistItem, bool) {
	if Contains(items, item.Handle) {
		return items, false
	}

	next := make([]models.WishlistItem, 0, len(items)+1)
	next = append(next, items...)

	return append(next, item), true
}

// Remove drops the first item with the given handle, keeping the order of
// the rest. The input slice is never modified.
func Remove(items []models.WishlistItem, handle string) ([]models.WishlistItem, bool) {
	idx := slices.IndexFunc(items, func(it models.WishlistItem) bool {
		return it.Handle == handle
	})
	if idx < 0 {
		return items, false
	}

	next := make([]models.WishlistItem, 0, len(items)-1)
	next = append(next, items[:idx]...)

	return append(next, items[idx+1:]...), true
}

// Dedupe keeps the first item of every handle. It reports whether anything
// was dropped.
func Dedupe(items []models.WishlistItem) ([]models.WishlistItem, bool) {
	seen := make(map[string]struct{}, len(items))
	next := make([]models.WishlistItem, 0, len(items))

	for _, it := range items {
		if _, ok := seen[it.Handle]; ok {
			continue
		}
		seen[it.Handle] = struct{}{}
		next = append(next, it)
	}

	return next, len(next) != len(items)
}

// Toggle removes item if present, otherwise adds it.
func Toggle(items []models.WishlistItem, item models.WishlistItem) ([]models.WishlistItem, Action) {
	if next, ok := Remove(items, item.Handle); ok {
		return next, ActionRemoved
	}

	next, _ := Add(items, item)

	return next, ActionAdded
}
