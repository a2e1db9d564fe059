package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Houeta/darkside-companion/internal/repository"
)

// Get returns the value stored under key.
func (r *Repository) Get(ctx context.Context, key string) (string, error) {
	const opn = "repository.sqlite.Get"

	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM local_storage WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("%s: failed to get value for key %s: %w", opn, key, err)
	}

	return value, nil
}

// Set overwrites the value stored under key.
func (r *Repository) Set(ctx context.Context, key, value string) error {
	const opn = "repository.sqlite.Set"

	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to set value for key %s: %w", opn, key, err)
	}

	r.log.DebugContext(ctx, "Stored value", "op", opn, "key", key, "bytes", len(value))

	return nil
}
