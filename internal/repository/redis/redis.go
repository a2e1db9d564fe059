package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/Houeta/darkside-companion/internal/repository"
)

// Repository is a key/value storage backed by redis string keys.
type Repository struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRepository connects to redis and verifies the connection.
func NewRepository(ctx context.Context, log *slog.Logger, opts *redis.Options) (*Repository, error) {
	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to establish connection to redis %s: %w", opts.Addr, err)
	}

	return &Repository{client: client, log: log}, nil
}

// Get returns the value stored under key.
func (r *Repository) Get(ctx context.Context, key string) (string, error) {
	const opn = "repository.redis.Get"

	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("%s: redis get %s: %w", opn, key, err)
	}

	return value, nil
}

// Set overwrites the value stored under key. Values never expire.
func (r *Repository) Set(ctx context.Context, key, value string) error {
	const opn = "repository.redis.Set"

	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("%s: redis set %s: %w", opn, key, err)
	}

	r.log.DebugContext(ctx, "Stored value", "op", opn, "key", key, "bytes", len(value))

	return nil
}

// Close closes the redis client.
func (r *Repository) Close() error {
	if err := r.client.Close(); err != nil {
		r.log.Error("failed to close redis client", "op", "repository.redis.Close", "error", err)
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}
