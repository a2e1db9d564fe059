package repository

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("value not found")

// Storage is a device-local key/value store. Values are opaque strings;
// callers own the encoding.
type Storage interface {
	// Get returns the value stored under key or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set overwrites the value stored under key.
	Set(ctx context.Context, key, value string) error
	// Close releases the underlying connection.
	Close() error
}
