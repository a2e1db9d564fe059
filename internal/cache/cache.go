// Package cache keeps short-lived product snapshots in memory.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Houeta/darkside-companion/internal/models"
)

const cleanupInterval = 10 * time.Minute

type entry struct {
	value      models.ProductSummary
	expiration time.Time
}

// ProductCache is a thread-safe TTL cache of product summaries keyed by handle.
type ProductCache struct {
	mu   sync.RWMutex
	data map[string]entry
	ttl  time.Duration
	now  func() time.Time
}

// NewProductCache creates a cache and starts a cleanup loop that runs
// until ctx is done.
func NewProductCache(ctx context.Context, ttl time.Duration) *ProductCache {
	c := &ProductCache{
		data: make(map[string]entry),
		ttl:  ttl,
		now:  time.Now,
	}

	go c.cleanupLoop(ctx)

	return c
}

// Get returns the cached summary of handle if present and not expired.
func (c *ProductCache) Get(handle string) (models.ProductSummary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.data[handle]
	if !ok || c.now().After(item.expiration) {
		return models.ProductSummary{}, false
	}

	return item.value, true
}

// Put stores a summary under its handle.
func (c *ProductCache) Put(summary models.ProductSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[summary.Handle] = entry{value: summary, expiration: c.now().Add(c.ttl)}
}

// PutAll stores several summaries at once.
func (c *ProductCache) PutAll(summaries []models.ProductSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	exp := c.now().Add(c.ttl)
	for _, s := range summaries {
		c.data[s.Handle] = entry{value: s, expiration: exp}
	}
}

// Len returns the number of stored entries, expired ones included.
func (c *ProductCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}

func (c *ProductCache) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *ProductCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, item := range c.data {
		if now.After(item.expiration) {
			delete(c.data, key)
		}
	}
}
