package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/notifier/internal/core/domain"
)

// HeadReader returns the current chain head.
type HeadReader interface {
	HeadBlock(ctx context.Context) (*domain.BlockHeader, error)
}

// HeadCache caches the chain head so health checks do not hit RPC on every request.
type HeadCache struct {
	reader HeadReader
	ttl    time.Duration

	mu       sync.RWMutex
	cached   uint64
	cachedAt time.Time
}

// NewHeadCache creates a new head cache with the given TTL.
func NewHeadCache(reader HeadReader, ttl time.Duration) *HeadCache {
	return &HeadCache{
		reader: reader,
		ttl:    ttl,
	}
}

// GetLatestBlock returns the cached chain head if within TTL, otherwise fetches fresh.
func (c *HeadCache) GetLatestBlock(ctx context.Context) (uint64, error) {
	c.mu.RLock()
	if time.Since(c.cachedAt) < c.ttl && c.cached > 0 {
		cached := c.cached
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	head, err := c.reader.HeadBlock(ctx)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.cached = head.Number
	c.cachedAt = time.Now()
	c.mu.Unlock()

	return head.Number, nil
}

// Invalidate clears the cache, forcing the next call to fetch fresh data.
func (c *HeadCache) Invalidate() {
	c.mu.Lock()
	c.cachedAt = time.Time{}
	c.mu.Unlock()
}
