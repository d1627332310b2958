package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bytedance/sonic"

	"github.com/vietddude/notifier/internal/infra/storage"
)

// Store is the key-value surface the caches need. Client implements it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

var _ Store = (*Client)(nil)

// SubscriptionCache fronts a subscription repository with a TTL cache.
// Redis failures fall through to the repository.
type SubscriptionCache struct {
	store  Store
	source storage.SubscriptionRepository
	ttl    time.Duration
	log    *slog.Logger
}

var _ storage.SubscriptionRepository = (*SubscriptionCache)(nil)

// NewSubscriptionCache creates a cached subscription source.
func NewSubscriptionCache(store Store, source storage.SubscriptionRepository, ttl time.Duration) *SubscriptionCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SubscriptionCache{
		store:  store,
		source: source,
		ttl:    ttl,
		log:    slog.Default().With("component", "subscription-cache"),
	}
}

// SubscribedAccounts returns cached accounts, loading them from the repository on a miss.
func (c *SubscriptionCache) SubscribedAccounts(ctx context.Context) ([]string, error) {
	raw, err := c.store.Get(ctx, subscriptionsKey())
	switch {
	case err == nil:
		var accounts []string
		if err := sonic.Unmarshal(raw, &accounts); err == nil {
			return accounts, nil
		}
		c.log.Warn("discarding corrupt subscription cache entry")
	case !errors.Is(err, ErrCacheMiss):
		c.log.Warn("subscription cache unavailable", "error", err)
	}

	accounts, err := c.source.SubscribedAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	if accounts == nil {
		accounts = []string{}
	}

	if encoded, err := sonic.Marshal(accounts); err == nil {
		if err := c.store.Set(ctx, subscriptionsKey(), encoded, c.ttl); err != nil {
			c.log.Warn("failed to cache subscriptions", "error", err)
		}
	}
	return accounts, nil
}
