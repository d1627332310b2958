package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/vietddude/notifier/internal/core/domain"
)

// TokenCache stores ERC-20 metadata keyed by chain and address.
type TokenCache struct {
	store Store
	ttl   time.Duration
}

// NewTokenCache creates a token metadata cache.
func NewTokenCache(store Store, ttl time.Duration) *TokenCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenCache{store: store, ttl: ttl}
}

// Get returns cached metadata, or ErrCacheMiss.
func (c *TokenCache) Get(ctx context.Context, chainID domain.ChainID, address string) (*domain.TokenInfo, error) {
	raw, err := c.store.Get(ctx, tokenKey(string(chainID), strings.ToLower(address)))
	if err != nil {
		return nil, err
	}
	var info domain.TokenInfo
	if err := sonic.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("%w: corrupt token entry: %v", ErrCacheMiss, err)
	}
	return &info, nil
}

// Set caches metadata.
func (c *TokenCache) Set(ctx context.Context, chainID domain.ChainID, info *domain.TokenInfo) error {
	if info == nil {
		return errors.New("nil token info")
	}
	raw, err := sonic.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to encode token info: %w", err)
	}
	return c.store.Set(ctx, tokenKey(string(chainID), strings.ToLower(info.Address)), raw, c.ttl)
}
