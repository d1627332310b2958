package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/notifier/internal/core/domain"
)

type fakeStore struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (s *fakeStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	v, ok := s.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (s *fakeStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.data[key] = value
	s.ttls[key] = ttl
	return nil
}

type countingSource struct {
	accounts []string
	calls    int
	err      error
}

func (s *countingSource) SubscribedAccounts(ctx context.Context) ([]string, error) {
	s.calls++
	return s.accounts, s.err
}

func TestSubscriptionCache_LoadsOnceWithinTTL(t *testing.T) {
	store := newFakeStore()
	source := &countingSource{accounts: []string{"0xa", "0xb"}}
	cache := NewSubscriptionCache(store, source, 30*time.Second)

	for i := 0; i < 3; i++ {
		accounts, err := cache.SubscribedAccounts(context.Background())
		if err != nil {
			t.Fatalf("SubscribedAccounts failed: %v", err)
		}
		if len(accounts) != 2 {
			t.Fatalf("expected 2 accounts, got %v", accounts)
		}
	}

	if source.calls != 1 {
		t.Errorf("expected 1 source call, got %d", source.calls)
	}
	if store.ttls[subscriptionsKey()] != 30*time.Second {
		t.Errorf("unexpected ttl %v", store.ttls[subscriptionsKey()])
	}
}

func TestSubscriptionCache_EmptySetIsCached(t *testing.T) {
	store := newFakeStore()
	source := &countingSource{}
	cache := NewSubscriptionCache(store, source, time.Minute)

	cache.SubscribedAccounts(context.Background())
	accounts, err := cache.SubscribedAccounts(context.Background())
	if err != nil {
		t.Fatalf("SubscribedAccounts failed: %v", err)
	}
	if len(accounts) != 0 || source.calls != 1 {
		t.Errorf("expected cached empty set, got %v after %d calls", accounts, source.calls)
	}
}

func TestSubscriptionCache_RedisDownFallsThrough(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("connection refused")
	source := &countingSource{accounts: []string{"0xa"}}
	cache := NewSubscriptionCache(store, source, time.Minute)

	accounts, err := cache.SubscribedAccounts(context.Background())
	if err != nil {
		t.Fatalf("expected fallback, got %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("unexpected accounts %v", accounts)
	}
}

func TestSubscriptionCache_SourceError(t *testing.T) {
	cache := NewSubscriptionCache(newFakeStore(), &countingSource{err: errors.New("db down")}, time.Minute)

	if _, err := cache.SubscribedAccounts(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestTokenCache_RoundTrip(t *testing.T) {
	store := newFakeStore()
	cache := NewTokenCache(store, time.Hour)
	decimals := 18

	if _, err := cache.Get(context.Background(), domain.ChainIDMainnet, "0xWETH"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}

	err := cache.Set(context.Background(), domain.ChainIDMainnet, &domain.TokenInfo{Address: "0xWETH", Symbol: "WETH", Decimals: &decimals})
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	info, err := cache.Get(context.Background(), domain.ChainIDMainnet, "0xweth")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if info.Symbol != "WETH" || info.Decimals == nil || *info.Decimals != 18 {
		t.Errorf("unexpected info %+v", info)
	}
	if _, ok := store.data["token:1:0xweth"]; !ok {
		t.Error("expected lower-cased key")
	}
}
