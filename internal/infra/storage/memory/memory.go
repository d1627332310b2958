package memory

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/vietddude/notifier/internal/core/domain"
	"github.com/vietddude/notifier/internal/infra/storage"
)

var (
	_ storage.CheckpointRepository   = (*CheckpointRepo)(nil)
	_ storage.SubscriptionRepository = (*SubscriptionRepo)(nil)
	_ storage.OrderRepository        = (*OrderRepo)(nil)
)

type MemoryStorage struct {
	checkpoints   map[string]*domain.Checkpoint
	subscriptions map[string]struct{}
	orders        map[string]domain.Order
	mu            sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		checkpoints:   make(map[string]*domain.Checkpoint),
		subscriptions: make(map[string]struct{}),
		orders:        make(map[string]domain.Order),
	}
}

func checkpointKey(producer string, chainID domain.ChainID) string {
	return producer + "/" + string(chainID)
}

// -----------------------------------------------------------------------------
// Checkpoint Repository
// -----------------------------------------------------------------------------

type CheckpointRepo struct {
	store *MemoryStorage
	now   func() time.Time
}

func NewCheckpointRepo(store *MemoryStorage) *CheckpointRepo {
	return &CheckpointRepo{store: store, now: time.Now}
}

func (r *CheckpointRepo) Get(
	ctx context.Context,
	producer string,
	chainID domain.ChainID,
) (*domain.Checkpoint, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	cp, ok := r.store.checkpoints[checkpointKey(producer, chainID)]
	if !ok {
		return nil, nil
	}
	c := *cp
	c.State = slices.Clone(cp.State)
	return &c, nil
}

func (r *CheckpointRepo) Upsert(
	ctx context.Context,
	producer string,
	chainID domain.ChainID,
	state json.RawMessage,
) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.checkpoints[checkpointKey(producer, chainID)] = &domain.Checkpoint{
		ProducerName: producer,
		ChainID:      chainID,
		State:        slices.Clone(state),
		UpdatedAt:    r.now(),
	}
	return nil
}

func (r *CheckpointRepo) List(ctx context.Context) ([]*domain.Checkpoint, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*domain.Checkpoint, 0, len(r.store.checkpoints))
	for _, cp := range r.store.checkpoints {
		c := *cp
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *domain.Checkpoint) int {
		if n := strings.Compare(a.ProducerName, b.ProducerName); n != 0 {
			return n
		}
		return strings.Compare(string(a.ChainID), string(b.ChainID))
	})
	return out, nil
}

// -----------------------------------------------------------------------------
// Subscription Repository
// -----------------------------------------------------------------------------

type SubscriptionRepo struct {
	store *MemoryStorage
}

func NewSubscriptionRepo(store *MemoryStorage) *SubscriptionRepo {
	return &SubscriptionRepo{store: store}
}

// Subscribe adds accounts to the subscription set.
func (r *SubscriptionRepo) Subscribe(accounts ...string) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range accounts {
		r.store.subscriptions[strings.ToLower(a)] = struct{}{}
	}
}

func (r *SubscriptionRepo) SubscribedAccounts(ctx context.Context) ([]string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]string, 0, len(r.store.subscriptions))
	for a := range r.store.subscriptions {
		out = append(out, a)
	}
	slices.Sort(out)
	return out, nil
}

// -----------------------------------------------------------------------------
// Order Repository
// -----------------------------------------------------------------------------

type OrderRepo struct {
	store *MemoryStorage
}

func NewOrderRepo(store *MemoryStorage) *OrderRepo {
	return &OrderRepo{store: store}
}

// Save stores or replaces an order.
func (r *OrderRepo) Save(order domain.Order) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.orders[order.UID] = order
}

func (r *OrderRepo) ExpiredOrders(
	ctx context.Context,
	chainID domain.ChainID,
	owners []string,
	after, until int64,
) ([]domain.Order, error) {
	wanted := make(map[string]struct{}, len(owners))
	for _, o := range owners {
		wanted[strings.ToLower(o)] = struct{}{}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []domain.Order
	for _, o := range r.store.orders {
		if o.ChainID != chainID || o.ValidTo <= after || o.ValidTo > until {
			continue
		}
		if _, ok := wanted[strings.ToLower(o.Owner)]; !ok {
			continue
		}
		out = append(out, o)
	}
	slices.SortFunc(out, func(a, b domain.Order) int {
		if n := cmp.Compare(a.ValidTo, b.ValidTo); n != 0 {
			return n
		}
		return strings.Compare(a.UID, b.UID)
	})
	return out, nil
}
