package storage

import (
	"context"
	"encoding/json"

	"github.com/vietddude/notifier/internal/core/domain"
)

// CheckpointRepository persists producer checkpoints.
// Rows are keyed by (producer, chainID); chainID is domain.NoChain for producers without a chain.
type CheckpointRepository interface {
	// Get returns the checkpoint, or nil without error when none was stored yet.
	Get(ctx context.Context, producer string, chainID domain.ChainID) (*domain.Checkpoint, error)

	// Upsert inserts or replaces the checkpoint state and bumps UpdatedAt.
	Upsert(ctx context.Context, producer string, chainID domain.ChainID, state json.RawMessage) error

	// List returns every stored checkpoint, ordered by producer then chain.
	List(ctx context.Context) ([]*domain.Checkpoint, error)
}

// SubscriptionRepository lists accounts that opted in to notifications.
type SubscriptionRepository interface {
	// SubscribedAccounts returns lower-cased account addresses.
	SubscribedAccounts(ctx context.Context) ([]string, error)
}

// OrderRepository reads orders from the orderbook store.
type OrderRepository interface {
	// ExpiredOrders returns orders of the given owners with after < validTo <= until.
	ExpiredOrders(
		ctx context.Context,
		chainID domain.ChainID,
		owners []string,
		after, until int64,
	) ([]domain.Order, error)
}
