package postgres

import (
	"context"
	"fmt"

	"github.com/vietddude/notifier/internal/infra/storage"
)

// SubscriptionRepo implements storage.SubscriptionRepository using PostgreSQL.
type SubscriptionRepo struct {
	db *DB
}

var _ storage.SubscriptionRepository = (*SubscriptionRepo)(nil)

// NewSubscriptionRepo creates a new PostgreSQL subscription repository.
func NewSubscriptionRepo(db *DB) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

// SubscribedAccounts returns every subscribed account, lower-cased.
func (r *SubscriptionRepo) SubscribedAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := r.db.SelectContext(ctx, &accounts,
		`SELECT DISTINCT lower(account) FROM subscriptions ORDER BY 1`,
	); err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return accounts, nil
}

// Subscribe adds accounts, ignoring ones already present.
func (r *SubscriptionRepo) Subscribe(ctx context.Context, accounts ...string) error {
	for _, account := range accounts {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO subscriptions (account) VALUES (lower($1)) ON CONFLICT DO NOTHING`,
			account,
		); err != nil {
			return fmt.Errorf("failed to subscribe %s: %w", account, err)
		}
	}
	return nil
}
