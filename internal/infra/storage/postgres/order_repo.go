package postgres

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/lib/pq"

	"github.com/vietddude/notifier/internal/core/domain"
	"github.com/vietddude/notifier/internal/infra/storage"
)

// OrderRepo implements storage.OrderRepository using PostgreSQL.
type OrderRepo struct {
	db *DB
}

var _ storage.OrderRepository = (*OrderRepo)(nil)

// NewOrderRepo creates a new PostgreSQL order repository.
func NewOrderRepo(db *DB) *OrderRepo {
	return &OrderRepo{db: db}
}

type orderRow struct {
	UID        string `db:"uid"`
	ChainID    string `db:"chain_id"`
	Owner      string `db:"owner"`
	ValidTo    int64  `db:"valid_to"`
	SellToken  string `db:"sell_token"`
	BuyToken   string `db:"buy_token"`
	SellAmount string `db:"sell_amount"`
	BuyAmount  string `db:"buy_amount"`
}

// ExpiredOrders returns orders of owners on chainID with after < valid_to <= until.
func (r *OrderRepo) ExpiredOrders(
	ctx context.Context,
	chainID domain.ChainID,
	owners []string,
	after, until int64,
) ([]domain.Order, error) {
	if len(owners) == 0 || until <= after {
		return nil, nil
	}

	lowered := make([]string, len(owners))
	for i, o := range owners {
		lowered[i] = strings.ToLower(o)
	}

	var rows []orderRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT uid, chain_id, owner, valid_to, sell_token, buy_token,
		       sell_amount::text AS sell_amount, buy_amount::text AS buy_amount
		FROM orders
		WHERE chain_id = $1
		  AND lower(owner) = ANY($2)
		  AND valid_to > $3
		  AND valid_to <= $4
		ORDER BY valid_to, uid`,
		string(chainID), pq.Array(lowered), after, until,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired orders: %w", err)
	}

	orders := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		sell, ok := new(big.Int).SetString(row.SellAmount, 10)
		if !ok {
			return nil, fmt.Errorf("order %s: bad sell amount %q", row.UID, row.SellAmount)
		}
		buy, ok := new(big.Int).SetString(row.BuyAmount, 10)
		if !ok {
			return nil, fmt.Errorf("order %s: bad buy amount %q", row.UID, row.BuyAmount)
		}
		orders = append(orders, domain.Order{
			UID:        row.UID,
			Owner:      strings.ToLower(row.Owner),
			ChainID:    domain.ChainID(row.ChainID),
			ValidTo:    row.ValidTo,
			SellToken:  row.SellToken,
			BuyToken:   row.BuyToken,
			SellAmount: sell,
			BuyAmount:  buy,
		})
	}
	return orders, nil
}
