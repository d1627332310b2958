package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/notifier/internal/core/domain"
	"github.com/vietddude/notifier/internal/infra/storage"
)

// CheckpointRepo implements storage.CheckpointRepository using PostgreSQL.
type CheckpointRepo struct {
	db *DB
}

var _ storage.CheckpointRepository = (*CheckpointRepo)(nil)

// NewCheckpointRepo creates a new PostgreSQL checkpoint repository.
func NewCheckpointRepo(db *DB) *CheckpointRepo {
	return &CheckpointRepo{db: db}
}

type checkpointRow struct {
	ProducerName string    `db:"producer_name"`
	ChainID      string    `db:"chain_id"`
	State        string    `db:"state"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r checkpointRow) toDomain() *domain.Checkpoint {
	return &domain.Checkpoint{
		ProducerName: r.ProducerName,
		ChainID:      domain.ChainID(r.ChainID),
		State:        json.RawMessage(r.State),
		UpdatedAt:    r.UpdatedAt,
	}
}

const selectCheckpoint = `SELECT producer_name, chain_id, state::text AS state, updated_at FROM checkpoints`

// Get retrieves a checkpoint by producer and chain.
func (r *CheckpointRepo) Get(
	ctx context.Context,
	producer string,
	chainID domain.ChainID,
) (*domain.Checkpoint, error) {
	var row checkpointRow
	err := r.db.GetContext(ctx, &row,
		selectCheckpoint+` WHERE producer_name = $1 AND chain_id = $2`,
		producer, string(chainID),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkpoint: %w", err)
	}
	return row.toDomain(), nil
}

// Upsert inserts or replaces a checkpoint.
func (r *CheckpointRepo) Upsert(
	ctx context.Context,
	producer string,
	chainID domain.ChainID,
	state json.RawMessage,
) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO checkpoints (producer_name, chain_id, state, updated_at)
		VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (producer_name, chain_id)
		DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
		producer, string(chainID), string(state),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert checkpoint: %w", err)
	}
	return nil
}

// List returns every checkpoint ordered by producer and chain.
func (r *CheckpointRepo) List(ctx context.Context) ([]*domain.Checkpoint, error) {
	var rows []checkpointRow
	if err := r.db.SelectContext(ctx, &rows, selectCheckpoint+` ORDER BY producer_name, chain_id`); err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}

	result := make([]*domain.Checkpoint, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}
