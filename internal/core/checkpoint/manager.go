package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/notifier/internal/core/domain"
)

var (
	// ErrNotFound is returned when advancing a checkpoint that was never baselined.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrRegression is returned when a commit would move a checkpoint backwards.
	ErrRegression = errors.New("checkpoint regression")
)

// Load reads and decodes the checkpoint state. It returns nil when none is stored.
func Load[T any](ctx context.Context, store Store, producer string, chainID domain.ChainID) (*T, error) {
	cp, err := store.Get(ctx, producer, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to get checkpoint: %w", err)
	}
	if cp == nil {
		return nil, nil
	}

	var state T
	if err := json.Unmarshal(cp.State, &state); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint %s/%s: %w", producer, chainID, err)
	}
	return &state, nil
}

// Save encodes and upserts the checkpoint state without any ordering check.
func Save[T any](ctx context.Context, store Store, producer string, chainID domain.ChainID, state T) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := store.Upsert(ctx, producer, chainID, raw); err != nil {
		return fmt.Errorf("failed to upsert checkpoint: %w", err)
	}
	return nil
}

// Manager commits typed checkpoints for one (producer, chain) pair.
// It is confined to the producer loop that owns it.
type Manager[S State] struct {
	store    Store
	producer string
	chainID  domain.ChainID
	metrics  *MetricsCollector
	now      func() time.Time
}

// Producer returns the producer name the manager writes under.
func (m *Manager[S]) Producer() string { return m.producer }

// ChainID returns the chain the manager writes under.
func (m *Manager[S]) ChainID() domain.ChainID { return m.chainID }

// Load returns the current state, or nil when the checkpoint is absent.
func (m *Manager[S]) Load(ctx context.Context) (*S, error) {
	return Load[S](ctx, m.store, m.producer, m.chainID)
}

// Baseline creates the first checkpoint of a producer.
func (m *Manager[S]) Baseline(ctx context.Context, state S) error {
	if err := Save(ctx, m.store, m.producer, m.chainID, state); err != nil {
		return err
	}
	m.metrics.RecordCommit(state.Position(), m.now())
	return nil
}

// Advance commits a new state after a unit of work.
func (m *Manager[S]) Advance(ctx context.Context, state S) error {
	current, err := m.Load(ctx)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, m.producer, m.chainID)
	}

	if state.Position() < (*current).Position() {
		return fmt.Errorf(
			"%w: %s/%s at %d, got %d",
			ErrRegression,
			m.producer,
			m.chainID,
			(*current).Position(),
			state.Position(),
		)
	}

	if err := Save(ctx, m.store, m.producer, m.chainID, state); err != nil {
		return err
	}
	m.metrics.RecordCommit(state.Position(), m.now())
	return nil
}

// GetMetrics returns commit-rate metrics.
func (m *Manager[S]) GetMetrics() Metrics {
	return m.metrics.GetMetrics()
}
