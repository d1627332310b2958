// Package checkpoint tracks how far each producer has got.
//
// # Purpose
//
// A checkpoint is the bookmark a producer commits after every unit of work:
//   - Chain-event producers store the last scanned block (number, timestamp, hash)
//   - Time-window producers store the last checked unix timestamp
//
// The store only sees an opaque JSON blob keyed by (producer, chain). The typed view lives
// here, in BlockState and TimeState.
//
// # Key Features
//
// Phases - A checkpoint is derived to be in one of two phases:
//
//	ABSENT --Baseline--> TRACKING --Advance--> TRACKING
//
// Advance on an absent checkpoint returns ErrNotFound.
//
// Monotonic Progress - Advance(s) with a position lower than the stored one returns
// ErrRegression. Only an operator reset rewinds a checkpoint.
//
// # Quick Start
//
//	manager := checkpoint.NewManager[checkpoint.BlockState](repo, "trade", domain.ChainIDMainnet)
//
//	state, _ := manager.Load(ctx) // nil on cold start
//	if state == nil {
//	    manager.Baseline(ctx, checkpoint.BlockState{LastBlock: head})
//	}
//
//	manager.Advance(ctx, checkpoint.BlockState{LastBlock: 5099}) // ✓ OK
//	manager.Advance(ctx, checkpoint.BlockState{LastBlock: 100})  // ✗ ErrRegression
//
// # Package Structure
//
//   - state.go   - State types and phases
//   - manager.go - Typed Manager with regression checks, Load/Save helpers
//   - metrics.go - Commit rate metrics
package checkpoint

import (
	"time"

	"github.com/vietddude/notifier/internal/core/domain"
	"github.com/vietddude/notifier/internal/infra/storage"
)

// Store is the persistence contract checkpoints are written to.
type Store = storage.CheckpointRepository

// NewManager creates a typed checkpoint manager for one producer and chain.
func NewManager[S State](store Store, producer string, chainID domain.ChainID) *Manager[S] {
	return &Manager[S]{
		store:    store,
		producer: producer,
		chainID:  chainID,
		metrics:  NewMetricsCollector(100),
		now:      time.Now,
	}
}

// NewMetricsCollector creates a new metrics collector with the given window size.
func NewMetricsCollector(windowSize int) *MetricsCollector {
	if windowSize <= 0 {
		windowSize = 100
	}
	return &MetricsCollector{
		windowSize: windowSize,
		commits:    make([]commitRecord, 0, windowSize),
	}
}
