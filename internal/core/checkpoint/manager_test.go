package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/notifier/internal/core/domain"
)

// =============================================================================
// Mock Repository
// =============================================================================

type mockCheckpointRepo struct {
	mu      sync.RWMutex
	rows    map[string]*domain.Checkpoint
	upserts int
	getErr  error
}

func newMockCheckpointRepo() *mockCheckpointRepo {
	return &mockCheckpointRepo{rows: make(map[string]*domain.Checkpoint)}
}

func (r *mockCheckpointRepo) Get(ctx context.Context, producer string, chainID domain.ChainID) (*domain.Checkpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	cp, ok := r.rows[producer+"/"+string(chainID)]
	if !ok {
		return nil, nil
	}
	c := *cp
	return &c, nil
}

func (r *mockCheckpointRepo) Upsert(ctx context.Context, producer string, chainID domain.ChainID, state json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	r.rows[producer+"/"+string(chainID)] = &domain.Checkpoint{
		ProducerName: producer,
		ChainID:      chainID,
		State:        state,
		UpdatedAt:    time.Now(),
	}
	return nil
}

func (r *mockCheckpointRepo) List(ctx context.Context) ([]*domain.Checkpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Checkpoint, 0, len(r.rows))
	for _, cp := range r.rows {
		out = append(out, cp)
	}
	return out, nil
}

// =============================================================================
// Manager Tests
// =============================================================================

func TestManager_ColdStartIsAbsent(t *testing.T) {
	repo := newMockCheckpointRepo()
	m := NewManager[BlockState](repo, "trade", domain.ChainIDMainnet)

	state, err := m.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if state != nil {
		t.Errorf("Expected nil state on cold start, got %+v", state)
	}
}

func TestManager_AdvanceWithoutBaseline(t *testing.T) {
	repo := newMockCheckpointRepo()
	m := NewManager[BlockState](repo, "trade", domain.ChainIDMainnet)

	err := m.Advance(context.Background(), BlockState{LastBlock: 10})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if repo.upserts != 0 {
		t.Errorf("Expected no upserts, got %d", repo.upserts)
	}
}

func TestManager_Advance(t *testing.T) {
	tests := []struct {
		name    string
		base    uint64
		next    uint64
		wantErr error
	}{
		{"forward", 100, 5099, nil},
		{"same block", 100, 100, nil},
		{"backwards", 100, 99, ErrRegression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo := newMockCheckpointRepo()
			m := NewManager[BlockState](repo, "trade", domain.ChainIDGnosis)

			if err := m.Baseline(ctx, BlockState{LastBlock: tt.base, LastBlockHash: "0xbase"}); err != nil {
				t.Fatalf("Baseline failed: %v", err)
			}

			err := m.Advance(ctx, BlockState{LastBlock: tt.next, LastBlockHash: "0xnext"})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Advance() error = %v, want %v", err, tt.wantErr)
			}

			state, _ := m.Load(ctx)
			want := tt.next
			if tt.wantErr != nil {
				want = tt.base
			}
			if state.LastBlock != want {
				t.Errorf("LastBlock = %d, want %d", state.LastBlock, want)
			}
		})
	}
}

func TestManager_TimeStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newMockCheckpointRepo()
	m := NewManager[TimeState](repo, "expiry", domain.NoChain)

	if err := m.Baseline(ctx, TimeState{LastCheckTimestamp: 1000}); err != nil {
		t.Fatalf("Baseline failed: %v", err)
	}
	if err := m.Advance(ctx, TimeState{LastCheckTimestamp: 2000}); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	raw := repo.rows["expiry/"].State
	if string(raw) != `{"lastCheckTimestamp":2000}` {
		t.Errorf("Unexpected stored state: %s", raw)
	}

	metrics := m.GetMetrics()
	if metrics.Commits != 2 || metrics.LastPosition != 2000 {
		t.Errorf("Unexpected metrics: %+v", metrics)
	}
}

func TestLoad_PropagatesStoreError(t *testing.T) {
	repo := newMockCheckpointRepo()
	repo.getErr = errors.New("connection refused")

	_, err := Load[BlockState](context.Background(), repo, "trade", domain.ChainIDMainnet)
	if err == nil {
		t.Fatal("Expected error")
	}
}

func TestLoad_CorruptState(t *testing.T) {
	ctx := context.Background()
	repo := newMockCheckpointRepo()
	_ = repo.Upsert(ctx, "trade", domain.ChainIDMainnet, json.RawMessage(`not-json`))

	if _, err := Load[BlockState](ctx, repo, "trade", domain.ChainIDMainnet); err == nil {
		t.Error("Expected decode error")
	}
}

func TestPhaseOf(t *testing.T) {
	if PhaseOf(nil) != PhaseAbsent {
		t.Error("nil checkpoint should be absent")
	}
	if PhaseOf(&domain.Checkpoint{}) != PhaseTracking {
		t.Error("stored checkpoint should be tracking")
	}
}
