package badger

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/notifier/internal/core/checkpoint"
	"github.com/vietddude/notifier/internal/core/domain"
)

func openInMemory(t *testing.T) *CheckpointRepo {
	t.Helper()
	repo, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestCheckpointRepo_GetAbsent(t *testing.T) {
	repo := openInMemory(t)

	cp, err := repo.Get(context.Background(), "trade", domain.ChainIDMainnet)
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestCheckpointRepo_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := openInMemory(t)

	require.NoError(t, repo.Upsert(ctx, "trade", domain.ChainIDMainnet, json.RawMessage(`{"lastBlock":10}`)))
	require.NoError(t, repo.Upsert(ctx, "trade", domain.ChainIDMainnet, json.RawMessage(`{"lastBlock":20}`)))

	cp, err := repo.Get(ctx, "trade", domain.ChainIDMainnet)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.JSONEq(t, `{"lastBlock":20}`, string(cp.State))
	assert.False(t, cp.UpdatedAt.IsZero())
}

func TestCheckpointRepo_List(t *testing.T) {
	ctx := context.Background()
	repo := openInMemory(t)

	require.NoError(t, repo.Upsert(ctx, "trade", domain.ChainIDGnosis, json.RawMessage(`{}`)))
	require.NoError(t, repo.Upsert(ctx, "expiry", domain.ChainIDMainnet, json.RawMessage(`{}`)))
	require.NoError(t, repo.Upsert(ctx, "feed", domain.NoChain, json.RawMessage(`{}`)))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "expiry", list[0].ProducerName)
	assert.Equal(t, "feed", list[1].ProducerName)
	assert.Equal(t, domain.NoChain, list[1].ChainID)
	assert.Equal(t, "trade", list[2].ProducerName)
	assert.Equal(t, domain.ChainIDGnosis, list[2].ChainID)
}

func TestCheckpointRepo_WithManager(t *testing.T) {
	ctx := context.Background()
	m := checkpoint.NewManager[checkpoint.TimeState](openInMemory(t), "expiry", domain.ChainIDMainnet)

	require.NoError(t, m.Baseline(ctx, checkpoint.TimeState{LastCheckTimestamp: 1000}))
	require.NoError(t, m.Advance(ctx, checkpoint.TimeState{LastCheckTimestamp: 2000}))
	assert.ErrorIs(t, m.Advance(ctx, checkpoint.TimeState{LastCheckTimestamp: 1500}), checkpoint.ErrRegression)

	state, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), state.LastCheckTimestamp)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}
