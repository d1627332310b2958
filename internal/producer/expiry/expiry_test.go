package expiry

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/notifier/internal/core/checkpoint"
	"github.com/vietddude/notifier/internal/core/domain"
	"github.com/vietddude/notifier/internal/infra/storage/memory"
)

const (
	owner = "0x00000000000000000000000000000000000000a1"
	other = "0x00000000000000000000000000000000000000b2"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}
func (c *fixedClock) Now() time.Time { return c.now }

// windowlessSource returns every order regardless of the requested window.
type windowlessSource struct {
	orders []domain.Order
	calls  int
}

func (s *windowlessSource) ExpiredOrders(ctx context.Context, chainID domain.ChainID, owners []string, after, until int64) ([]domain.Order, error) {
	s.calls++
	return s.orders, nil
}

type fakeSink struct {
	sent []domain.Notification
	err  error
}

func (s *fakeSink) Connect(ctx context.Context) error { return nil }
func (s *fakeSink) Close() error                      { return nil }
func (s *fakeSink) Send(ctx context.Context, n []domain.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, n...)
	return nil
}

func order(uid, owner string, validTo int64) domain.Order {
	return domain.Order{
		UID:        uid,
		Owner:      owner,
		ChainID:    domain.ChainIDGnosis,
		ValidTo:    validTo,
		SellToken:  "0x6a023ccd1ff6f2045c3309768ead9e68f978f6e1",
		BuyToken:   "0xe91d153e0b41518a2ce8dd3d7944fa863463a97d",
		SellAmount: big.NewInt(1e18),
		BuyAmount:  big.NewInt(2e18),
	}
}

type fixture struct {
	store *memory.CheckpointRepo
	sink  *fakeSink
	clock *fixedClock
	p     *Producer
}

func newFixture(t *testing.T, src OrderSource) *fixture {
	t.Helper()
	mem := memory.NewMemoryStorage()
	subs := memory.NewSubscriptionRepo(mem)
	subs.Subscribe(owner)

	f := &fixture{
		store: memory.NewCheckpointRepo(mem),
		sink:  &fakeSink{},
		clock: &fixedClock{now: time.Unix(2000, 0)},
	}
	f.p = New(Config{
		ChainID:       domain.ChainIDGnosis,
		ExplorerURL:   "https://explorer.cow.fi",
		Clock:         f.clock,
		Orders:        src,
		Checkpoints:   f.store,
		Subscriptions: subs,
		Sink:          f.sink,
	})
	return f
}

func (f *fixture) last(t *testing.T) int64 {
	t.Helper()
	state, err := checkpoint.Load[checkpoint.TimeState](context.Background(), f.store, Name, domain.ChainIDGnosis)
	require.NoError(t, err)
	require.NotNil(t, state)
	return state.LastCheckTimestamp
}

func (f *fixture) seed(t *testing.T, last int64) {
	t.Helper()
	require.NoError(t, checkpoint.Save(context.Background(), f.store, Name, domain.ChainIDGnosis,
		checkpoint.TimeState{LastCheckTimestamp: last}))
}

func TestCycle_ColdStart(t *testing.T) {
	src := &windowlessSource{orders: []domain.Order{order("0x01", owner, 1500)}}
	f := newFixture(t, src)

	require.NoError(t, f.p.Cycle(context.Background()))

	assert.Equal(t, int64(2000), f.last(t))
	assert.Empty(t, f.sink.sent)
	assert.Zero(t, src.calls)
}

func TestCycle_Window(t *testing.T) {
	src := &windowlessSource{orders: []domain.Order{
		order("0x01", owner, 1500),
		order("0x02", owner, 900),
		order("0x03", owner, 2001),
		order("0x04", owner, 1000),
		order("0x05", owner, 2000),
		order("0x06", other, 1500),
	}}
	f := newFixture(t, src)
	f.seed(t, 1000)

	require.NoError(t, f.p.Cycle(context.Background()))

	var uids []string
	for _, n := range f.sink.sent {
		uids = append(uids, n.Context["orderUid"])
	}
	assert.Equal(t, []string{"0x01", "0x05"}, uids)
	assert.Equal(t, int64(2000), f.last(t))

	n := f.sink.sent[0]
	assert.Equal(t, "OrderExpired-1500-1000", n.ID)
	assert.Equal(t, owner, n.Account)
	assert.Equal(t, "Order expired", n.Title)
	assert.Contains(t, n.Message, "Account: "+owner)
	assert.Equal(t, "https://explorer.cow.fi/gc/orders/0x01", n.URL)
}

func TestCycle_AccountIsLowerCased(t *testing.T) {
	mixed := "0x00000000000000000000000000000000000000A1"
	src := &windowlessSource{orders: []domain.Order{order("0x01", mixed, 1500)}}
	f := newFixture(t, src)
	f.seed(t, 1000)

	require.NoError(t, f.p.Cycle(context.Background()))

	require.Len(t, f.sink.sent, 1)
	assert.Equal(t, owner, f.sink.sent[0].Account)
	assert.Contains(t, f.sink.sent[0].Message, "Account: "+owner)
}

func TestCycle_MemoryRepoWindow(t *testing.T) {
	mem := memory.NewMemoryStorage()
	orders := memory.NewOrderRepo(mem)
	for _, o := range []domain.Order{order("0x01", owner, 1500), order("0x02", owner, 900), order("0x03", owner, 2001)} {
		orders.Save(o)
	}
	f := newFixture(t, orders)
	f.seed(t, 1000)

	require.NoError(t, f.p.Cycle(context.Background()))

	require.Len(t, f.sink.sent, 1)
	assert.Equal(t, "OrderExpired-1500-1000", f.sink.sent[0].ID)
}

func TestCycle_CommitsEvenWhenEmpty(t *testing.T) {
	f := newFixture(t, &windowlessSource{})
	f.seed(t, 1000)

	require.NoError(t, f.p.Cycle(context.Background()))
	assert.Empty(t, f.sink.sent)
	assert.Equal(t, int64(2000), f.last(t))
}

func TestCycle_SendFailureKeepsCheckpoint(t *testing.T) {
	f := newFixture(t, &windowlessSource{orders: []domain.Order{order("0x01", owner, 1500)}})
	f.seed(t, 1000)
	f.sink.err = errors.New("broker down")

	require.Error(t, f.p.Cycle(context.Background()))
	assert.Equal(t, int64(1000), f.last(t))
}

func TestCycle_ClockBehindCheckpoint(t *testing.T) {
	src := &windowlessSource{}
	f := newFixture(t, src)
	f.seed(t, 5000)

	require.NoError(t, f.p.Cycle(context.Background()))
	assert.Equal(t, int64(5000), f.last(t))
	assert.Zero(t, src.calls)
}
