// Package expiry notifies owners of orders whose validity ended since the last check.
package expiry

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/vietddude/notifier/internal/core/checkpoint"
	"github.com/vietddude/notifier/internal/core/domain"
	"github.com/vietddude/notifier/internal/core/worker"
	"github.com/vietddude/notifier/internal/infra/sink"
	"github.com/vietddude/notifier/internal/infra/storage"
	"github.com/vietddude/notifier/internal/metrics"
	"github.com/vietddude/notifier/internal/notification"
	"github.com/vietddude/notifier/internal/subscription"
)

// Name is the checkpoint key of the producer.
const Name = "expiry"

// OrderSource reads orders that expired within a window.
type OrderSource = storage.OrderRepository

// Config holds producer configuration and collaborators.
type Config struct {
	ChainID     domain.ChainID
	ExplorerURL string
	Clock       worker.Clock

	Orders        OrderSource
	Checkpoints   checkpoint.Store
	Subscriptions subscription.Source
	Tokens        notification.TokenLookup
	Sink          sink.Sink
}

// Producer checks the window (last check, now] once per cycle.
type Producer struct {
	cfg         Config
	checkpoints *checkpoint.Manager[checkpoint.TimeState]
	log         *slog.Logger
}

// New creates an expiry producer.
func New(cfg Config) *Producer {
	if cfg.Clock == nil {
		cfg.Clock = worker.SystemClock{}
	}
	return &Producer{
		cfg:         cfg,
		checkpoints: checkpoint.NewManager[checkpoint.TimeState](cfg.Checkpoints, Name, cfg.ChainID),
		log:         slog.Default().With("component", "producer", "producer", Name, "chain", cfg.ChainID),
	}
}

// Name returns the producer name.
func (p *Producer) Name() string { return Name }

// CommitMetrics reports the commit rate of the time checkpoint.
func (p *Producer) CommitMetrics() checkpoint.Metrics { return p.checkpoints.GetMetrics() }

// ChainID returns the chain the producer watches.
func (p *Producer) ChainID() domain.ChainID { return p.cfg.ChainID }

// Cycle sends one notification per order with last < validTo <= now and commits now.
func (p *Producer) Cycle(ctx context.Context) error {
	now := p.cfg.Clock.Now().Unix()

	state, err := p.checkpoints.Load(ctx)
	if err != nil {
		return err
	}
	if state == nil {
		if err := p.checkpoints.Baseline(ctx, checkpoint.TimeState{LastCheckTimestamp: now}); err != nil {
			return err
		}
		p.log.Info("Checkpoint baselined", "timestamp", now)
		return nil
	}

	last := state.LastCheckTimestamp
	if now < last {
		p.log.Warn("Clock is behind checkpoint, skipping", "now", now, "last", last)
		return nil
	}

	subs, err := subscription.Load(ctx, p.cfg.Subscriptions)
	if err != nil {
		return err
	}

	var orders []domain.Order
	if subs.Size() > 0 && now > last {
		orders, err = p.cfg.Orders.ExpiredOrders(ctx, p.cfg.ChainID, subs.Addresses(), last, now)
		if err != nil {
			return fmt.Errorf("failed to get expired orders: %w", err)
		}
	}

	notifications := make([]domain.Notification, 0, len(orders))
	for _, o := range orders {
		if o.ValidTo <= last || o.ValidTo > now || !subs.Contains(o.Owner) {
			continue
		}
		notifications = append(notifications, p.build(ctx, o, last))
	}

	if err := p.cfg.Sink.Connect(ctx); err != nil {
		return err
	}
	if err := p.cfg.Sink.Send(ctx, notifications); err != nil {
		return fmt.Errorf("failed to send notifications: %w", err)
	}
	metrics.NotificationsSent.WithLabelValues(Name, string(p.cfg.ChainID)).Add(float64(len(notifications)))

	if err := p.checkpoints.Advance(ctx, checkpoint.TimeState{LastCheckTimestamp: now}); err != nil {
		return err
	}

	p.log.Debug("Window checked", "from", last, "to", now, "notifications", len(notifications))
	return nil
}

func (p *Producer) build(ctx context.Context, o domain.Order, last int64) domain.Notification {
	owner := strings.ToLower(o.Owner)
	return domain.Notification{
		ID:      notification.OrderExpiredID(o.ValidTo, last),
		Account: owner,
		Title:   "Order expired",
		Message: notification.Summary(ctx, p.cfg.Tokens, p.cfg.ChainID, notification.Swap{
			SellToken:  o.SellToken,
			BuyToken:   o.BuyToken,
			SellAmount: o.SellAmount,
			BuyAmount:  o.BuyAmount,
		}) + "\n" + notification.AccountLine(owner),
		URL: p.cfg.ChainID.ExplorerPath(p.cfg.ExplorerURL) + "/orders/" + o.UID,
		Context: map[string]string{
			"chainId":  string(p.cfg.ChainID),
			"orderUid": o.UID,
			"validTo":  strconv.FormatInt(o.ValidTo, 10),
		},
	}
}
