// Package trade turns settlement contract events into notifications.
//
// Each cycle scans the chain from the block after the checkpoint up to the head in fixed-size
// batches. Every batch is committed on its own, so a failure never loses more than the batch
// in flight. A producer that has never run records the head as its baseline and sends nothing:
// there is no historical backfill.
package trade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/vietddude/notifier/internal/core/checkpoint"
	"github.com/vietddude/notifier/internal/core/domain"
	"github.com/vietddude/notifier/internal/infra/chain"
	"github.com/vietddude/notifier/internal/infra/chain/evm"
	"github.com/vietddude/notifier/internal/infra/sink"
	"github.com/vietddude/notifier/internal/metrics"
	"github.com/vietddude/notifier/internal/notification"
	"github.com/vietddude/notifier/internal/subscription"
)

// Name is the checkpoint key of the producer.
const Name = "trade"

// DefaultBatchSize is the number of blocks per eth_getLogs range.
const DefaultBatchSize = 5000

// Config holds producer configuration and collaborators.
type Config struct {
	ChainID     domain.ChainID
	Settlement  string
	Sentinels   []string
	ExplorerURL string
	BatchSize   uint64

	Chain         chain.Adapter
	Checkpoints   checkpoint.Store
	Subscriptions subscription.Source
	Tokens        notification.TokenLookup
	Sink          sink.Sink
}

// Producer scans settlement logs for one chain.
type Producer struct {
	cfg         Config
	checkpoints *checkpoint.Manager[checkpoint.BlockState]
	log         *slog.Logger
}

// New creates a trade producer.
func New(cfg Config) *Producer {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Settlement == "" {
		cfg.Settlement = evm.DefaultSettlementAddress
	}
	if cfg.Sentinels == nil {
		cfg.Sentinels = evm.DefaultSentinelOwners
	}
	return &Producer{
		cfg:         cfg,
		checkpoints: checkpoint.NewManager[checkpoint.BlockState](cfg.Checkpoints, Name, cfg.ChainID),
		log:         slog.Default().With("component", "producer", "producer", Name, "chain", cfg.ChainID),
	}
}

// Name returns the producer name.
func (p *Producer) Name() string { return Name }

// CommitMetrics reports the commit rate of the block checkpoint.
func (p *Producer) CommitMetrics() checkpoint.Metrics { return p.checkpoints.GetMetrics() }

// ChainID returns the chain the producer scans.
func (p *Producer) ChainID() domain.ChainID { return p.cfg.ChainID }

// Cycle scans from the checkpoint to the head, then keeps going while the head moves.
func (p *Producer) Cycle(ctx context.Context) error {
	head, err := p.head(ctx)
	if err != nil {
		return err
	}

	for {
		state, err := p.checkpoints.Load(ctx)
		if err != nil {
			return err
		}
		if state == nil {
			return p.baseline(ctx, head)
		}

		from := state.LastBlock + 1
		if head.Number < from {
			return nil
		}

		subs, err := subscription.Load(ctx, p.cfg.Subscriptions)
		if err != nil {
			return err
		}

		for start := from; start <= head.Number; start += p.cfg.BatchSize {
			end := min(start+p.cfg.BatchSize-1, head.Number)
			if err := p.processBatch(ctx, subs, start, end); err != nil {
				return fmt.Errorf("batch [%d, %d]: %w", start, end, err)
			}
		}

		next, err := p.head(ctx)
		if err != nil {
			return err
		}
		if next.Number <= head.Number {
			return nil
		}
		head = next
	}
}

func (p *Producer) head(ctx context.Context) (*domain.BlockHeader, error) {
	head, err := p.cfg.Chain.HeadBlock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get head block: %w", err)
	}
	metrics.ChainLatestBlock.WithLabelValues(string(p.cfg.ChainID)).Set(float64(head.Number))
	return head, nil
}

func (p *Producer) baseline(ctx context.Context, head *domain.BlockHeader) error {
	err := p.checkpoints.Baseline(ctx, checkpoint.BlockState{
		LastBlock:          head.Number,
		LastBlockTimestamp: head.Timestamp,
		LastBlockHash:      head.Hash,
	})
	if err != nil {
		return err
	}
	metrics.CheckpointBlock.WithLabelValues(string(p.cfg.ChainID)).Set(float64(head.Number))
	p.log.Info("Checkpoint baselined at head", "block", head.Number)
	return nil
}

// processBatch scans [from, to], sends the resulting notifications and commits to.
func (p *Producer) processBatch(ctx context.Context, subs *subscription.Set, from, to uint64) error {
	block, err := p.cfg.Chain.BlockByNumber(ctx, to)
	if err != nil {
		return fmt.Errorf("failed to get block %d: %w", to, err)
	}

	owners := append(subs.Addresses(), p.cfg.Sentinels...)

	var logs []chain.Log
	if len(owners) > 0 {
		logs, err = p.cfg.Chain.GetLogs(ctx, evm.SettlementFilter(p.cfg.Settlement, owners, from, to))
		if err != nil {
			return fmt.Errorf("failed to get logs: %w", err)
		}
	}

	notifications := make([]domain.Notification, 0, len(logs))
	for _, l := range logs {
		if l.Removed {
			continue
		}
		ev, err := evm.DecodeSettlementLog(l)
		if errors.Is(err, chain.ErrMalformedLog) {
			metrics.LogsSkipped.WithLabelValues(string(p.cfg.ChainID)).Inc()
			p.log.Warn("Skipping malformed log", "tx", l.TxHash, "log_index", l.LogIndex, "error", err)
			continue
		}
		if err != nil {
			return err
		}

		n, ok := p.build(ctx, subs, ev)
		if ok {
			notifications = append(notifications, n)
		}
	}

	if err := p.cfg.Sink.Connect(ctx); err != nil {
		return err
	}
	if err := p.cfg.Sink.Send(ctx, notifications); err != nil {
		return fmt.Errorf("failed to send notifications: %w", err)
	}
	metrics.NotificationsSent.WithLabelValues(Name, string(p.cfg.ChainID)).Add(float64(len(notifications)))

	if err := p.checkpoints.Advance(ctx, checkpoint.BlockState{
		LastBlock:          to,
		LastBlockTimestamp: block.Timestamp,
		LastBlockHash:      block.Hash,
	}); err != nil {
		return err
	}

	metrics.BatchesTotal.WithLabelValues(string(p.cfg.ChainID)).Inc()
	metrics.CheckpointBlock.WithLabelValues(string(p.cfg.ChainID)).Set(float64(to))
	p.log.Debug("Batch committed",
		"from", from,
		"to", to,
		"logs", len(logs),
		"notifications", len(notifications),
	)
	return nil
}

// build maps an event to a notification. Events of owners that are neither subscribed nor
// sentinels are dropped.
func (p *Producer) build(ctx context.Context, subs *subscription.Set, ev *domain.SettlementEvent) (domain.Notification, bool) {
	account := ev.Owner
	switch {
	case notification.IsSentinel(ev.Owner, p.cfg.Sentinels):
		account = notification.ZeroAddress
	case !subs.Contains(ev.Owner):
		return domain.Notification{}, false
	}

	n := domain.Notification{
		Account: account,
		URL:     p.cfg.ChainID.ExplorerPath(p.cfg.ExplorerURL) + "/tx/" + ev.TxHash,
		Context: map[string]string{
			"chainId":     string(p.cfg.ChainID),
			"txHash":      ev.TxHash,
			"logIndex":    strconv.FormatUint(ev.LogIndex, 10),
			"blockNumber": strconv.FormatUint(ev.BlockNumber, 10),
			"orderUid":    ev.OrderUID,
		},
	}

	switch ev.Kind {
	case domain.SettlementEventTrade:
		n.ID = notification.TradeID(ev.TxHash, ev.LogIndex)
		n.Title = "Trade"
		n.Message = notification.Summary(ctx, p.cfg.Tokens, p.cfg.ChainID, notification.Swap{
			SellToken:  ev.SellToken,
			BuyToken:   ev.BuyToken,
			SellAmount: ev.SellAmount,
			BuyAmount:  ev.BuyAmount,
		}) + "\n" + notification.AccountLine(ev.Owner)
		n.Context["sellToken"] = ev.SellToken
		n.Context["buyToken"] = ev.BuyToken
		n.Context["sellAmount"] = ev.SellAmount.String()
		n.Context["buyAmount"] = ev.BuyAmount.String()
	case domain.SettlementEventOrderInvalidated:
		n.ID = notification.OrderInvalidatedID(ev.TxHash, ev.LogIndex)
		n.Title = "Order invalidated"
		n.Message = "Order " + notification.ShortAddress(ev.OrderUID) + " was cancelled\n" +
			notification.AccountLine(ev.Owner)
	}
	return n, true
}
