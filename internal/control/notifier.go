// Package control wires producers into running loops.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/notifier/internal/core/config"
	"github.com/vietddude/notifier/internal/core/domain"
	"github.com/vietddude/notifier/internal/core/worker"
	"github.com/vietddude/notifier/internal/health"
	"github.com/vietddude/notifier/internal/producer/expiry"
	"github.com/vietddude/notifier/internal/producer/feed"
	"github.com/vietddude/notifier/internal/producer/trade"
)

// Notifier runs one trade and one expiry producer per chain plus the feed producer.
type Notifier struct {
	cfg          *config.AppConfig
	comps        *Components
	loops        []*worker.Loop
	healthMon    *health.Monitor
	healthServer *health.Server
	log          *slog.Logger

	mu     sync.Mutex
	group  *errgroup.Group
	cancel context.CancelFunc
}

// New builds the producer loops. It does not start anything.
func New(cfg *config.AppConfig, comps *Components) (*Notifier, error) {
	n := &Notifier{
		cfg:   cfg,
		comps: comps,
		log:   slog.Default().With("component", "notifier"),
	}

	heads := make(map[domain.ChainID]health.BlockHeightFetcher)
	var commits []health.CommitSource
	for _, chainCfg := range cfg.Chains {
		chainID := chainCfg.ChainID
		adapter, ok := comps.Chains[chainID]
		if !ok {
			return nil, fmt.Errorf("no chain adapter for chain %s", chainID)
		}
		heads[chainID] = health.NewHeadCache(adapter, 5*time.Second)

		tp := trade.New(trade.Config{
			ChainID:       chainID,
			Settlement:    chainCfg.Settlement,
			Sentinels:     chainCfg.Sentinels,
			ExplorerURL:   chainCfg.ExplorerURL,
			BatchSize:     cfg.Producers.BatchSize,
			Chain:         adapter,
			Checkpoints:   comps.Checkpoints,
			Subscriptions: comps.Subscriptions,
			Tokens:        comps.Tokens,
			Sink:          comps.Sink,
		})
		n.add(tp.Name(), chainID, cfg.Producers.TradeInterval, tp.Cycle)
		commits = append(commits, tp)

		if cfg.Producers.DisableExpiry || comps.Orders == nil {
			continue
		}
		ep := expiry.New(expiry.Config{
			ChainID:       chainID,
			ExplorerURL:   chainCfg.ExplorerURL,
			Clock:         comps.Clock,
			Orders:        comps.Orders,
			Checkpoints:   comps.Checkpoints,
			Subscriptions: comps.Subscriptions,
			Tokens:        comps.Tokens,
			Sink:          comps.Sink,
		})
		n.add(ep.Name(), chainID, cfg.Producers.ExpiryInterval, ep.Cycle)
		commits = append(commits, ep)
	}

	if comps.Feed != nil {
		fp := feed.New(feed.Config{
			Client:        comps.Feed,
			Subscriptions: comps.Subscriptions,
			Sink:          comps.Sink,
		})
		n.add(fp.Name(), domain.NoChain, cfg.Producers.FeedInterval, fp.Cycle)
	}

	n.healthMon = health.NewMonitor(health.MonitorConfig{
		Store:         comps.Checkpoints,
		Heads:         heads,
		Commits:       commits,
		BlockProducer: trade.Name,
	})
	n.healthServer = health.NewServer(n.healthMon, cfg.Server.Port)

	return n, nil
}

func (n *Notifier) add(name string, chainID domain.ChainID, interval time.Duration, cycle worker.Cycle) {
	n.loops = append(n.loops, worker.NewLoop(worker.Config{
		Name:     name,
		ChainID:  chainID,
		Interval: interval,
		Clock:    n.comps.Clock,
	}, cycle))
}

// Loops returns the producer loops.
func (n *Notifier) Loops() []*worker.Loop {
	return n.loops
}

// Start launches every loop and the health server. It returns immediately.
func (n *Notifier) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.group != nil {
		return worker.ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	n.group = &errgroup.Group{}

	go func() {
		if err := n.healthServer.Start(); err != nil {
			n.log.Error("Health server failed", "error", err)
		}
	}()

	if n.comps.DB != nil {
		n.comps.DB.StartMetricsCollector(runCtx)
	}

	// A plain group: one loop returning never cancels the others.
	for _, l := range n.loops {
		n.log.Info("Starting producer", "producer", l.Name(), "chain", l.ChainID())
		n.group.Go(func() error {
			if err := l.Start(runCtx); err != nil {
				return fmt.Errorf("%s/%s: %w", l.Name(), l.ChainID(), err)
			}
			return nil
		})
	}

	n.log.Info("Notifier started", "producers", len(n.loops))
	return nil
}

// Stop asks every loop to stop, waits for in-flight cycles (bounded by ctx), then releases
// infrastructure and stops the health server.
func (n *Notifier) Stop(ctx context.Context) error {
	n.log.Info("Stopping Notifier...")

	for _, l := range n.loops {
		l.Stop()
	}

	var errs []error

	n.mu.Lock()
	group, cancel := n.group, n.cancel
	n.mu.Unlock()

	if group != nil {
		done := make(chan error, 1)
		go func() { done <- group.Wait() }()

		select {
		case err := <-done:
			errs = append(errs, err)
		case <-ctx.Done():
			n.log.Warn("Producers did not stop in time, cancelling in-flight cycles")
			errs = append(errs, ctx.Err())
		}
		cancel()
	}

	errs = append(errs, n.comps.Close())
	errs = append(errs, n.healthServer.Stop(ctx))

	if err := errors.Join(errs...); err != nil {
		return err
	}
	n.log.Info("Notifier stopped")
	return nil
}
