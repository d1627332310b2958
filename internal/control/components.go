package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/vietddude/notifier/internal/core/checkpoint"
	"github.com/vietddude/notifier/internal/core/config"
	"github.com/vietddude/notifier/internal/core/domain"
	"github.com/vietddude/notifier/internal/core/worker"
	"github.com/vietddude/notifier/internal/infra/chain"
	"github.com/vietddude/notifier/internal/infra/chain/evm"
	"github.com/vietddude/notifier/internal/infra/cms"
	redisclient "github.com/vietddude/notifier/internal/infra/redis"
	"github.com/vietddude/notifier/internal/infra/rpc"
	"github.com/vietddude/notifier/internal/infra/sink"
	"github.com/vietddude/notifier/internal/infra/storage"
	badgerstore "github.com/vietddude/notifier/internal/infra/storage/badger"
	"github.com/vietddude/notifier/internal/infra/storage/memory"
	"github.com/vietddude/notifier/internal/infra/storage/postgres"
	"github.com/vietddude/notifier/internal/infra/tokens"
	"github.com/vietddude/notifier/internal/notification"
	"github.com/vietddude/notifier/internal/producer/feed"
	"github.com/vietddude/notifier/internal/subscription"
)

// Components are the collaborators the producers run against.
type Components struct {
	Checkpoints   checkpoint.Store
	Subscriptions subscription.Source
	Orders        storage.OrderRepository
	Tokens        notification.TokenLookup
	Sink          sink.Sink
	Feed          feed.Client // nil disables the feed producer
	Chains        map[domain.ChainID]chain.Adapter
	Clock         worker.Clock

	// DB is set when Postgres is configured; it feeds pool metrics.
	DB *postgres.DB

	closers []io.Closer
}

// Close releases everything Build opened, in reverse order.
func (c *Components) Close() error {
	var errs []error
	if c.Sink != nil {
		errs = append(errs, c.Sink.Close())
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i].Close())
	}
	c.closers = nil
	return errors.Join(errs...)
}

// Build connects to the configured infrastructure.
func Build(ctx context.Context, cfg *config.AppConfig) (*Components, error) {
	c := &Components{
		Chains: make(map[domain.ChainID]chain.Adapter),
		Clock:  worker.SystemClock{},
	}
	ok := false
	defer func() {
		if !ok {
			_ = c.Close()
		}
	}()

	// 1. Storage
	mem := memory.NewMemoryStorage()
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		c.closers = append(c.closers, db)
		if err := db.Migrate(ctx); err != nil {
			return nil, err
		}
		c.DB = db
		c.Subscriptions = postgres.NewSubscriptionRepo(db)
		c.Orders = postgres.NewOrderRepo(db)
		slog.Info("Using PostgreSQL storage")
	} else {
		subs := memory.NewSubscriptionRepo(mem)
		subs.Subscribe(cfg.Subscriptions...)
		c.Subscriptions = subs
		c.Orders = memory.NewOrderRepo(mem)
		slog.Info("Using Memory storage", "subscriptions", len(cfg.Subscriptions))
	}

	switch cfg.Checkpoint.Backend {
	case config.BackendPostgres:
		if c.DB == nil {
			return nil, errors.New("postgres checkpoint backend requires database.url")
		}
		c.Checkpoints = postgres.NewCheckpointRepo(c.DB)
	case config.BackendBadger:
		repo, err := badgerstore.Open(badgerstore.Config{Path: cfg.Checkpoint.BadgerPath})
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, repo)
		c.Checkpoints = repo
	default:
		c.Checkpoints = memory.NewCheckpointRepo(mem)
	}
	slog.Info("Checkpoint store ready", "backend", cfg.Checkpoint.Backend)

	// 2. Redis caches
	var tokenCache tokens.Cache
	if cfg.Redis.URL != "" {
		client, err := redisclient.NewClient(cfg.Redis.Config)
		if err != nil {
			slog.Warn("Failed to connect to Redis, caches disabled", "error", err)
		} else {
			c.closers = append(c.closers, client)
			c.Subscriptions = redisclient.NewSubscriptionCache(client, c.Subscriptions, cfg.Redis.SubscriptionTTL)
			tokenCache = redisclient.NewTokenCache(client, cfg.Redis.TokenTTL)
		}
	}

	// 3. Chains
	router := rpc.NewRouter()
	resolver := tokens.NewResolver(tokenCache)
	for _, chainCfg := range cfg.Chains {
		for _, p := range chainCfg.Providers {
			provider := rpc.NewHTTPProvider(p.Name, p.URL, p.Timeout, rpc.WithRateLimit(p.RateLimit, p.Burst))
			router.AddProvider(chainCfg.ChainID, provider)
			c.closers = append(c.closers, provider)
		}
		adapter := evm.NewEVMAdapter(chainCfg.ChainID, rpc.NewClient(chainCfg.ChainID, router))
		c.Chains[chainCfg.ChainID] = adapter
		resolver.AddChain(chainCfg.ChainID, adapter)
	}
	c.Tokens = resolver

	// 4. Sink and feed
	s, err := sink.New(cfg.Sink, slog.Default())
	if err != nil {
		return nil, err
	}
	c.Sink = s

	if cfg.CMS.BaseURL != "" {
		c.Feed = cms.NewClient(cfg.CMS)
	}

	ok = true
	return c, nil
}
