// Package feed forwards CMS push notifications to subscribed accounts.
//
// The producer keeps a pending buffer keyed by feed item id. Each cycle merges the current feed
// into the buffer and tries to send all of it; the buffer only empties once a send succeeds.
// The buffer lives in memory, so items pending at shutdown are sent again only if the feed
// still lists them after restart.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/vietddude/notifier/internal/core/domain"
	"github.com/vietddude/notifier/internal/infra/sink"
	"github.com/vietddude/notifier/internal/metrics"
	"github.com/vietddude/notifier/internal/notification"
	"github.com/vietddude/notifier/internal/subscription"
)

// Name is the producer name used in logs and metrics.
const Name = "feed"

// Client reads the push-notification feed.
type Client interface {
	PushNotifications(ctx context.Context) ([]domain.FeedItem, error)
}

// Config holds producer collaborators.
type Config struct {
	Client        Client
	Subscriptions subscription.Source
	Sink          sink.Sink
}

// Producer polls the feed. Cycle must only be called from one goroutine.
type Producer struct {
	cfg     Config
	pending map[int64]domain.Notification
	log     *slog.Logger
}

// New creates a feed producer.
func New(cfg Config) *Producer {
	return &Producer{
		cfg:     cfg,
		pending: make(map[int64]domain.Notification),
		log:     slog.Default().With("component", "producer", "producer", Name),
	}
}

// Name returns the producer name.
func (p *Producer) Name() string { return Name }

// ChainID returns domain.NoChain; the feed is not bound to a chain.
func (p *Producer) ChainID() domain.ChainID { return domain.NoChain }

// Pending returns the number of notifications waiting to be sent.
func (p *Producer) Pending() int { return len(p.pending) }

// Cycle fetches the feed, buffers matching items and sends the whole buffer.
func (p *Producer) Cycle(ctx context.Context) error {
	items, err := p.cfg.Client.PushNotifications(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	subs, err := subscription.Load(ctx, p.cfg.Subscriptions)
	if err != nil {
		return err
	}

	for _, item := range items {
		if !subs.Contains(item.Account) {
			continue
		}
		p.pending[item.ID] = build(item)
	}
	metrics.FeedPending.Set(float64(len(p.pending)))

	if len(p.pending) == 0 {
		return nil
	}

	batch := make([]domain.Notification, 0, len(p.pending))
	for _, id := range slices.Sorted(maps.Keys(p.pending)) {
		batch = append(batch, p.pending[id])
	}

	if err := p.cfg.Sink.Connect(ctx); err != nil {
		return err
	}
	if err := p.cfg.Sink.Send(ctx, batch); err != nil {
		return fmt.Errorf("failed to send %d pending notifications: %w", len(batch), err)
	}

	clear(p.pending)
	metrics.FeedPending.Set(0)
	metrics.NotificationsSent.WithLabelValues(Name, string(domain.NoChain)).Add(float64(len(batch)))
	p.log.Debug("Feed notifications sent", "count", len(batch))
	return nil
}

func build(item domain.FeedItem) domain.Notification {
	return domain.Notification{
		ID:      notification.FeedID(item.ID),
		Account: strings.ToLower(item.Account),
		Title:   notification.Render(item.Template.Title, item.Data),
		Message: notification.Render(item.Template.Description, item.Data),
		URL:     notification.Render(item.Template.URL, item.Data),
		Context: notification.Flatten(item.Data),
	}
}
