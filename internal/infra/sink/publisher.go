package sink

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/oklog/ulid/v2"

	"github.com/vietddude/notifier/internal/core/domain"
)

// PublisherFactory builds the underlying watermill publisher on Connect.
type PublisherFactory func(ctx context.Context) (message.Publisher, error)

// Publisher is a Sink backed by a watermill publisher.
type Publisher struct {
	topic   string
	encode  Encoder
	factory PublisherFactory
	log     *slog.Logger

	mu  sync.Mutex
	pub message.Publisher
}

var _ Sink = (*Publisher)(nil)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func correlationID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewPublisher creates a publisher sink. The factory runs on the first Connect.
func NewPublisher(cfg Config, factory PublisherFactory) (*Publisher, error) {
	encode, err := NewEncoder(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	topic := cfg.Topic
	if topic == "" {
		topic = "notifications"
	}
	return &Publisher{
		topic:   topic,
		encode:  encode,
		factory: factory,
		log:     slog.Default().With("component", "sink", "topic", topic),
	}, nil
}

// Connect builds the publisher once. Failed attempts are retried on the next call.
func (p *Publisher) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pub != nil {
		return nil
	}
	pub, err := p.factory(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect sink: %w", err)
	}
	p.pub = pub
	p.log.Info("sink connected")
	return nil
}

// Send publishes one message per notification in a single Publish call.
func (p *Publisher) Send(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	p.mu.Lock()
	pub := p.pub
	p.mu.Unlock()
	if pub == nil {
		return ErrNotConnected
	}

	batch := correlationID()
	msgs := make([]*message.Message, 0, len(notifications))
	for _, n := range notifications {
		payload, err := p.encode(n)
		if err != nil {
			return fmt.Errorf("failed to encode notification %s: %w", n.ID, err)
		}
		msg := message.NewMessage(n.ID, payload)
		msg.Metadata.Set("account", n.Account)
		msg.Metadata.Set("batch_id", batch)
		msg.SetContext(ctx)
		msgs = append(msgs, msg)
	}

	if err := pub.Publish(p.topic, msgs...); err != nil {
		return fmt.Errorf("failed to publish %d notifications: %w", len(msgs), err)
	}
	return nil
}

// Close closes the underlying publisher.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pub == nil {
		return nil
	}
	err := p.pub.Close()
	p.pub = nil
	return err
}

// New builds the sink selected by cfg.Transport.
func New(cfg Config, logger *slog.Logger) (Sink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	wmLogger := watermill.NewSlogLogger(logger.With("component", "watermill"))

	var factory PublisherFactory
	switch cfg.Transport {
	case "", TransportLog:
		return NewLogSink(logger), nil
	case TransportGoChannel:
		factory = func(ctx context.Context) (message.Publisher, error) {
			return gochannel.NewGoChannel(gochannel.Config{}, wmLogger), nil
		}
	case TransportNATS:
		factory = func(ctx context.Context) (message.Publisher, error) {
			return nats.NewPublisher(nats.PublisherConfig{
				URL:       cfg.NATSURL,
				Marshaler: &nats.NATSMarshaler{},
			}, wmLogger)
		}
	case TransportKafka:
		factory = func(ctx context.Context) (message.Publisher, error) {
			return kafka.NewPublisher(kafka.PublisherConfig{
				Brokers:   cfg.KafkaBrokers,
				Marshaler: kafka.DefaultMarshaler{},
			}, wmLogger)
		}
	case TransportAMQP:
		factory = func(ctx context.Context) (message.Publisher, error) {
			return amqp.NewPublisher(amqp.NewDurablePubSubConfig(cfg.AMQPURL, amqp.GenerateQueueNameTopicName), wmLogger)
		}
	default:
		return nil, fmt.Errorf("unknown sink transport %q", cfg.Transport)
	}
	return NewPublisher(cfg, factory)
}
