// Package sink delivers notifications to the downstream push service.
//
// Producers only see the Sink interface. The Publisher implementation sends every notification
// as one watermill message whose UUID is the notification id, so consumers can drop duplicates
// on message UUID alone. Transports: gochannel (in-process), nats, kafka, amqp. LogSink writes
// to slog and is the default when no broker is configured.
package sink

import (
	"context"
	"errors"

	"github.com/vietddude/notifier/internal/core/domain"
)

// ErrNotConnected is returned by Send before Connect succeeded.
var ErrNotConnected = errors.New("sink not connected")

// Sink defines the delivery contract.
type Sink interface {
	// Connect prepares the transport. It is idempotent and cheap once connected.
	Connect(ctx context.Context) error

	// Send delivers a batch of notifications. On error the caller may resend the whole batch.
	Send(ctx context.Context, notifications []domain.Notification) error

	// Close releases the transport
	Close() error
}

// Transport names.
const (
	TransportLog       = "log"
	TransportGoChannel = "gochannel"
	TransportNATS      = "nats"
	TransportKafka     = "kafka"
	TransportAMQP      = "amqp"
)

// Encoding names.
const (
	EncodingJSON  = "json"
	EncodingProto = "proto"
)

// Config holds sink settings.
type Config struct {
	Transport    string   `yaml:"transport"` // log, gochannel, nats, kafka, amqp
	Topic        string   `yaml:"topic"`
	Encoding     string   `yaml:"encoding"` // json, proto
	NATSURL      string   `yaml:"nats_url"`
	KafkaBrokers []string `yaml:"kafka_brokers"`
	AMQPURL      string   `yaml:"amqp_url"`
}
