package sink

import (
	"context"
	"log/slog"

	"github.com/vietddude/notifier/internal/core/domain"
)

// LogSink writes notifications to the log instead of a broker.
type LogSink struct {
	log *slog.Logger
}

var _ Sink = (*LogSink)(nil)

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{log: logger.With("component", "sink")}
}

func (s *LogSink) Connect(ctx context.Context) error { return nil }

func (s *LogSink) Send(ctx context.Context, notifications []domain.Notification) error {
	for _, n := range notifications {
		s.log.Info("notification",
			"id", n.ID,
			"account", n.Account,
			"title", n.Title,
			"message", n.Message,
			"url", n.URL,
		)
	}
	return nil
}

func (s *LogSink) Close() error { return nil }
