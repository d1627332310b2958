// Package worker runs producer cycles forever.
//
// A Loop wraps a cycle function and implements Runnable: it runs the cycle, recovers any panic,
// logs the error, always waits a fixed interval and runs again. Start only returns once Stop was
// called or the context was cancelled. Retries use a fixed delay; there is no backoff and no
// distinction between transient and permanent errors.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vietddude/notifier/internal/core/domain"
	"github.com/vietddude/notifier/internal/metrics"
)

var (
	// ErrAlreadyRunning is returned when Start is called on a running loop.
	ErrAlreadyRunning = errors.New("loop already running")

	// ErrCyclePanic wraps a panic recovered from a cycle.
	ErrCyclePanic = errors.New("cycle panicked")
)

// Runnable is a long-lived unit that never exits on its own.
type Runnable interface {
	// Start blocks until Stop is called or ctx is cancelled. Cycle errors never escape.
	Start(ctx context.Context) error

	// Stop asks the runnable to exit at the next iteration boundary.
	Stop()
}

// Cycle is one unit of producer work.
type Cycle func(ctx context.Context) error

// Config holds loop settings.
type Config struct {
	Name     string
	ChainID  domain.ChainID
	Interval time.Duration
	Clock    Clock
	Logger   *slog.Logger
}

// Loop drives a Cycle forever with a fixed delay between runs.
type Loop struct {
	cfg      Config
	cycle    Cycle
	log      *slog.Logger
	tracer   trace.Tracer
	running  atomic.Bool
	stopped  atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
	failures int
}

var _ Runnable = (*Loop)(nil)

// NewLoop creates a loop around cycle.
func NewLoop(cfg Config, cycle Cycle) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "worker", "producer", cfg.Name)
	if cfg.ChainID != domain.NoChain {
		logger = logger.With("chain", string(cfg.ChainID))
	}

	return &Loop{
		cfg:    cfg,
		cycle:  cycle,
		log:    logger,
		tracer: otel.Tracer("github.com/vietddude/notifier/worker"),
		stop:   make(chan struct{}),
	}
}

// Name returns the producer name.
func (l *Loop) Name() string { return l.cfg.Name }

// ChainID returns the chain the producer is bound to.
func (l *Loop) ChainID() domain.ChainID { return l.cfg.ChainID }

// Start runs cycles until Stop is called or ctx is cancelled.
func (l *Loop) Start(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	l.log.Info("loop started", "interval", l.cfg.Interval)
	for !l.stopped.Load() && ctx.Err() == nil {
		l.runOnce(ctx)
		l.wait(ctx)
	}
	l.log.Info("loop stopped")
	return nil
}

// Stop flips the stop flag and wakes a pending wait. A running cycle is not interrupted.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.stopped.Store(true)
		close(l.stop)
	})
}

// IsRunning reports whether Start is active.
func (l *Loop) IsRunning() bool {
	return l.running.Load()
}

func (l *Loop) runOnce(ctx context.Context) {
	cycleID := uuid.NewString()
	chain := string(l.cfg.ChainID)

	ctx, span := l.tracer.Start(ctx, l.cfg.Name+".cycle", trace.WithAttributes(
		attribute.String("producer", l.cfg.Name),
		attribute.String("chain", chain),
		attribute.String("cycle_id", cycleID),
	))
	defer span.End()

	start := l.cfg.Clock.Now()
	err := l.safeCycle(ctx)
	metrics.CycleDuration.WithLabelValues(l.cfg.Name, chain).Observe(l.cfg.Clock.Now().Sub(start).Seconds())
	metrics.CyclesTotal.WithLabelValues(l.cfg.Name, chain).Inc()

	if err != nil {
		l.failures++
		metrics.CycleFailuresTotal.WithLabelValues(l.cfg.Name, chain).Inc()
		metrics.ConsecutiveFailures.WithLabelValues(l.cfg.Name, chain).Set(float64(l.failures))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.log.Error("cycle failed",
			"cycle_id", cycleID,
			"consecutive_failures", l.failures,
			"error", err,
		)
		return
	}

	if l.failures > 0 {
		l.log.Info("cycle recovered", "cycle_id", cycleID, "after_failures", l.failures)
	}
	l.failures = 0
	metrics.ConsecutiveFailures.WithLabelValues(l.cfg.Name, chain).Set(0)
}

func (l *Loop) safeCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCyclePanic, r)
		}
	}()
	return l.cycle(ctx)
}

// wait always sleeps the full interval unless the loop is stopped or ctx is done.
func (l *Loop) wait(ctx context.Context) {
	select {
	case <-l.cfg.Clock.After(l.cfg.Interval):
	case <-l.stop:
	case <-ctx.Done():
	}
}
