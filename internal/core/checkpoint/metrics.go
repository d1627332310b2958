package checkpoint

import (
	"sync"
	"time"
)

// commitRecord holds timing data for a committed position.
type commitRecord struct {
	Position    int64
	CommittedAt time.Time
}

// Metrics holds checkpoint progress data.
type Metrics struct {
	Commits           int
	PositionPerSecond float64
	LastPosition      int64
	LastCommitAt      *time.Time
}

// MetricsCollector tracks checkpoint progress over time.
type MetricsCollector struct {
	mu         sync.Mutex
	windowSize int            // number of commits to track
	commits    []commitRecord // ring buffer of commits
	total      int
}

// RecordCommit records a committed position.
func (mc *MetricsCollector) RecordCommit(position int64, at time.Time) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	record := commitRecord{Position: position, CommittedAt: at}
	if len(mc.commits) >= mc.windowSize {
		// Shift elements left, drop oldest
		copy(mc.commits, mc.commits[1:])
		mc.commits[len(mc.commits)-1] = record
	} else {
		mc.commits = append(mc.commits, record)
	}
	mc.total++
}

// GetMetrics returns current metrics.
func (mc *MetricsCollector) GetMetrics() Metrics {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	m := Metrics{Commits: mc.total}
	if len(mc.commits) == 0 {
		return m
	}

	last := mc.commits[len(mc.commits)-1]
	at := last.CommittedAt
	m.LastPosition = last.Position
	m.LastCommitAt = &at

	if len(mc.commits) >= 2 {
		first := mc.commits[0]
		duration := last.CommittedAt.Sub(first.CommittedAt)
		if duration > 0 {
			m.PositionPerSecond = float64(last.Position-first.Position) / duration.Seconds()
		}
	}
	return m
}
