package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/vietddude/notifier/internal/core/checkpoint"
	"github.com/vietddude/notifier/internal/core/domain"
	"github.com/vietddude/notifier/internal/metrics"
)

// BlockHeightFetcher fetches the latest block height for a chain.
type BlockHeightFetcher interface {
	GetLatestBlock(ctx context.Context) (uint64, error)
}

// CommitSource reports commit progress of a producer running in this process.
type CommitSource interface {
	Name() string
	ChainID() domain.ChainID
	CommitMetrics() checkpoint.Metrics
}

// MonitorConfig holds monitor settings.
type MonitorConfig struct {
	// Store is read for every producer checkpoint.
	Store checkpoint.Store

	// Heads maps each chain to its head source, usually a HeadCache.
	Heads map[domain.ChainID]BlockHeightFetcher

	// Commits adds in-process commit rates to the matching producer entries.
	Commits []CommitSource

	// BlockProducer names the producer whose BlockState measures block lag.
	BlockProducer string

	// StaleAfter marks a checkpoint degraded when older; three times that is critical.
	StaleAfter time.Duration

	// CacheFor bounds how often a full check runs. Default 10s.
	CacheFor time.Duration
}

// Monitor aggregates health status from checkpoints and chain heads.
type Monitor struct {
	cfg MonitorConfig
	now func() time.Time

	mu         sync.Mutex
	lastCheck  time.Time
	lastReport *HealthReport
}

// NewMonitor creates a new health monitor.
func NewMonitor(cfg MonitorConfig) *Monitor {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 5 * time.Minute
	}
	if cfg.CacheFor <= 0 {
		cfg.CacheFor = 10 * time.Second
	}
	return &Monitor{cfg: cfg, now: time.Now}
}

// CheckHealth builds a report. Results are reused for CacheFor.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastReport != nil && m.now().Sub(m.lastCheck) < m.cfg.CacheFor {
		return *m.lastReport
	}

	now := m.now()
	report := HealthReport{
		SystemStatus: StatusHealthy,
		Chains:       make(map[string]ChainHealth),
		CheckedAt:    now,
	}

	checkpoints, err := m.cfg.Store.List(ctx)
	if err != nil {
		report.SystemStatus = StatusCritical
		checkpoints = nil
	}

	commits := make(map[string]CommitSource, len(m.cfg.Commits))
	for _, src := range m.cfg.Commits {
		commits[src.Name()+"/"+string(src.ChainID())] = src
	}

	blocks := make(map[domain.ChainID]uint64)
	for _, cp := range checkpoints {
		age := now.Sub(cp.UpdatedAt)
		status := StatusHealthy
		switch {
		case age > 3*m.cfg.StaleAfter:
			status = StatusCritical
		case age > m.cfg.StaleAfter:
			status = StatusDegraded
		}

		ph := ProducerHealth{
			Producer:      cp.ProducerName,
			ChainID:       string(cp.ChainID),
			Status:        status,
			Phase:         string(checkpoint.PhaseOf(cp)),
			UpdatedAt:     cp.UpdatedAt,
			CheckpointAge: age.Seconds(),
		}
		if src, ok := commits[cp.ProducerName+"/"+string(cp.ChainID)]; ok {
			cm := src.CommitMetrics()
			ph.Commits = cm.Commits
			ph.PositionsPerSecond = cm.PositionPerSecond
			ph.LastCommitAt = cm.LastCommitAt
		}
		report.Producers = append(report.Producers, ph)
		report.SystemStatus = worse(report.SystemStatus, status)

		if cp.ProducerName == m.cfg.BlockProducer {
			var state checkpoint.BlockState
			if err := sonic.Unmarshal(cp.State, &state); err == nil {
				blocks[cp.ChainID] = state.LastBlock
			}
		}
	}

	for chainID, heads := range m.cfg.Heads {
		health := ChainHealth{ChainID: string(chainID), Status: StatusHealthy}

		latest, err := heads.GetLatestBlock(ctx)
		if err != nil {
			health.Status = StatusDegraded
			health.Error = err.Error()
		} else {
			health.HeadBlock = latest
			if last, ok := blocks[chainID]; ok {
				health.CheckpointBlock = last
				if latest > last {
					health.BlockLag = latest - last
				}
			}
			metrics.BlockLag.WithLabelValues(string(chainID)).Set(float64(health.BlockLag))
		}

		if health.BlockLag > 100 {
			health.Status = StatusCritical
		} else if health.BlockLag > 10 {
			health.Status = worse(health.Status, StatusDegraded)
		}

		healthy := 0.0
		if health.Status == StatusHealthy {
			healthy = 1
		}
		metrics.HealthStatus.WithLabelValues(string(chainID)).Set(healthy)

		report.Chains[string(chainID)] = health
		report.SystemStatus = worse(report.SystemStatus, health.Status)
	}

	sort.Slice(report.Producers, func(i, j int) bool {
		a, b := report.Producers[i], report.Producers[j]
		if a.Producer != b.Producer {
			return a.Producer < b.Producer
		}
		return a.ChainID < b.ChainID
	})

	m.lastCheck = now
	m.lastReport = &report
	return report
}
