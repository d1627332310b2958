// Package health reports producer progress over HTTP.
package health

import "time"

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// worse returns the more severe of two statuses.
func worse(a, b SystemStatus) SystemStatus {
	rank := map[SystemStatus]int{StatusHealthy: 0, StatusDegraded: 1, StatusCritical: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// ChainHealth contains block progress for one chain.
type ChainHealth struct {
	ChainID         string       `json:"chain_id"`
	Status          SystemStatus `json:"status"`
	HeadBlock       uint64       `json:"head_block"`
	CheckpointBlock uint64       `json:"checkpoint_block"`
	BlockLag        uint64       `json:"block_lag"`
	Error           string       `json:"error,omitempty"`
}

// ProducerHealth contains checkpoint freshness for one producer.
type ProducerHealth struct {
	Producer      string       `json:"producer"`
	ChainID       string       `json:"chain_id,omitempty"`
	Status        SystemStatus `json:"status"`
	Phase         string       `json:"phase"`
	UpdatedAt     time.Time    `json:"updated_at"`
	CheckpointAge float64      `json:"checkpoint_age_seconds"`

	// Commit progress observed by this process; absent for producers running elsewhere.
	Commits            int        `json:"commits,omitempty"`
	PositionsPerSecond float64    `json:"positions_per_second,omitempty"`
	LastCommitAt       *time.Time `json:"last_commit_at,omitempty"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus           `json:"system_status"`
	Chains       map[string]ChainHealth `json:"chains"`
	Producers    []ProducerHealth       `json:"producers"`
	CheckedAt    time.Time              `json:"checked_at"`
}
