package checkpoint

import (
	"github.com/vietddude/notifier/internal/core/domain"
)

// State is a typed checkpoint payload with a monotonic position.
type State interface {
	Position() int64
}

// BlockState is the checkpoint of a chain-event producer.
type BlockState struct {
	LastBlock          uint64 `json:"lastBlock"`
	LastBlockTimestamp uint64 `json:"lastBlockTimestamp"`
	LastBlockHash      string `json:"lastBlockHash"`
}

func (s BlockState) Position() int64 { return int64(s.LastBlock) }

// TimeState is the checkpoint of a time-window producer.
type TimeState struct {
	LastCheckTimestamp int64 `json:"lastCheckTimestamp"`
}

func (s TimeState) Position() int64 { return s.LastCheckTimestamp }

// Phase is derived from whether a checkpoint row exists.
type Phase string

const (
	PhaseAbsent   Phase = "absent"
	PhaseTracking Phase = "tracking"
)

// PhaseOf returns the phase of a stored checkpoint (nil means absent).
func PhaseOf(cp *domain.Checkpoint) Phase {
	if cp == nil {
		return PhaseAbsent
	}
	return PhaseTracking
}

// PhaseDescription returns a human-readable description of a phase.
func PhaseDescription(p Phase) string {
	switch p {
	case PhaseAbsent:
		return "Absent - producer has not completed a cycle yet"
	case PhaseTracking:
		return "Tracking - producer commits after every unit of work"
	default:
		return "Unknown phase"
	}
}
