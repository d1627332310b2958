package domain

import (
	"encoding/json"
	"time"
)

// Checkpoint is the persisted progress of one producer, optionally scoped to a chain.
// State is owned by the producer and opaque to the store.
type Checkpoint struct {
	ProducerName string
	ChainID      ChainID
	State        json.RawMessage
	UpdatedAt    time.Time
}
