package chain

import (
	"context"
	"errors"

	"github.com/vietddude/notifier/internal/core/domain"
)

var (
	// ErrBlockNotFound is returned when the node does not know the requested block.
	ErrBlockNotFound = errors.New("block not found")

	// ErrMalformedLog is returned when a log cannot be decoded into a known event.
	ErrMalformedLog = errors.New("malformed log")

	// ErrCallReverted is returned when the node executed a contract call and it reverted.
	ErrCallReverted = errors.New("execution reverted")
)

// Log is a raw event log as returned by eth_getLogs.
type Log struct {
	Address     string
	Topics      []string
	Data        string
	BlockNumber uint64
	TxHash      string
	LogIndex    uint64
	Removed     bool

	// Malformed is set when the node returned a position field that could not be parsed.
	Malformed bool
}

// LogFilter selects logs in an inclusive block range.
// Topics follow eth_getLogs semantics: position i matches any of Topics[i], nil matches all.
type LogFilter struct {
	FromBlock uint64
	ToBlock   uint64
	Addresses []string
	Topics    [][]string
}

// Adapter is the chain access the producers depend on.
type Adapter interface {
	// HeadBlock returns the current chain head
	HeadBlock(ctx context.Context) (*domain.BlockHeader, error)

	// BlockByNumber returns a block header, or ErrBlockNotFound
	BlockByNumber(ctx context.Context, number uint64) (*domain.BlockHeader, error)

	// GetLogs returns the logs matching the filter, in chain order
	GetLogs(ctx context.Context, filter LogFilter) ([]Log, error)

	// GetChainID returns the chain identifier
	GetChainID() domain.ChainID
}

// ContractCaller performs read-only contract calls.
type ContractCaller interface {
	// CallContract runs eth_call against the latest block and returns the hex result
	CallContract(ctx context.Context, to string, data string) (string, error)
}
