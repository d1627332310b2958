package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/vietddude/notifier/internal/core/domain"
	"github.com/vietddude/notifier/internal/infra/chain"
	"github.com/vietddude/notifier/internal/infra/rpc/provider"
)

// RPCClient is the JSON-RPC transport the adapter uses.
type RPCClient interface {
	CallFor(ctx context.Context, out any, method string, params ...any) error
}

type EVMAdapter struct {
	chainID domain.ChainID
	client  RPCClient
}

var (
	_ chain.Adapter        = (*EVMAdapter)(nil)
	_ chain.ContractCaller = (*EVMAdapter)(nil)
)

func NewEVMAdapter(chainID domain.ChainID, client RPCClient) *EVMAdapter {
	return &EVMAdapter{
		chainID: chainID,
		client:  client,
	}
}

func (a *EVMAdapter) GetChainID() domain.ChainID {
	return a.chainID
}

type rawHeader struct {
	Number    string `json:"number"`
	Hash      string `json:"hash"`
	Timestamp string `json:"timestamp"`
}

func (a *EVMAdapter) HeadBlock(ctx context.Context) (*domain.BlockHeader, error) {
	return a.getBlock(ctx, "latest")
}

func (a *EVMAdapter) BlockByNumber(ctx context.Context, number uint64) (*domain.BlockHeader, error) {
	return a.getBlock(ctx, toHex(number))
}

func (a *EVMAdapter) getBlock(ctx context.Context, tag string) (*domain.BlockHeader, error) {
	var raw *rawHeader
	if err := a.client.CallFor(ctx, &raw, "eth_getBlockByNumber", tag, false); err != nil {
		return nil, fmt.Errorf("eth_getBlockByNumber(%s) failed: %w", tag, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s", chain.ErrBlockNotFound, tag)
	}
	return parseHeader(raw)
}

func parseHeader(raw *rawHeader) (*domain.BlockHeader, error) {
	number, err := parseHexString(raw.Number)
	if err != nil {
		return nil, fmt.Errorf("invalid block number: %w", err)
	}
	timestamp, err := parseHexString(raw.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("invalid block timestamp: %w", err)
	}
	return &domain.BlockHeader{
		Number:    number,
		Hash:      raw.Hash,
		Timestamp: timestamp,
	}, nil
}

type rawLog struct {
	Address         string   `json:"address"`
	Topics          []string `json:"topics"`
	Data            string   `json:"data"`
	BlockNumber     string   `json:"blockNumber"`
	TransactionHash string   `json:"transactionHash"`
	LogIndex        string   `json:"logIndex"`
	Removed         bool     `json:"removed"`
}

type logQuery struct {
	FromBlock string     `json:"fromBlock"`
	ToBlock   string     `json:"toBlock"`
	Address   []string   `json:"address,omitempty"`
	Topics    [][]string `json:"topics,omitempty"`
}

func (a *EVMAdapter) GetLogs(ctx context.Context, filter chain.LogFilter) ([]chain.Log, error) {
	query := logQuery{
		FromBlock: toHex(filter.FromBlock),
		ToBlock:   toHex(filter.ToBlock),
		Address:   filter.Addresses,
		Topics:    filter.Topics,
	}

	var raws []rawLog
	if err := a.client.CallFor(ctx, &raws, "eth_getLogs", query); err != nil {
		return nil, fmt.Errorf("eth_getLogs [%d,%d] failed: %w", filter.FromBlock, filter.ToBlock, err)
	}

	logs := make([]chain.Log, 0, len(raws))
	for _, r := range raws {
		blockNumber, blockErr := parseHexString(r.BlockNumber)
		logIndex, indexErr := parseHexString(r.LogIndex)
		logs = append(logs, chain.Log{
			Address:     strings.ToLower(r.Address),
			Topics:      r.Topics,
			Data:        r.Data,
			BlockNumber: blockNumber,
			TxHash:      r.TransactionHash,
			LogIndex:    logIndex,
			Removed:     r.Removed,
			Malformed:   blockErr != nil || indexErr != nil,
		})
	}
	return logs, nil
}

type callMsg struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

func (a *EVMAdapter) CallContract(ctx context.Context, to string, data string) (string, error) {
	var result string
	if err := a.client.CallFor(ctx, &result, "eth_call", callMsg{To: to, Data: data}, "latest"); err != nil {
		if isRevert(err) {
			return "", fmt.Errorf("eth_call %s: %w: %v", to, chain.ErrCallReverted, err)
		}
		return "", fmt.Errorf("eth_call %s failed: %w", to, err)
	}
	return result, nil
}

// isRevert reports whether a JSON-RPC error says the call itself reverted, as opposed to a
// transport or node failure. Code 3 is the geth revert code.
func isRevert(err error) bool {
	var rpcErr *provider.RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	return rpcErr.Code == 3 || strings.Contains(strings.ToLower(rpcErr.Message), "revert")
}

func toHex(n uint64) string {
	return fmt.Sprintf("0x%x", n)
}

func parseHexString(hexStr string) (uint64, error) {
	n := new(big.Int)
	if _, ok := n.SetString(strings.TrimPrefix(hexStr, "0x"), 16); !ok {
		return 0, fmt.Errorf("invalid hex: %q", hexStr)
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("hex overflows uint64: %s", hexStr)
	}
	return n.Uint64(), nil
}
