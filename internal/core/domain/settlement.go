package domain

import "math/big"

type SettlementEventKind string

const (
	SettlementEventTrade            SettlementEventKind = "Trade"
	SettlementEventOrderInvalidated SettlementEventKind = "OrderInvalidated"
)

// SettlementEvent is a decoded settlement contract log.
// Token and amount fields are only set for trades.
type SettlementEvent struct {
	Kind        SettlementEventKind
	Owner       string
	OrderUID    string
	SellToken   string
	BuyToken    string
	SellAmount  *big.Int
	BuyAmount   *big.Int
	FeeAmount   *big.Int
	BlockNumber uint64
	TxHash      string
	LogIndex    uint64
}
