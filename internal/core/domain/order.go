package domain

import "math/big"

// Order is an orderbook entry, as needed to report expiries.
type Order struct {
	UID        string
	Owner      string
	ChainID    ChainID
	ValidTo    int64
	SellToken  string
	BuyToken   string
	SellAmount *big.Int
	BuyAmount  *big.Int
}
