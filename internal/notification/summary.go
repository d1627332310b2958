package notification

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/vietddude/notifier/internal/core/domain"
)

// DefaultDecimals is assumed when a token's decimals cannot be resolved.
const DefaultDecimals = 18

// displayPrecision caps the fractional digits shown in summaries.
const displayPrecision = 6

// TokenLookup resolves token metadata. Implementations may fail; Summary degrades gracefully.
type TokenLookup interface {
	Get(ctx context.Context, chainID domain.ChainID, address string) (*domain.TokenInfo, error)
}

// Swap is the sell/buy pair a summary describes.
type Swap struct {
	SellToken  string
	BuyToken   string
	SellAmount *big.Int
	BuyAmount  *big.Int
}

// Summary returns e.g. "Sell 1 WETH for 2000 DAI".
func Summary(ctx context.Context, tokens TokenLookup, chainID domain.ChainID, swap Swap) string {
	sell := describe(ctx, tokens, chainID, swap.SellToken, swap.SellAmount)
	buy := describe(ctx, tokens, chainID, swap.BuyToken, swap.BuyAmount)
	return fmt.Sprintf("Sell %s for %s", sell, buy)
}

func describe(ctx context.Context, tokens TokenLookup, chainID domain.ChainID, address string, amount *big.Int) string {
	decimals := DefaultDecimals
	label := ShortAddress(address)

	if tokens != nil {
		if info, err := tokens.Get(ctx, chainID, address); err == nil && info != nil {
			if info.Decimals != nil {
				decimals = *info.Decimals
			}
			if info.Symbol != "" {
				label = info.Symbol
			}
		}
	}

	return FormatAmount(amount, decimals) + " " + label
}

// FormatAmount converts an integer token amount to a decimal string without trailing zeros.
func FormatAmount(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	d := decimal.NewFromBigInt(amount, -int32(decimals))
	return d.Truncate(displayPrecision).String()
}
