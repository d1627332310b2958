package notification

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/vietddude/notifier/internal/core/domain"
)

type stubTokens map[string]*domain.TokenInfo

func (s stubTokens) Get(ctx context.Context, chainID domain.ChainID, address string) (*domain.TokenInfo, error) {
	if info, ok := s[address]; ok {
		return info, nil
	}
	return nil, errors.New("unknown token")
}

func intPtr(n int) *int { return &n }

func pow10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}

func TestIDs(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{TradeID("0xabc", 0), "Trade-0xabc-0"},
		{OrderInvalidatedID("0xabc", 12), "OrderInvalidated-0xabc-12"},
		{OrderExpiredID(1500, 1000), "OrderExpired-1500-1000"},
		{FeedID(42), "42"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}

	// Same input, same id
	if TradeID("0xabc", 3) != TradeID("0xabc", 3) {
		t.Error("ids must be deterministic")
	}
}

func TestSummary(t *testing.T) {
	tokens := stubTokens{
		"0xweth": {Symbol: "WETH", Decimals: intPtr(18)},
		"0xdai":  {Symbol: "DAI", Decimals: intPtr(18)},
		"0xusdc": {Symbol: "USDC", Decimals: intPtr(6)},
	}

	tests := []struct {
		name string
		swap Swap
		want string
	}{
		{
			name: "whole amounts",
			swap: Swap{SellToken: "0xweth", BuyToken: "0xdai", SellAmount: pow10(18), BuyAmount: new(big.Int).Mul(big.NewInt(2000), pow10(18))},
			want: "Sell 1 WETH for 2000 DAI",
		},
		{
			name: "fractional amounts",
			swap: Swap{SellToken: "0xusdc", BuyToken: "0xweth", SellAmount: big.NewInt(1_500_000), BuyAmount: new(big.Int).Div(pow10(18), big.NewInt(4))},
			want: "Sell 1.5 USDC for 0.25 WETH",
		},
		{
			name: "unknown token falls back to address and 18 decimals",
			swap: Swap{SellToken: "0x1234567890abcdef1234567890abcdef12345678", BuyToken: "0xdai", SellAmount: pow10(18), BuyAmount: pow10(18)},
			want: "Sell 1 0x1234…5678 for 1 DAI",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summary(context.Background(), tokens, domain.ChainIDMainnet, tt.swap)
			if got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount   *big.Int
		decimals int
		want     string
	}{
		{big.NewInt(0), 18, "0"},
		{nil, 18, "0"},
		{big.NewInt(123), 0, "123"},
		{big.NewInt(1), 18, "0"},
		{big.NewInt(1_234_567), 6, "1.234567"},
		{big.NewInt(1_000_000_000_000), 18, "0.000001"},
	}
	for _, tt := range tests {
		if got := FormatAmount(tt.amount, tt.decimals); got != tt.want {
			t.Errorf("FormatAmount(%v, %d) = %q, want %q", tt.amount, tt.decimals, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	data := map[string]any{
		"name":   "Alice",
		"amount": float64(2000),
		"ratio":  0.5,
		"order":  map[string]any{"uid": "0xdead"},
	}

	tests := []struct {
		template string
		want     string
	}{
		{"Hello {{name}}", "Hello Alice"},
		{"Hello {{ name }}", "Hello Alice"},
		{"{{amount}} at {{ratio}}", "2000 at 0.5"},
		{"Order {{order.uid}}", "Order 0xdead"},
		{"Missing {{nope}}", "Missing {{nope}}"},
		{"No placeholders", "No placeholders"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Render(tt.template, data); got != tt.want {
			t.Errorf("Render(%q) = %q, want %q", tt.template, got, tt.want)
		}
	}
}

func TestFlatten(t *testing.T) {
	got := Flatten(map[string]any{"a": "x", "b": map[string]any{"c": float64(1)}})
	if got["a"] != "x" || got["b.c"] != "1" || len(got) != 2 {
		t.Errorf("unexpected flatten result %v", got)
	}
}

func TestFlatten_LargeNumbers(t *testing.T) {
	got := Flatten(map[string]any{
		"big":      float64(1e20),
		"max":      float64(1 << 63),
		"negative": float64(-3),
		"fraction": 0.25,
	})
	want := map[string]string{
		"big":      "100000000000000000000",
		"max":      "9223372036854775808",
		"negative": "-3",
		"fraction": "0.25",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Flatten()[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestIsSentinel(t *testing.T) {
	sentinels := []string{"0x40A50cf069e992AA4536211B23F286eF88752187"}
	if !IsSentinel("0x40a50cf069e992aa4536211b23f286ef88752187", sentinels) {
		t.Error("expected case-insensitive match")
	}
	if IsSentinel("0x01", sentinels) {
		t.Error("unexpected match")
	}
}
