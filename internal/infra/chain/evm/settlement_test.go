package evm

import (
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/vietddude/notifier/internal/core/domain"
	"github.com/vietddude/notifier/internal/infra/chain"
)

const (
	owner = "0x00000000000000000000000000000000000000a1"
	weth  = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
	dai   = "0x6b175474e89094c44da98b954eedeac495271d0f"
)

func encWord(b []byte) string {
	return strings.Repeat("00", 32-len(b)) + hex.EncodeToString(b)
}

func encAddress(a string) string {
	b, _ := hex.DecodeString(strings.TrimPrefix(a, "0x"))
	return encWord(b)
}

func encInt(n *big.Int) string { return encWord(n.Bytes()) }

func encBytes(b []byte) string {
	padded := make([]byte, (len(b)+31)/32*32)
	copy(padded, b)
	return encInt(big.NewInt(int64(len(b)))) + hex.EncodeToString(padded)
}

func tradeData(sell, buy string, sellAmt, buyAmt, fee *big.Int, uid []byte) string {
	return "0x" + encAddress(sell) + encAddress(buy) + encInt(sellAmt) + encInt(buyAmt) + encInt(fee) +
		encInt(big.NewInt(6*32)) + encBytes(uid)
}

func TestEventTopics(t *testing.T) {
	// ERC-20 Transfer, a well-known keccak256 topic
	transfer := EventTopic("Transfer(address,address,uint256)")
	if transfer != "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef" {
		t.Errorf("unexpected Transfer topic %s", transfer)
	}
	if len(TradeTopic) != 66 || len(OrderInvalidatedTopic) != 66 || TradeTopic == OrderInvalidatedTopic {
		t.Errorf("unexpected settlement topics %s %s", TradeTopic, OrderInvalidatedTopic)
	}
}

func TestDecodeSettlementLog_Trade(t *testing.T) {
	oneEth := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	buyAmt := new(big.Int).Mul(big.NewInt(2000), oneEth)
	uid := []byte{0xde, 0xad, 0xbe, 0xef}

	ev, err := DecodeSettlementLog(chain.Log{
		Topics:      []string{TradeTopic, PadAddress(owner)},
		Data:        tradeData(weth, dai, oneEth, buyAmt, big.NewInt(5), uid),
		BlockNumber: 10,
		TxHash:      "0xABC",
		LogIndex:    0,
	})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if ev.Kind != domain.SettlementEventTrade {
		t.Errorf("expected Trade, got %s", ev.Kind)
	}
	if ev.Owner != owner || ev.SellToken != weth || ev.BuyToken != dai {
		t.Errorf("unexpected addresses: %+v", ev)
	}
	if ev.SellAmount.Cmp(oneEth) != 0 || ev.BuyAmount.Cmp(buyAmt) != 0 || ev.FeeAmount.Int64() != 5 {
		t.Errorf("unexpected amounts: %s %s %s", ev.SellAmount, ev.BuyAmount, ev.FeeAmount)
	}
	if ev.OrderUID != "0xdeadbeef" {
		t.Errorf("unexpected uid %s", ev.OrderUID)
	}
	if ev.TxHash != "0xabc" {
		t.Errorf("expected lower-cased tx hash, got %s", ev.TxHash)
	}
}

func TestDecodeSettlementLog_OrderInvalidated(t *testing.T) {
	ev, err := DecodeSettlementLog(chain.Log{
		Topics:   []string{OrderInvalidatedTopic, PadAddress(owner)},
		Data:     "0x" + encInt(big.NewInt(32)) + encBytes([]byte{0x01, 0x02}),
		TxHash:   "0xdef",
		LogIndex: 7,
	})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if ev.Kind != domain.SettlementEventOrderInvalidated || ev.OrderUID != "0x0102" || ev.LogIndex != 7 {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestDecodeSettlementLog_Malformed(t *testing.T) {
	valid := tradeData(weth, dai, big.NewInt(1), big.NewInt(1), big.NewInt(0), []byte{1})

	tests := []struct {
		name string
		log  chain.Log
	}{
		{"missing owner topic", chain.Log{Topics: []string{TradeTopic}, Data: valid, TxHash: "0x1"}},
		{"missing tx hash", chain.Log{Topics: []string{TradeTopic, PadAddress(owner)}, Data: valid}},
		{"bad log index", chain.Log{Topics: []string{TradeTopic, PadAddress(owner)}, Data: valid, TxHash: "0x1", Malformed: true}},
		{"short data", chain.Log{Topics: []string{TradeTopic, PadAddress(owner)}, Data: "0x" + encInt(big.NewInt(1)), TxHash: "0x1"}},
		{"bad hex", chain.Log{Topics: []string{TradeTopic, PadAddress(owner)}, Data: "0xzz", TxHash: "0x1"}},
		{"unknown topic", chain.Log{Topics: []string{"0x01", PadAddress(owner)}, Data: valid, TxHash: "0x1"}},
		{"bytes offset out of range", chain.Log{Topics: []string{OrderInvalidatedTopic, PadAddress(owner)}, Data: "0x" + encInt(big.NewInt(4096)), TxHash: "0x1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSettlementLog(tt.log)
			if !errors.Is(err, chain.ErrMalformedLog) {
				t.Errorf("expected ErrMalformedLog, got %v", err)
			}
		})
	}
}

func TestPadAddress(t *testing.T) {
	got := PadAddress("0xAbC")
	if len(got) != 66 || !strings.HasSuffix(got, "abc") {
		t.Errorf("unexpected padded address %s", got)
	}

	oversized := "0x" + strings.Repeat("ab", 40)
	if got := PadAddress(oversized); got != oversized {
		t.Errorf("oversized input should pass through, got %s", got)
	}
}
