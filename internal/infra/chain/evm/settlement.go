package evm

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/vietddude/notifier/internal/core/domain"
	"github.com/vietddude/notifier/internal/infra/chain"
)

// DefaultSettlementAddress is the settlement contract, deployed at the same address on every
// supported chain.
const DefaultSettlementAddress = "0x9008d19f58aabd9ed0d60971565aa8510560ab41"

// DefaultSentinelOwners are the ETH-flow contracts. Orders they own are placed on behalf of users.
var DefaultSentinelOwners = []string{
	"0x40a50cf069e992aa4536211b23f286ef88752187",
	"0x04501b9b1d52e67f6862d157e00d13419d2d6e95",
}

const wordSize = 32

var (
	TradeTopic            = EventTopic("Trade(address,address,address,uint256,uint256,uint256,bytes)")
	OrderInvalidatedTopic = EventTopic("OrderInvalidated(address,bytes)")
)

// EventTopic returns topic0 for an event signature.
func EventTopic(signature string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// PadAddress left-pads an address to a 32-byte topic. Input longer than a topic is returned
// lower-cased but unpadded.
func PadAddress(addr string) string {
	a := strings.ToLower(strings.TrimPrefix(addr, "0x"))
	return "0x" + strings.Repeat("0", max(0, 64-len(a))) + a
}

// SettlementFilter builds the eth_getLogs filter for trades and invalidations by owners.
func SettlementFilter(settlement string, owners []string, from, to uint64) chain.LogFilter {
	padded := make([]string, 0, len(owners))
	for _, o := range owners {
		padded = append(padded, PadAddress(o))
	}
	return chain.LogFilter{
		FromBlock: from,
		ToBlock:   to,
		Addresses: []string{strings.ToLower(settlement)},
		Topics: [][]string{
			{TradeTopic, OrderInvalidatedTopic},
			padded,
		},
	}
}

// DecodeSettlementLog decodes a Trade or OrderInvalidated log.
// Any missing or short field yields an error wrapping chain.ErrMalformedLog.
func DecodeSettlementLog(l chain.Log) (*domain.SettlementEvent, error) {
	if len(l.Topics) < 2 {
		return nil, fmt.Errorf("%w: expected 2 topics, got %d", chain.ErrMalformedLog, len(l.Topics))
	}
	if l.TxHash == "" {
		return nil, fmt.Errorf("%w: missing transaction hash", chain.ErrMalformedLog)
	}
	if l.Malformed {
		return nil, fmt.Errorf("%w: unparseable block number or log index", chain.ErrMalformedLog)
	}

	owner, err := topicAddress(l.Topics[1])
	if err != nil {
		return nil, err
	}
	data, err := decodeHex(l.Data)
	if err != nil {
		return nil, err
	}

	ev := &domain.SettlementEvent{
		Owner:       owner,
		BlockNumber: l.BlockNumber,
		TxHash:      strings.ToLower(l.TxHash),
		LogIndex:    l.LogIndex,
	}

	switch strings.ToLower(l.Topics[0]) {
	case TradeTopic:
		// sellToken, buyToken, sellAmount, buyAmount, feeAmount, offset(orderUid)
		if len(data) < 6*wordSize {
			return nil, fmt.Errorf("%w: trade data too short (%d bytes)", chain.ErrMalformedLog, len(data))
		}
		ev.Kind = domain.SettlementEventTrade
		ev.SellToken = wordAddress(data, 0)
		ev.BuyToken = wordAddress(data, 1)
		ev.SellAmount = wordInt(data, 2)
		ev.BuyAmount = wordInt(data, 3)
		ev.FeeAmount = wordInt(data, 4)
		ev.OrderUID, err = dynamicBytes(data, 5)
	case OrderInvalidatedTopic:
		if len(data) < wordSize {
			return nil, fmt.Errorf("%w: invalidation data too short (%d bytes)", chain.ErrMalformedLog, len(data))
		}
		ev.Kind = domain.SettlementEventOrderInvalidated
		ev.OrderUID, err = dynamicBytes(data, 0)
	default:
		return nil, fmt.Errorf("%w: unknown topic %s", chain.ErrMalformedLog, l.Topics[0])
	}
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func decodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hex data: %v", chain.ErrMalformedLog, err)
	}
	return b, nil
}

func topicAddress(topic string) (string, error) {
	b, err := decodeHex(topic)
	if err != nil {
		return "", err
	}
	if len(b) != wordSize {
		return "", fmt.Errorf("%w: topic is %d bytes", chain.ErrMalformedLog, len(b))
	}
	return "0x" + hex.EncodeToString(b[12:]), nil
}

func word(data []byte, i int) []byte {
	return data[i*wordSize : (i+1)*wordSize]
}

func wordAddress(data []byte, i int) string {
	return "0x" + hex.EncodeToString(word(data, i)[12:])
}

func wordInt(data []byte, i int) *big.Int {
	return new(big.Int).SetBytes(word(data, i))
}

// dynamicBytes reads an ABI `bytes` value whose offset is stored in head word i.
func dynamicBytes(data []byte, i int) (string, error) {
	offset := wordInt(data, i)
	if !offset.IsUint64() || offset.Uint64() > uint64(len(data))-wordSize {
		return "", fmt.Errorf("%w: bytes offset out of range", chain.ErrMalformedLog)
	}
	start := offset.Uint64()
	length := new(big.Int).SetBytes(data[start : start+wordSize])
	remaining := uint64(len(data)) - start - wordSize
	if !length.IsUint64() || length.Uint64() > remaining {
		return "", fmt.Errorf("%w: bytes length out of range", chain.ErrMalformedLog)
	}
	end := start + wordSize + length.Uint64()
	return "0x" + hex.EncodeToString(data[start+wordSize:end]), nil
}
