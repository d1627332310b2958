// Package notification builds user-facing notification content.
//
// # Identifiers
//
// Every notification id is derived from its source event so that re-sending the same event
// produces the same id. Downstream consumers deduplicate on id alone:
//
//	Trade-<txHash>-<logIndex>
//	OrderInvalidated-<txHash>-<logIndex>
//	OrderExpired-<validTo>-<lastCheckTimestamp>
//	<feed item id>
//
// # Text
//
// Summary formats a sell/buy pair with token symbols and human amounts. Render fills
// {{placeholders}} in feed templates.
package notification

import (
	"strconv"
	"strings"
)

// ZeroAddress is the account used for orders owned by sentinel contracts.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// TradeID returns the id of a trade notification.
func TradeID(txHash string, logIndex uint64) string {
	return "Trade-" + txHash + "-" + strconv.FormatUint(logIndex, 10)
}

// OrderInvalidatedID returns the id of an order-invalidation notification.
func OrderInvalidatedID(txHash string, logIndex uint64) string {
	return "OrderInvalidated-" + txHash + "-" + strconv.FormatUint(logIndex, 10)
}

// OrderExpiredID returns the id of an order-expiry notification.
// Orders of one window that share validTo share the id.
func OrderExpiredID(validTo, lastCheck int64) string {
	return "OrderExpired-" + strconv.FormatInt(validTo, 10) + "-" + strconv.FormatInt(lastCheck, 10)
}

// FeedID returns the id of a feed notification.
func FeedID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// AccountLine is appended to messages so the recipient can tell wallets apart.
func AccountLine(account string) string {
	return "Account: " + account
}

// ShortAddress abbreviates an address as 0x1234…abcd.
func ShortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

// IsSentinel reports whether owner is one of the sentinel addresses.
func IsSentinel(owner string, sentinels []string) bool {
	for _, s := range sentinels {
		if strings.EqualFold(owner, s) {
			return true
		}
	}
	return false
}
