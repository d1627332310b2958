// Package subscription provides the subscribed-account snapshot producers filter on.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/vietddude/notifier/internal/core/domain"
)

// Source lists accounts that opted in to notifications.
type Source interface {
	SubscribedAccounts(ctx context.Context) ([]string, error)
}

// Set is a case-insensitive account set read once per cycle.
// It is not safe for concurrent mutation; each producer loop owns its own.
type Set struct {
	addresses map[string]struct{}
}

// NewSet creates a set from addresses.
func NewSet(addresses ...string) *Set {
	s := &Set{addresses: make(map[string]struct{}, len(addresses))}
	s.AddBatch(addresses)
	return s
}

// Load reads the current subscriptions from source.
func Load(ctx context.Context, source Source) (*Set, error) {
	accounts, err := source.SubscribedAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscribed accounts: %w", err)
	}
	return NewSet(accounts...), nil
}

// Contains checks if an address is tracked.
func (s *Set) Contains(address string) bool {
	_, exists := s.addresses[strings.ToLower(address)]
	return exists
}

// AddBatch adds multiple addresses. Entries that are not 20-byte hex addresses are logged
// and dropped so they never reach a log filter.
func (s *Set) AddBatch(addresses []string) {
	for _, addr := range addresses {
		if addr == "" {
			continue
		}
		if !domain.IsAddress(addr) {
			slog.Warn("Dropping invalid subscribed address", "address", addr)
			continue
		}
		s.addresses[strings.ToLower(addr)] = struct{}{}
	}
}

// Size returns the number of tracked addresses.
func (s *Set) Size() int {
	return len(s.addresses)
}

// Addresses returns all tracked addresses, sorted.
func (s *Set) Addresses() []string {
	result := make([]string, 0, len(s.addresses))
	for addr := range s.addresses {
		result = append(result, addr)
	}
	slices.Sort(result)
	return result
}
