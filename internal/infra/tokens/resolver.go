// Package tokens resolves ERC-20 metadata (symbol, decimals) for notification text.
//
// Lookups go through an in-process map, then an optional shared cache (Redis), then eth_call.
// Concurrent lookups for the same token share one RPC round trip.
package tokens

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/vietddude/notifier/internal/core/domain"
	"github.com/vietddude/notifier/internal/infra/chain"
)

const (
	selectorDecimals = "0x313ce567"
	selectorSymbol   = "0x95d89b41"
)

// Lookup resolves token metadata.
type Lookup interface {
	Get(ctx context.Context, chainID domain.ChainID, address string) (*domain.TokenInfo, error)
}

// Cache is a shared metadata cache, e.g. redis.TokenCache.
type Cache interface {
	Get(ctx context.Context, chainID domain.ChainID, address string) (*domain.TokenInfo, error)
	Set(ctx context.Context, chainID domain.ChainID, info *domain.TokenInfo) error
}

// Resolver implements Lookup on top of eth_call.
type Resolver struct {
	cache   Cache
	mu      sync.RWMutex
	callers map[domain.ChainID]chain.ContractCaller
	local   map[string]*domain.TokenInfo
	group   singleflight.Group
	log     *slog.Logger
}

var _ Lookup = (*Resolver)(nil)

// NewResolver creates a resolver. cache may be nil.
func NewResolver(cache Cache) *Resolver {
	return &Resolver{
		cache:   cache,
		callers: make(map[domain.ChainID]chain.ContractCaller),
		local:   make(map[string]*domain.TokenInfo),
		log:     slog.Default().With("component", "tokens"),
	}
}

// AddChain registers the contract caller for a chain.
func (r *Resolver) AddChain(chainID domain.ChainID, caller chain.ContractCaller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callers[chainID] = caller
}

// Get returns metadata for a token. Fields that cannot be read are left empty.
func (r *Resolver) Get(ctx context.Context, chainID domain.ChainID, address string) (*domain.TokenInfo, error) {
	address = strings.ToLower(address)
	key := string(chainID) + ":" + address

	r.mu.RLock()
	info, ok := r.local[key]
	caller := r.callers[chainID]
	r.mu.RUnlock()
	if ok {
		return info, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		if r.cache != nil {
			if cached, err := r.cache.Get(ctx, chainID, address); err == nil {
				return cached, nil
			}
		}
		if caller == nil {
			return nil, fmt.Errorf("no contract caller for chain %s", chainID)
		}

		fetched, err := fetch(ctx, caller, address)
		if err != nil {
			return nil, err
		}
		if r.cache != nil {
			if err := r.cache.Set(ctx, chainID, fetched); err != nil {
				r.log.Warn("failed to cache token", "chain", chainID, "token", address, "error", err)
			}
		}
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}

	info = v.(*domain.TokenInfo)
	r.mu.Lock()
	r.local[key] = info
	r.mu.Unlock()
	return info, nil
}

// fetch reads decimals and symbol. A field whose call reverted or returned garbage is left
// empty, since retrying cannot change it. Any other failure (timeouts, node errors) fails the
// whole lookup so a partial result is never cached.
func fetch(ctx context.Context, caller chain.ContractCaller, address string) (*domain.TokenInfo, error) {
	info := &domain.TokenInfo{Address: address}

	decRaw, decErr := caller.CallContract(ctx, address, selectorDecimals)
	if decErr == nil {
		d, err := decodeUint8(decRaw)
		if err == nil {
			info.Decimals = &d
		}
		decErr = asUnreadable(err)
	}

	symRaw, symErr := caller.CallContract(ctx, address, selectorSymbol)
	if symErr == nil {
		var err error
		info.Symbol, err = decodeString(symRaw)
		symErr = asUnreadable(err)
	}

	if transient := errors.Join(transientErr(decErr), transientErr(symErr)); transient != nil {
		return nil, fmt.Errorf("failed to resolve token %s: %w", address, transient)
	}
	if decErr != nil && symErr != nil {
		return nil, fmt.Errorf("failed to resolve token %s: %w", address, errors.Join(decErr, symErr))
	}
	return info, nil
}

// errUnreadable marks a call that succeeded but whose result could not be decoded.
var errUnreadable = errors.New("unreadable result")

func asUnreadable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", errUnreadable, err)
}

// transientErr returns err unless it is a definite answer from the contract.
func transientErr(err error) error {
	if err == nil || errors.Is(err, chain.ErrCallReverted) || errors.Is(err, errUnreadable) {
		return nil
	}
	return err
}

func decodeUint8(raw string) (int, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(raw, "0x"))
	if err != nil || len(b) < 32 {
		return 0, fmt.Errorf("invalid decimals result %q", raw)
	}
	n := new(big.Int).SetBytes(b[:32])
	if !n.IsInt64() || n.Int64() > 255 {
		return 0, fmt.Errorf("decimals out of range: %s", n)
	}
	return int(n.Int64()), nil
}

// decodeString reads an ABI string, falling back to a NUL-padded bytes32 for older tokens.
func decodeString(raw string) (string, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(raw, "0x"))
	if err != nil {
		return "", fmt.Errorf("invalid symbol result: %w", err)
	}
	switch {
	case len(b) == 32:
		return strings.TrimRight(string(b), "\x00"), nil
	case len(b) >= 64:
		offset := new(big.Int).SetBytes(b[:32])
		if !offset.IsUint64() || offset.Uint64() > uint64(len(b))-32 {
			return "", errors.New("symbol offset out of range")
		}
		start := offset.Uint64()
		length := new(big.Int).SetBytes(b[start : start+32])
		if !length.IsUint64() || length.Uint64() > uint64(len(b))-start-32 {
			return "", errors.New("symbol length out of range")
		}
		return string(b[start+32 : start+32+length.Uint64()]), nil
	default:
		return "", fmt.Errorf("unexpected symbol result length %d", len(b))
	}
}
