// Package rpc provides a resilient JSON-RPC client for EVM networks.
//
// This package offers:
//   - Multiple provider support per chain with ordered failover
//   - Per-provider client-side rate limiting
//   - Exponential retry for transient errors (sethvargo/go-retry)
//   - A circuit breaker that moves misbehaving providers to the back
//
// # Quick Start
//
//	router := rpc.NewRouter()
//	router.AddProvider(domain.ChainIDMainnet, rpc.NewHTTPProvider("alchemy", alchemyURL, 30*time.Second))
//	router.AddProvider(domain.ChainIDMainnet, rpc.NewHTTPProvider("infura", infuraURL, 30*time.Second))
//
//	client := rpc.NewClient(domain.ChainIDMainnet, router)
//
//	var head string
//	err := client.CallFor(ctx, &head, "eth_blockNumber")
//
// # Package Structure
//
//   - provider/ - HTTP JSON-RPC provider
//   - routing/  - Provider ordering, circuit breaker, retry logic
package rpc

import (
	"time"

	"github.com/vietddude/notifier/internal/infra/rpc/provider"
	"github.com/vietddude/notifier/internal/infra/rpc/routing"
)

// =============================================================================
// Re-exported types
// =============================================================================

// Provider is the core interface for RPC endpoints.
type Provider = provider.Provider

// Router handles provider selection and health tracking.
type Router = routing.Router

// RetryConfig defines retry behavior.
type RetryConfig = routing.RetryConfig

// NewHTTPProvider creates a new HTTP-based RPC provider.
func NewHTTPProvider(name, endpoint string, timeout time.Duration, opts ...provider.HTTPOption) *provider.HTTPProvider {
	return provider.NewHTTPProvider(name, endpoint, timeout, opts...)
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64, burst int) provider.HTTPOption {
	return provider.WithRateLimit(rps, burst)
}

// NewRouter creates a new router with circuit breaking.
func NewRouter() *routing.DefaultRouter {
	return routing.NewRouter()
}
