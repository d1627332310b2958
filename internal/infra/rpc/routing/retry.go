package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/vietddude/notifier/internal/core/domain"
	"github.com/vietddude/notifier/internal/infra/rpc/provider"
	"github.com/vietddude/notifier/internal/metrics"
)

// RetryConfig defines retry behavior.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:  3,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     10 * time.Second,
}

// ErrorAction determines how to handle an error.
type ErrorAction int

const (
	ActionRetry ErrorAction = iota
	ActionFailover
	ActionFatal
)

func (a ErrorAction) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionFailover:
		return "failover"
	case ActionFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ClassifyError determines the action for a given error.
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionRetry // Should not happen
	}

	if errors.Is(err, provider.ErrRateLimited) || errors.Is(err, provider.ErrBlocked) {
		return ActionFailover
	}

	var rpcErr *provider.RPCError
	if errors.As(err, &rpcErr) {
		// -32700: Parse error, -32600: Invalid Request, -32601: Method not found, -32602: Invalid params
		switch rpcErr.Code {
		case -32700, -32600, -32601, -32602:
			return ActionFatal
		case 3: // execution reverted; every provider would answer the same
			return ActionFatal
		}
	}

	s := err.Error()
	sLower := strings.ToLower(s)

	if strings.Contains(s, "-32700") || strings.Contains(s, "-32600") ||
		strings.Contains(s, "-32601") || strings.Contains(s, "-32602") {
		return ActionFatal
	}

	// Failover (Provider specific issues)
	if strings.Contains(s, "429") || strings.Contains(sLower, "too many requests") ||
		strings.Contains(s, "403") || strings.Contains(sLower, "forbidden") ||
		strings.Contains(sLower, "quota") || strings.Contains(sLower, "plan limit") ||
		strings.Contains(sLower, "unauthorized") ||
		strings.Contains(sLower, "rate limit") ||
		strings.Contains(sLower, "count exceeded") {
		return ActionFailover
	}

	// Default to Retry (Network, 5xx, etc)
	return ActionRetry
}

func newBackoff(config RetryConfig) retry.Backoff {
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	b := retry.NewExponential(config.InitialDelay)
	b = retry.WithCappedDuration(config.MaxDelay, b)
	return retry.WithMaxRetries(uint64(attempts-1), b)
}

// CallWithRetry executes an RPC call with exponential backoff.
// Only errors classified as ActionRetry are retried on the same provider.
func CallWithRetry(
	ctx context.Context,
	p provider.Provider,
	method string,
	params []any,
	config RetryConfig,
) ([]byte, error) {
	var result []byte
	err := retry.Do(ctx, newBackoff(config), func(ctx context.Context) error {
		res, err := p.Call(ctx, method, params)
		if err == nil {
			result = res
			return nil
		}
		if ClassifyError(err) == ActionRetry {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CallWithRetryAndFailover tries multiple providers with retry.
func CallWithRetryAndFailover(
	ctx context.Context,
	router Router,
	chainID domain.ChainID,
	method string,
	params []any,
	config RetryConfig,
) ([]byte, error) {
	providers := router.GetAllProviders(chainID)
	if len(providers) == 0 {
		return nil, fmt.Errorf("no providers for chain %s", chainID)
	}

	var lastErr error
	for _, p := range providers {
		start := time.Now()
		metrics.RPCCallsTotal.WithLabelValues(string(chainID), p.GetName(), method).Inc()
		result, err := CallWithRetry(ctx, p, method, params, config)
		latency := time.Since(start)
		metrics.RPCLatency.WithLabelValues(string(chainID), p.GetName(), method).Observe(latency.Seconds())
		if err == nil {
			router.RecordSuccess(p.GetName(), latency)
			return result, nil
		}

		lastErr = err
		action := ClassifyError(err)
		metrics.RPCErrorsTotal.WithLabelValues(string(chainID), p.GetName(), action.String()).Inc()
		router.RecordFailure(p.GetName(), err)

		if action == ActionFatal {
			return nil, fmt.Errorf("fatal error from provider %s: %w", p.GetName(), err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("all providers failed: %w", lastErr)
}
