package rpc

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/vietddude/notifier/internal/core/domain"
	"github.com/vietddude/notifier/internal/infra/rpc/routing"
)

// Client is the high-level interface for making RPC calls on one chain.
// This is what application layers should use.
type Client struct {
	chainID domain.ChainID
	router  routing.Router
	retry   routing.RetryConfig
}

// NewClient creates a new RPC client.
func NewClient(chainID domain.ChainID, router routing.Router) *Client {
	return &Client{
		chainID: chainID,
		router:  router,
		retry:   routing.DefaultRetryConfig,
	}
}

// WithRetry returns a copy of the client using the given retry settings.
func (c *Client) WithRetry(cfg routing.RetryConfig) *Client {
	cp := *c
	cp.retry = cfg
	return &cp
}

// ChainID returns the chain this client talks to.
func (c *Client) ChainID() domain.ChainID {
	return c.chainID
}

// Call makes an RPC call with automatic retry and failover and returns the raw result.
func (c *Client) Call(ctx context.Context, method string, params ...any) ([]byte, error) {
	return routing.CallWithRetryAndFailover(ctx, c.router, c.chainID, method, params, c.retry)
}

// CallFor makes an RPC call and decodes the result into out.
func (c *Client) CallFor(ctx context.Context, out any, method string, params ...any) error {
	raw, err := c.Call(ctx, method, params...)
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}
