// Package store implements the Core's Redis-backed job progress store and
// work queue (spec §6): durable progress tracking with a 24h retention
// window, and a reliable enqueue/dequeue/ack/fail queue for async jobs.
package store

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"
)

// Client wraps a go-redis client with lazy connection checking, so
// constructing a Client never blocks and callers discover Redis
// unavailability on first use rather than at startup. The first successful
// ping is cached in an atomic flag; no lock is held, so concurrent first
// calls may each ping.
type Client struct {
	rdb       *redis.Client
	log       logr.Logger
	connected atomic.Bool
}

// NewClient builds a Client without connecting.
func NewClient(opts *redis.Options, log logr.Logger) *Client {
	return &Client{rdb: redis.NewClient(opts), log: log}
}

// EnsureConnection verifies connectivity, caching success so repeat calls
// after the first take the atomic fast path.
func (c *Client) EnsureConnection(ctx context.Context) error {
	if c.connected.Load() {
		return nil
	}
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis unavailable: %w", err)
	}
	c.connected.Store(true)
	return nil
}

// GetClient returns the underlying go-redis client for callers that need
// direct access (e.g. pipelines).
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	c.connected.Store(false)
	return c.rdb.Close()
}
