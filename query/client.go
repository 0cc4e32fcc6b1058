package query

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/courseops/cache"
	"github.com/jonwraymond/courseops/observe"
	"github.com/jonwraymond/courseops/resilience"
)

// Client runs queries against one cache store.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Context: fetches run detached from the caller's cancellation; a caller
//   that stops waiting never cancels the request.
// - Ordering: at most one fetch per key is in flight.
type Client struct {
	store   *cache.Store
	flight  singleflight.Group
	retry   resilience.RetryConfig
	mw      *observe.Middleware
	unwatch func()
}

// Option configures a Client.
type Option func(*Client)

// WithRetry sets the default retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithMiddleware sets the middleware wrapping every fetch attempt.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(c *Client) {
		if mw != nil {
			c.mw = mw
		}
	}
}

// NewClient creates a client for store. The default retry policy is
// resilience.QueryRetryConfig.
func NewClient(store *cache.Store, opts ...Option) *Client {
	c := &Client{
		store: store,
		retry: resilience.QueryRetryConfig(),
		mw:    observe.NopMiddleware(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.unwatch = store.Watch(c.forget)
	return c
}

// forget detaches invalidated or dropped keys from their in-flight fetch so
// the next query starts a new request.
func (c *Client) forget(e cache.Event) {
	switch e.Type {
	case cache.EventInvalidated, cache.EventRemoved, cache.EventEvicted:
		c.flight.Forget(e.Key.String())
	}
}

// Store returns the underlying cache store.
func (c *Client) Store() *cache.Store {
	return c.store
}

// Invalidate marks entries under prefix stale. Observers of those keys
// refetch.
func (c *Client) Invalidate(ctx context.Context, prefix cache.Key) int {
	return c.store.Invalidate(ctx, prefix)
}

// Remove deletes entries under prefix.
func (c *Client) Remove(ctx context.Context, prefix cache.Key) int {
	return c.store.Remove(ctx, prefix)
}

// SetData writes value to key as if it had just been fetched.
func (c *Client) SetData(ctx context.Context, key cache.Key, value any) error {
	return c.store.Set(ctx, key, value)
}

// Close stops tracking store events.
func (c *Client) Close() {
	c.unwatch()
}

func (c *Client) staleTime(override *time.Duration) time.Duration {
	return c.store.Policy().EffectiveStaleTime(override)
}

func (c *Client) retryConfig(override *resilience.RetryConfig) resilience.RetryConfig {
	if override != nil {
		return *override
	}
	return c.retry
}

// start joins the fetch in flight for d's key or starts one. The returned
// channel yields the fetched value or the final error.
func start[T any](ctx context.Context, c *Client, d Descriptor[T]) <-chan singleflight.Result {
	fctx := context.WithoutCancel(ctx)
	return c.flight.DoChan(d.Key.String(), func() (any, error) {
		return run(fctx, c, d)
	})
}

func run[T any](ctx context.Context, c *Client, d Descriptor[T]) (any, error) {
	if d.Fetch == nil {
		return nil, ErrNoFetch
	}
	seq, err := c.store.BeginFetch(ctx, d.Key)
	if err != nil {
		return nil, err
	}

	meta := d.meta()
	logger := c.mw.Logger().WithOp(meta)
	cfg := c.retryConfig(d.Retry)
	if cfg.OnRetry == nil {
		cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
			logger.Debug(ctx, "retrying query",
				observe.Field{Key: "attempt", Value: attempt},
				observe.Field{Key: "delay_ms", Value: delay.Milliseconds()},
				observe.Field{Key: "error", Value: err},
			)
		}
	}

	var value T
	err = resilience.NewRetry(cfg).Execute(ctx, func(ctx context.Context) error {
		return c.mw.Run(ctx, meta, func(ctx context.Context) error {
			v, err := d.Fetch(ctx)
			if err != nil {
				return err
			}
			value = v
			return nil
		})
	})
	if err != nil {
		c.store.FailFetch(ctx, d.Key, seq, err)
		logger.Warn(ctx, "query failed", observe.Field{Key: "error", Value: err})
		return nil, err
	}

	if !c.store.CompleteFetch(ctx, d.Key, seq, value) {
		logger.Debug(ctx, "query result superseded")
	}
	return value, nil
}
