package mutation

import (
	"context"
	"errors"
	"time"

	"github.com/jonwraymond/courseops/cache"
	"github.com/jonwraymond/courseops/observe"
	"github.com/jonwraymond/courseops/resilience"
)

// ErrNoMutate is returned when a descriptor has no mutate function.
var ErrNoMutate = errors.New("mutation: descriptor has no mutate function")

// Descriptor declares one remote write.
type Descriptor[In, Out any] struct {
	// Name labels spans, metrics and logs, e.g. "course.create".
	Name string

	Mutate func(ctx context.Context, in In) (Out, error)

	// Rules returns the cache updates to apply after a successful write.
	Rules func(in In, out Out) []cache.Rule

	// Retry overrides the runner retry policy.
	Retry *resilience.RetryConfig
}

// Hooks are called after a write settles.
type Hooks[In, Out any] struct {
	OnSuccess func(in In, out Out)
	OnError   func(in In, err error)
	OnSettled func(in In, out Out, err error)
}

// Runner executes mutations against one cache store.
type Runner struct {
	store *cache.Store
	retry resilience.RetryConfig
	mw    *observe.Middleware
}

// Option configures a Runner.
type Option func(*Runner)

// WithRetry sets the default retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(r *Runner) {
		r.retry = cfg
	}
}

// WithMiddleware sets the middleware wrapping every attempt.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(r *Runner) {
		if mw != nil {
			r.mw = mw
		}
	}
}

// NewRunner creates a runner. The default retry policy is
// resilience.MutationRetryConfig.
func NewRunner(store *cache.Store, opts ...Option) *Runner {
	r := &Runner{
		store: store,
		retry: resilience.MutationRetryConfig(),
		mw:    observe.NopMiddleware(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the underlying cache store.
func (r *Runner) Store() *cache.Store {
	return r.store
}

// Mutate runs d with input. On success the rules from d.Rules are applied
// in order, then OnSuccess and OnSettled are called. On failure OnError and
// OnSettled are called and the error is returned unchanged.
//
// Rule failures are logged and do not fail the mutation; the write already
// happened.
func Mutate[In, Out any](ctx context.Context, r *Runner, d Descriptor[In, Out], in In, hooks ...Hooks[In, Out]) (Out, error) {
	var out Out
	if d.Mutate == nil {
		return out, ErrNoMutate
	}

	meta := observe.OpMeta{Kind: observe.OpMutation, Name: d.Name}
	logger := r.mw.Logger().WithOp(meta)

	cfg := r.retry
	if d.Retry != nil {
		cfg = *d.Retry
	}
	if cfg.OnRetry == nil {
		cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
			logger.Debug(ctx, "retrying mutation",
				observe.Field{Key: "attempt", Value: attempt},
				observe.Field{Key: "delay_ms", Value: delay.Milliseconds()},
				observe.Field{Key: "error", Value: err},
			)
		}
	}

	err := resilience.NewRetry(cfg).Execute(ctx, func(ctx context.Context) error {
		return r.mw.Run(ctx, meta, func(ctx context.Context) error {
			v, err := d.Mutate(ctx, in)
			if err != nil {
				return err
			}
			out = v
			return nil
		})
	})
	if err != nil {
		for _, h := range hooks {
			if h.OnError != nil {
				h.OnError(in, err)
			}
		}
		settle(hooks, in, out, err)
		return out, err
	}

	if d.Rules != nil {
		if rerr := r.store.Apply(ctx, d.Rules(in, out)...); rerr != nil {
			logger.Error(ctx, "cache rules failed", observe.Field{Key: "error", Value: rerr})
		}
	}
	for _, h := range hooks {
		if h.OnSuccess != nil {
			h.OnSuccess(in, out)
		}
	}
	settle(hooks, in, out, nil)
	return out, nil
}

func settle[In, Out any](hooks []Hooks[In, Out], in In, out Out, err error) {
	for _, h := range hooks {
		if h.OnSettled != nil {
			h.OnSettled(in, out, err)
		}
	}
}
