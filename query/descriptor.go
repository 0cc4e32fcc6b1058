package query

import (
	"context"
	"time"

	"github.com/jonwraymond/courseops/cache"
	"github.com/jonwraymond/courseops/observe"
	"github.com/jonwraymond/courseops/resilience"
)

// FetchFunc loads the value for a descriptor's key.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Descriptor declares one cached read.
type Descriptor[T any] struct {
	// Name labels spans, metrics and logs, e.g. "course.detail".
	Name string

	Key   cache.Key
	Fetch FetchFunc[T]

	// StaleTime overrides the client default. An explicit zero means the
	// value is always stale.
	StaleTime *time.Duration

	// Enabled false turns the descriptor into a no-op.
	Enabled bool

	// Retry overrides the client retry policy.
	Retry *resilience.RetryConfig

	// KeepPreviousData keeps an Observer showing the old key's data as a
	// placeholder after Update switches to a key with no data yet.
	KeepPreviousData bool
}

// NewDescriptor returns an enabled descriptor.
func NewDescriptor[T any](name string, key cache.Key, fetch func(ctx context.Context) (T, error)) Descriptor[T] {
	return Descriptor[T]{
		Name:    name,
		Key:     key,
		Fetch:   fetch,
		Enabled: true,
	}
}

// WithStaleTime returns a copy with StaleTime set to d.
func (d Descriptor[T]) WithStaleTime(stale time.Duration) Descriptor[T] {
	d.StaleTime = &stale
	return d
}

// WithRetry returns a copy using cfg for retries.
func (d Descriptor[T]) WithRetry(cfg resilience.RetryConfig) Descriptor[T] {
	d.Retry = &cfg
	return d
}

// WithEnabled returns a copy with Enabled set.
func (d Descriptor[T]) WithEnabled(enabled bool) Descriptor[T] {
	d.Enabled = enabled
	return d
}

// WithKeepPreviousData returns a copy with KeepPreviousData set.
func (d Descriptor[T]) WithKeepPreviousData() Descriptor[T] {
	d.KeepPreviousData = true
	return d
}

func (d Descriptor[T]) meta() observe.OpMeta {
	return observe.OpMeta{Kind: observe.OpQuery, Name: d.Name, Key: d.Key.String()}
}
