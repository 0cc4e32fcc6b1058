package query

import (
	"context"
	"sync"

	"github.com/newmo-oss/ctxtime"

	"github.com/jonwraymond/courseops/cache"
)

// Observer follows one descriptor over time, the way a mounted view does.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Changed is signalled after every change to the observed entry; it is
//   buffered so a slow reader sees at least the latest change.
// - Close stops listening; fetches already started still complete.
type Observer[T any] struct {
	c   *Client
	ctx context.Context

	mu          sync.Mutex
	d           Descriptor[T]
	placeholder *Result[T]
	unsubscribe func()
	closed      bool

	changed chan struct{}
}

// Observe subscribes to d and starts a background fetch when the cached
// value is missing or stale. Values in ctx (such as the clock) are kept for
// background fetches; its cancellation is not.
func Observe[T any](ctx context.Context, c *Client, d Descriptor[T]) *Observer[T] {
	o := &Observer[T]{
		c:       c,
		ctx:     context.WithoutCancel(ctx),
		d:       d,
		changed: make(chan struct{}, 1),
	}
	o.mu.Lock()
	o.subscribeLocked()
	o.mu.Unlock()

	Prefetch(o.ctx, c, d)
	return o
}

func (o *Observer[T]) subscribeLocked() {
	if o.d.Key.Validate() != nil {
		o.unsubscribe = func() {}
		return
	}
	o.unsubscribe = o.c.store.Subscribe(o.ctx, o.d.Key, o.onEvent)
}

func (o *Observer[T]) onEvent(e cache.Event) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	d := o.d
	if e.Type == cache.EventUpdated && e.Entry.Status == cache.StatusSuccess {
		o.placeholder = nil
	}
	o.mu.Unlock()

	if e.Type == cache.EventInvalidated && d.Enabled {
		start(o.ctx, o.c, d)
	}
	o.signal()
}

func (o *Observer[T]) signal() {
	select {
	case o.changed <- struct{}{}:
	default:
	}
}

// Changed returns a channel that receives after the observed entry changes.
func (o *Observer[T]) Changed() <-chan struct{} {
	return o.changed
}

// Descriptor returns the observed descriptor.
func (o *Observer[T]) Descriptor() Descriptor[T] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.d
}

// Current returns a snapshot of the observed entry. While a refetch is
// pending the previous value stays in Data with IsLoading set.
func (o *Observer[T]) Current() Result[T] {
	o.mu.Lock()
	d := o.d
	placeholder := o.placeholder
	o.mu.Unlock()

	if !d.Enabled {
		return Result[T]{Status: cache.StatusIdle}
	}

	now := ctxtime.Now(o.ctx)
	entry, ok := o.c.store.Get(o.ctx, d.Key)
	r := resultFromEntry[T](entry, now, o.c.staleTime(d.StaleTime))
	if !ok {
		r.Status = cache.StatusIdle
	}
	if !r.HasData && placeholder != nil {
		r.Data = placeholder.Data
		r.HasData = true
		r.IsPlaceholder = true
		r.UpdatedAt = placeholder.UpdatedAt
	}
	return r
}

// Refetch fetches the observed descriptor regardless of freshness.
func (o *Observer[T]) Refetch(ctx context.Context) Result[T] {
	o.mu.Lock()
	d, closed := o.d, o.closed
	o.mu.Unlock()
	if closed {
		return Result[T]{Err: ErrClosed}
	}
	return Refetch(ctx, o.c, d)
}

// Update switches the observer to d, for example the next page of a list.
// With d.KeepPreviousData the current data stays visible, marked as a
// placeholder, until d's key has data of its own.
func (o *Observer[T]) Update(d Descriptor[T]) {
	prev := o.Current()

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	sameKey := o.d.Key.Equal(d.Key)
	o.d = d
	if !sameKey {
		o.unsubscribe()
		o.placeholder = nil
		if d.KeepPreviousData && prev.HasData {
			prev.IsPlaceholder = true
			o.placeholder = &prev
		}
		o.subscribeLocked()
	}
	o.mu.Unlock()

	Prefetch(o.ctx, o.c, d)
	o.signal()
}

// Close unsubscribes the observer. It is safe to call more than once.
func (o *Observer[T]) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	o.unsubscribe()
}
