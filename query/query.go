package query

import (
	"context"

	"github.com/newmo-oss/ctxtime"

	"github.com/jonwraymond/courseops/cache"
)

// Query returns the value for d. A fresh cached value is returned without a
// fetch. Otherwise Query waits for a fetch, joining one already in flight
// for the same key.
//
// When ctx is done first, Query returns the cached snapshot with IsLoading
// set and Err = ctx.Err(); the fetch keeps running and updates the cache.
// A disabled descriptor yields an idle result and performs no fetch.
func Query[T any](ctx context.Context, c *Client, d Descriptor[T]) Result[T] {
	if !d.Enabled {
		return Result[T]{Status: cache.StatusIdle}
	}
	if err := d.Key.Validate(); err != nil {
		return Result[T]{Status: cache.StatusError, Err: err}
	}

	staleTime := c.staleTime(d.StaleTime)
	entry, ok := c.store.Get(ctx, d.Key)
	if ok && entry.IsFresh(ctxtime.Now(ctx), staleTime) {
		c.mw.RecordLookup(ctx, d.meta(), true)
		return resultFromEntry[T](entry, ctxtime.Now(ctx), staleTime)
	}
	c.mw.RecordLookup(ctx, d.meta(), false)

	return await(ctx, c, d)
}

// Refetch fetches d regardless of freshness. A fetch already in flight for
// the key is joined.
func Refetch[T any](ctx context.Context, c *Client, d Descriptor[T]) Result[T] {
	if !d.Enabled {
		return Result[T]{Status: cache.StatusIdle, Err: ErrDisabled}
	}
	if err := d.Key.Validate(); err != nil {
		return Result[T]{Status: cache.StatusError, Err: err}
	}
	return await(ctx, c, d)
}

// Prefetch starts a fetch for d in the background when its cached value is
// not fresh.
func Prefetch[T any](ctx context.Context, c *Client, d Descriptor[T]) {
	if !d.Enabled || d.Key.Validate() != nil {
		return
	}
	entry, ok := c.store.Get(ctx, d.Key)
	if ok && entry.IsFresh(ctxtime.Now(ctx), c.staleTime(d.StaleTime)) {
		return
	}
	start(ctx, c, d)
}

func await[T any](ctx context.Context, c *Client, d Descriptor[T]) Result[T] {
	ch := start(ctx, c, d)
	staleTime := c.staleTime(d.StaleTime)

	select {
	case res := <-ch:
		entry, _ := c.store.Get(ctx, d.Key)
		r := resultFromEntry[T](entry, ctxtime.Now(ctx), staleTime)
		if res.Err != nil {
			r.Status = cache.StatusError
			r.Err = res.Err
			r.IsLoading, r.IsFetching = false, false
			return r
		}
		if entry.Status != cache.StatusSuccess {
			// The entry was removed or superseded; report what was fetched.
			r.Status = cache.StatusSuccess
			r.UpdatedAt = ctxtime.Now(ctx)
			r.IsLoading, r.IsFetching, r.Err = false, false, nil
			r.Data, r.HasData = valueAs[T](res.Val)
		}
		return r
	case <-ctx.Done():
		entry, _ := c.store.Get(ctx, d.Key)
		r := resultFromEntry[T](entry, ctxtime.Now(ctx), staleTime)
		r.IsLoading = true
		r.IsFetching = r.HasData
		r.Err = ctx.Err()
		return r
	}
}
