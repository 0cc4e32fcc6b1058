// Package query serves cached reads with freshness control.
//
// A Descriptor names a cache key and the fetch that fills it. Query returns
// the cached value while it is fresh and otherwise fetches, attaching to a
// fetch already in flight for the same key instead of issuing another
// request. Failed fetches are retried with exponential backoff for transport
// and server errors only. Results are written through cache.Store sequencing,
// so a slow fetch that was superseded by an invalidation and a newer fetch is
// discarded rather than overwriting the newer value.
//
// Observe returns a long-lived Observer that shows the previous value while
// a refetch runs and refetches in the background when its key is
// invalidated.
package query
