package query

import (
	"time"

	"github.com/jonwraymond/courseops/cache"
)

// Result is what a consumer renders for a query.
type Result[T any] struct {
	Data    T
	HasData bool

	Status cache.Status

	// IsLoading is true while a fetch for the key is pending. Data may
	// still hold the previous value.
	IsLoading bool

	// IsFetching is true when the pending fetch refreshes data that is
	// already shown.
	IsFetching bool

	// IsStale is true when Data would not be served without a fetch.
	IsStale bool

	// IsPlaceholder is true when Data belongs to the previous key of an
	// Observer kept visible by KeepPreviousData.
	IsPlaceholder bool

	Err       error
	UpdatedAt time.Time
}

func resultFromEntry[T any](e cache.Entry, now time.Time, staleTime time.Duration) Result[T] {
	r := Result[T]{
		Status:    e.Status,
		IsLoading: e.Status == cache.StatusPending,
		IsStale:   !e.IsFresh(now, staleTime),
		Err:       e.Err,
		UpdatedAt: e.LastFetchedAt,
	}
	if e.HasValue {
		r.Data, r.HasData = valueAs[T](e.Value)
	}
	r.IsFetching = r.IsLoading && r.HasData
	return r
}

func valueAs[T any](v any) (T, bool) {
	if v == nil {
		var zero T
		return zero, true
	}
	t, ok := v.(T)
	return t, ok
}
