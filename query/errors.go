package query

import "errors"

// Sentinel errors for query operations.
var (
	// ErrDisabled is returned by Refetch for a disabled descriptor.
	ErrDisabled = errors.New("query: descriptor is disabled")

	// ErrNoFetch is returned when a descriptor has no fetch function.
	ErrNoFetch = errors.New("query: descriptor has no fetch function")

	// ErrClosed is returned by a closed Observer.
	ErrClosed = errors.New("query: observer is closed")
)
