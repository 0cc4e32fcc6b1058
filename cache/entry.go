package cache

import (
	"errors"
	"time"
)

// Sentinel errors for cache operations.
var (
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// Status is the lifecycle state of an entry.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Entry is a snapshot of one cached result. Mutating a snapshot has no
// effect on the store.
type Entry struct {
	Key Key

	// Value is the last successful result. HasValue distinguishes a stored
	// nil from no value at all.
	Value    any
	HasValue bool

	Status Status

	// LastFetchedAt is set by successful fetches and direct writes only.
	LastFetchedAt time.Time

	// Err is the error of the last failed fetch.
	Err error

	// Stale is set by invalidation and cleared by a newer write.
	Stale bool

	Subscribers int
}

// IsFresh reports whether the entry can be served without a fetch at now.
// A zero staleTime means always stale.
func (e Entry) IsFresh(now time.Time, staleTime time.Duration) bool {
	if e.Status != StatusSuccess || e.Stale || e.LastFetchedAt.IsZero() {
		return false
	}
	return now.Sub(e.LastFetchedAt) < staleTime
}
