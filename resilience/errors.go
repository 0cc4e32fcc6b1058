package resilience

import "errors"

// Sentinel errors for resilience operations.
var (
	// ErrNilOperation is returned when Execute is called without an operation.
	ErrNilOperation = errors.New("resilience: operation is nil")
)
