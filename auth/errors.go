package auth

import "errors"

// Sentinel errors for token storage and inspection.
var (
	ErrNoToken        = errors.New("auth: no token stored")
	ErrTokenExpired   = errors.New("auth: token expired")
	ErrTokenMalformed = errors.New("auth: token malformed")
	ErrEmptyToken     = errors.New("auth: empty token")
)
