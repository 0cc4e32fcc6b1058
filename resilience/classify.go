package resilience

import "errors"

// StatusCoder is implemented by errors that carry an HTTP status.
// A status of 0 means no response was received.
type StatusCoder interface {
	HTTPStatus() int
}

// StatusOf extracts the HTTP status from err.
// The second result is false when err does not carry a status.
func StatusOf(err error) (int, bool) {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatus(), true
	}
	return 0, false
}

// IsTransportFailure reports whether err is a failure with no response.
func IsTransportFailure(err error) bool {
	status, ok := StatusOf(err)
	return ok && status == 0
}

// IsClientError reports whether err carries a 4xx status.
func IsClientError(err error) bool {
	status, ok := StatusOf(err)
	return ok && status >= 400 && status < 500
}

// IsServerError reports whether err carries a 5xx status.
func IsServerError(err error) bool {
	status, ok := StatusOf(err)
	return ok && status >= 500 && status < 600
}

// IsTransient reports whether err is worth retrying: a transport failure or
// a server error. Errors without a status are treated as transient, matching
// an unclassified network stack failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	status, ok := StatusOf(err)
	if !ok {
		return true
	}
	return status == 0 || (status >= 500 && status < 600)
}
