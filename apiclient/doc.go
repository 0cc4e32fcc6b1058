// Package apiclient is the typed HTTP client for the course service REST API.
//
// Every non-2xx response and every transport failure is returned as *Error,
// which carries the HTTP status (0 when no response arrived), a message and
// the server's {error, message} payload when one was sent. A 401 clears the
// stored token and invokes Config.OnUnauthorized before the error is
// returned.
package apiclient
