package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// NetworkErrorMessage is the message of every transport failure.
const NetworkErrorMessage = "Network error. Please check your connection."

// Sentinels matched by errors.Is against *Error statuses.
var (
	ErrNotFound     = errors.New("apiclient: not found")
	ErrConflict     = errors.New("apiclient: conflict")
	ErrUnauthorized = errors.New("apiclient: unauthorized")
	ErrTransport    = errors.New("apiclient: transport failure")

	ErrMissingBaseURL = errors.New("apiclient: base URL is required")
)

// Kind classifies an *Error.
type Kind int

const (
	// KindTransport means no response was received.
	KindTransport Kind = iota
	// KindClient is any 4xx other than 401.
	KindClient
	// KindAuth is a 401.
	KindAuth
	// KindServer is any 5xx.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindClient:
		return "client"
	case KindAuth:
		return "auth"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// ErrorPayload is the server's error body.
type ErrorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Error is the structured error returned by every Client method.
type Error struct {
	// Status is the HTTP status, or 0 for transport failures.
	Status  int
	Message string
	// Payload is nil when the response had no decodable error body.
	Payload *ErrorPayload

	Method string
	Path   string

	// Err is the underlying transport error, if any.
	Err error
}

func newStatusError(method, path string, status int, payload *ErrorPayload) *Error {
	msg := fmt.Sprintf("Request failed with status %d", status)
	if payload != nil && payload.Message != "" {
		msg = payload.Message
	}
	return &Error{Status: status, Message: msg, Payload: payload, Method: method, Path: path}
}

func newTransportError(method, path string, err error) *Error {
	return &Error{Message: NetworkErrorMessage, Method: method, Path: path, Err: err}
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("apiclient: %s %s: %s", e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("apiclient: %s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus exposes the status to the retry classifier.
func (e *Error) HTTPStatus() int { return e.Status }

// Kind returns the error's class.
func (e *Error) Kind() Kind {
	switch {
	case e.Status == 0:
		return KindTransport
	case e.Status == http.StatusUnauthorized:
		return KindAuth
	case e.Status >= 500:
		return KindServer
	default:
		return KindClient
	}
}

// Is matches the package sentinels by status.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrTransport:
		return e.Status == 0
	}
	return false
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
