package fake

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// NetworkErrorCode is the code reported by NetworkError.Code.
const NetworkErrorCode = 127

// ErrNoHandler is returned by a Transport without a Handler.
var ErrNoHandler = errors.New("fake transport has no handler")

// NetworkError reports that the request could not be completed. It wraps
// every handler failure that is not a ClientError.
type NetworkError struct {
	Request *http.Request
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return "network error"
	}
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Code() int {
	return NetworkErrorCode
}

// Timeout reports whether the request failed because its context deadline
// passed.
func (e *NetworkError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// ClientError is implemented by handler errors that must reach the caller
// unchanged instead of being wrapped in a NetworkError.
type ClientError interface {
	error
	ClientError() bool
}

// RequestError is a ClientError reporting that the request itself is
// unacceptable.
type RequestError struct {
	Request *http.Request
	Reason  string
}

func (e *RequestError) Error() string {
	return "invalid request: " + e.Reason
}

func (e *RequestError) ClientError() bool {
	return true
}

func asClientError(err error) bool {
	var ce ClientError
	return errors.As(err, &ce) && ce.ClientError()
}

// panicError carries a value recovered from a panicking handler.
type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.value)
}
