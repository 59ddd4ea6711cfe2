package handler

import (
	"errors"
	"net/http"

	"github.com/abdul-hamid-achik/hitfake/packages/fake"
	"github.com/abdul-hamid-achik/hitfake/packages/message"
)

// ErrHandlerFailure is the error returned by handlers made with Error.
var ErrHandlerFailure = errors.New("handler failure")

// NotFound answers every request with "404 Not Found".
func NotFound() fake.Handler {
	return fake.HandlerFunc(func(*message.ServerRequest) (*http.Response, error) {
		return fake.NewResponse(http.StatusNotFound, nil), nil
	})
}

// Respond answers every request with a response built from t.
func Respond(t *Template) fake.Handler {
	return fake.HandlerFunc(func(r *message.ServerRequest) (*http.Response, error) {
		return t.Response(r), nil
	})
}

// Error returns a handler that always fails with err, or with
// ErrHandlerFailure when err is nil. Through a fake transport the failure
// surfaces as a network error.
func Error(err error) fake.Handler {
	if err == nil {
		err = ErrHandlerFailure
	}
	return fake.HandlerFunc(func(*message.ServerRequest) (*http.Response, error) {
		return nil, err
	})
}
