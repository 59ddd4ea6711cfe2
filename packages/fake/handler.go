package fake

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/abdul-hamid-achik/hitfake/packages/message"
)

// Handler produces a response for a server request.
type Handler interface {
	Handle(r *message.ServerRequest) (*http.Response, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(r *message.ServerRequest) (*http.Response, error)

func (f HandlerFunc) Handle(r *message.ServerRequest) (*http.Response, error) {
	return f(r)
}

// HTTPHandler adapts a standard http.Handler. The handler receives a plain
// *http.Request rebuilt from the server request; the full ServerRequest is
// available through message.FromContext.
func HTTPHandler(h http.Handler) Handler {
	return HandlerFunc(func(r *message.ServerRequest) (*http.Response, error) {
		req, err := ToHTTPRequest(context.Background(), r)
		if err != nil {
			return nil, err
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Result(), nil
	})
}

// ToHTTPRequest converts a server request back into an *http.Request whose
// context carries r.
func ToHTTPRequest(ctx context.Context, r *message.ServerRequest) (*http.Request, error) {
	req, err := http.NewRequestWithContext(message.NewContext(ctx, r), r.Method(), r.URL().String(), r.BodyReader())
	if err != nil {
		return nil, err
	}
	for name, values := range r.Headers() {
		req.Header[name] = values
	}
	if host := r.HeaderLine("Host"); host != "" {
		req.Host = host
	}
	if major, minor, ok := http.ParseHTTPVersion("HTTP/" + r.ProtocolVersion()); ok {
		req.Proto = "HTTP/" + r.ProtocolVersion()
		req.ProtoMajor, req.ProtoMinor = major, minor
	}
	req.RequestURI = r.RequestTarget()
	env := r.Environment()
	if addr := env.String("REMOTE_ADDR"); addr != "" {
		req.RemoteAddr = addr
	}
	return req, nil
}
