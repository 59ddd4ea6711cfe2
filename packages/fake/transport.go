package fake

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/hitfake/packages/journal"
	"github.com/abdul-hamid-achik/hitfake/packages/message"
)

// Transport is an http.RoundTripper that dispatches requests to a Handler
// in-process.
type Transport struct {
	handler  Handler
	metadata map[string]any
	journal  *journal.Journal
	logger   *zap.Logger
}

// NewTransport creates a transport for handler. Only the transport-level
// options (WithMetadata, WithJournal, WithLogger) have an effect.
func NewTransport(handler Handler, opts ...ClientOption) *Transport {
	c := newClientConfig(opts)
	return c.transport(handler)
}

type dispatchResult struct {
	resp *http.Response
	err  error
}

// RoundTrip builds a server request from req and runs the handler.
//
// When the request context carries a ServerRequest (message.NewContext)
// whose NoReplaceAttribute is true, that request is dispatched as-is.
// Handler errors that are not ClientErrors, panics and cancellation of the
// request context are reported as *NetworkError.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.handler == nil {
		closeBody(req)
		return nil, &NetworkError{Request: req, Err: ErrNoHandler}
	}

	start := time.Now()
	sr, err := t.serverRequest(req)
	if err != nil {
		return nil, t.finish(req, start, nil, &NetworkError{Request: req, Err: err})
	}

	ctx := req.Context()
	if err := ctx.Err(); err != nil {
		return nil, t.finish(req, start, nil, &NetworkError{Request: req, Err: err})
	}

	done := make(chan dispatchResult, 1)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				done <- dispatchResult{err: &panicError{value: v}}
			}
		}()
		resp, err := t.handler.Handle(sr)
		done <- dispatchResult{resp: resp, err: err}
	}()

	var res dispatchResult
	select {
	case <-ctx.Done():
		res.err = ctx.Err()
	case res = <-done:
	}

	switch {
	case res.err != nil && asClientError(res.err):
		return nil, t.finish(req, start, nil, res.err)
	case res.err != nil:
		return nil, t.finish(req, start, nil, &NetworkError{Request: req, Err: res.err})
	case res.resp == nil:
		return nil, t.finish(req, start, nil, &NetworkError{Request: req, Err: fmt.Errorf("handler returned no response")})
	}

	resp := normalizeResponse(res.resp, req)
	return resp, t.finish(req, start, resp, nil)
}

func (t *Transport) serverRequest(req *http.Request) (*message.ServerRequest, error) {
	if sr, ok := message.FromContext(req.Context()); ok {
		if keep, _ := sr.Attribute(message.NoReplaceAttribute); keep == true {
			closeBody(req)
			return sr, nil
		}
	}
	defer closeBody(req)
	return message.NewServerRequest(req, t.metadata)
}

func (t *Transport) finish(req *http.Request, start time.Time, resp *http.Response, err error) error {
	duration := time.Since(start)
	entry := journal.Entry{
		Timestamp: start,
		Method:    req.Method,
		URL:       req.URL.String(),
		Duration:  duration,
	}
	if resp != nil {
		entry.Status = resp.StatusCode
	}
	if err != nil {
		entry.Error = err.Error()
		t.logger.Debug("fake request failed",
			zap.String("method", req.Method),
			zap.String("url", entry.URL),
			zap.Duration("duration", duration),
			zap.Error(err))
	} else {
		t.logger.Debug("fake request",
			zap.String("method", req.Method),
			zap.String("url", entry.URL),
			zap.Int("status", entry.Status),
			zap.Duration("duration", duration))
	}

	if t.journal != nil {
		if _, jerr := t.journal.Record(entry); jerr != nil {
			t.logger.Warn("failed to persist journal entry", zap.Error(jerr))
		}
	}
	return err
}

// normalizeResponse fills in the fields http.Client expects from a
// transport.
func normalizeResponse(resp *http.Response, req *http.Request) *http.Response {
	if resp.StatusCode == 0 {
		resp.StatusCode = http.StatusOK
	}
	if resp.Status == "" {
		resp.Status = statusLine(resp.StatusCode, "")
	}
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}
	if resp.Body == nil {
		resp.Body = http.NoBody
	}
	if resp.ProtoMajor == 0 {
		resp.Proto, resp.ProtoMajor, resp.ProtoMinor = "HTTP/1.1", 1, 1
	}
	resp.Request = req
	return resp
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}
