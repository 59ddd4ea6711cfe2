package fake

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// NewResponse returns an HTTP/1.1 response with the standard reason phrase
// for status.
func NewResponse(status int, body []byte) *http.Response {
	resp := &http.Response{
		StatusCode: status,
		Status:     statusLine(status, ""),
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     make(http.Header),
	}
	return WithBody(resp, body)
}

// Text returns a text/plain response.
func Text(status int, body string) *http.Response {
	resp := NewResponse(status, []byte(body))
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	return resp
}

// JSON returns a response with v encoded as its application/json body.
func JSON(status int, v any) (*http.Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response body: %w", err)
	}
	resp := NewResponse(status, data)
	resp.Header.Set("Content-Type", "application/json")
	return resp, nil
}

// WithStatus returns a copy of resp with a new status. An empty reason uses
// the standard phrase.
func WithStatus(resp *http.Response, code int, reason string) *http.Response {
	c := cloneResponse(resp)
	c.StatusCode = code
	c.Status = statusLine(code, reason)
	return c
}

// WithHeader returns a copy of resp with name set to values.
func WithHeader(resp *http.Response, name string, values ...string) *http.Response {
	c := cloneResponse(resp)
	c.Header.Del(name)
	for _, v := range values {
		c.Header.Add(name, v)
	}
	return c
}

// WithBody returns a copy of resp carrying body.
func WithBody(resp *http.Response, body []byte) *http.Response {
	c := cloneResponse(resp)
	c.Body = io.NopCloser(bytes.NewReader(body))
	c.ContentLength = int64(len(body))
	c.Header.Set("Content-Length", strconv.Itoa(len(body)))
	return c
}

// ReadBody reads and closes the response body.
func ReadBody(resp *http.Response) ([]byte, error) {
	if resp.Body == nil {
		return nil, nil
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func cloneResponse(resp *http.Response) *http.Response {
	c := *resp
	c.Header = resp.Header.Clone()
	if c.Header == nil {
		c.Header = make(http.Header)
	}
	return &c
}

func statusLine(code int, reason string) string {
	if reason == "" {
		reason = http.StatusText(code)
	}
	if reason == "" {
		return strconv.Itoa(code)
	}
	return fmt.Sprintf("%d %s", code, reason)
}
