package message

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// NoReplaceAttribute marks a ServerRequest that a dispatcher must use as-is
// instead of building a fresh one from the client request.
const NoReplaceAttribute = "hitfake-request-no-replace"

// ValidProtocolVersions lists the versions accepted by WithProtocolVersion.
var ValidProtocolVersions = []string{"1.0", "1.1", "2.0", "2"}

var (
	ErrInvalidProtocolVersion = errors.New("invalid protocol version")
	ErrInvalidParsedBody      = errors.New("parsed body must be a map, a list or nil")
)

// Message is the raw client-side message a ServerRequest is built from.
// Header names may use any casing.
type Message struct {
	Method          string
	URL             *url.URL
	ProtocolVersion string
	Header          Header
	Body            []byte
}

// ServerRequest is the immutable server-side view of a request.
type ServerRequest struct {
	method          string
	target          string
	protocolVersion string
	url             *url.URL
	headers         Header
	body            []byte
	environment     Environment
	cookies         map[string]string
	query           *Params
	parsedBody      *Params
	files           *Files
	attributes      map[string]any
}

// New builds a ServerRequest from msg. Body decoding never fails; malformed
// content leaves ParsedBody nil and UploadedFiles empty.
func New(msg Message, metadata map[string]any) *ServerRequest {
	u := cloneURL(msg.URL)
	if u == nil {
		u = &url.URL{Path: "/"}
	}
	method := msg.Method
	if method == "" {
		method = http.MethodGet
	}
	version := msg.ProtocolVersion
	if version == "" {
		version = "1.1"
	}

	syn := Synthesize(u, method, version, msg.Header, metadata)
	r := &ServerRequest{
		method:          method,
		target:          u.RequestURI(),
		protocolVersion: version,
		url:             u,
		headers:         syn.Headers,
		environment:     syn.Environment,
		cookies:         syn.Cookies,
		query:           ParseForm(u.RawQuery),
		attributes:      make(map[string]any),
	}

	decoded := DecodeBody(r.headers.Line("Content-Type"), msg.Body)
	if !decoded.Params.Empty() {
		r.parsedBody = decoded.Params
	}
	for name, values := range decoded.Headers {
		r.headers[name] = values
	}
	contentType := r.headers.Line("Content-Type")
	if contentType == "" {
		contentType = MediaTypeText
	}
	r.environment[EnvContentType] = contentType
	r.files = decoded.Files
	r.body = append([]byte(nil), decoded.Body...)
	return r
}

// NewServerRequest reads the body of r and builds a ServerRequest from it.
// Requests received by a server (no host in URL) are completed from r.Host
// and r.TLS. A non-empty r.Host is kept as the Host header, port included.
// The body is read but not closed.
func NewServerRequest(r *http.Request, metadata map[string]any) (*ServerRequest, error) {
	var body []byte
	if r.Body != nil && r.Body != http.NoBody {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
	}

	u := cloneURL(r.URL)
	if u == nil {
		u = &url.URL{Path: "/"}
	}
	if u.Host == "" {
		u.Host = r.Host
		if u.Scheme == "" {
			u.Scheme = "http"
			if r.TLS != nil {
				u.Scheme = "https"
			}
		}
	}

	headers := make(Header, len(r.Header)+1)
	for name, values := range r.Header {
		headers[name] = append([]string(nil), values...)
	}
	if r.Host != "" {
		headers["Host"] = []string{r.Host}
	}

	version := "1.1"
	if r.ProtoMajor > 0 {
		version = fmt.Sprintf("%d.%d", r.ProtoMajor, r.ProtoMinor)
	}

	return New(Message{
		Method:          r.Method,
		URL:             u,
		ProtocolVersion: version,
		Header:          headers,
		Body:            body,
	}, metadata), nil
}

func (r *ServerRequest) Method() string {
	return r.method
}

// URL returns a copy of the request URI.
func (r *ServerRequest) URL() *url.URL {
	return cloneURL(r.url)
}

func (r *ServerRequest) RequestTarget() string {
	return r.target
}

func (r *ServerRequest) ProtocolVersion() string {
	return r.protocolVersion
}

// Headers returns a copy of the canonical header set.
func (r *ServerRequest) Headers() Header {
	return r.headers.Clone()
}

func (r *ServerRequest) HasHeader(name string) bool {
	return r.headers.Has(name)
}

func (r *ServerRequest) Header(name string) []string {
	return append([]string(nil), r.headers.Values(name)...)
}

func (r *ServerRequest) HeaderLine(name string) string {
	return r.headers.Line(name)
}

// Body returns a copy of the body. After multipart decoding this is the
// url-encoded form of the scalar fields, not the original bytes.
func (r *ServerRequest) Body() []byte {
	return append([]byte(nil), r.body...)
}

func (r *ServerRequest) BodyReader() io.Reader {
	return bytes.NewReader(r.body)
}

func (r *ServerRequest) Environment() Environment {
	return r.environment.Clone()
}

func (r *ServerRequest) Cookies() map[string]string {
	out := make(map[string]string, len(r.cookies))
	for k, v := range r.cookies {
		out[k] = v
	}
	return out
}

func (r *ServerRequest) QueryParams() *Params {
	return r.query.Clone()
}

// ParsedBody returns the decoded body parameters, or nil when none were
// decoded.
func (r *ServerRequest) ParsedBody() *Params {
	return r.parsedBody.Clone()
}

// UploadedFiles returns a copy of the file tree. The files in it belong to r:
// moving one is seen through r, but not through copies derived from r.
func (r *ServerRequest) UploadedFiles() *Files {
	return r.files.Clone()
}

func (r *ServerRequest) Attributes() map[string]any {
	out := make(map[string]any, len(r.attributes))
	for k, v := range r.attributes {
		out[k] = v
	}
	return out
}

func (r *ServerRequest) Attribute(name string) (any, bool) {
	v, ok := r.attributes[name]
	return v, ok
}

// WithProtocolVersion fails for versions outside ValidProtocolVersions.
func (r *ServerRequest) WithProtocolVersion(version string) (*ServerRequest, error) {
	if !slices.Contains(ValidProtocolVersions, version) {
		return nil, fmt.Errorf("%w %q: must be one of %s", ErrInvalidProtocolVersion, version, strings.Join(ValidProtocolVersions, ", "))
	}
	c := r.clone()
	c.protocolVersion = version
	return c, nil
}

func (r *ServerRequest) WithHeader(name string, values ...string) *ServerRequest {
	c := r.clone()
	c.headers.Set(name, values...)
	return c
}

// WithAddedHeader appends the values not already present under name.
func (r *ServerRequest) WithAddedHeader(name string, values ...string) *ServerRequest {
	current := r.Header(name)
	for _, v := range values {
		if !slices.Contains(current, v) {
			current = append(current, v)
		}
	}
	return r.WithHeader(name, current...)
}

func (r *ServerRequest) WithoutHeader(name string) *ServerRequest {
	c := r.clone()
	c.headers.Del(name)
	return c
}

func (r *ServerRequest) WithBody(body []byte) *ServerRequest {
	c := r.clone()
	c.body = append([]byte(nil), body...)
	return c
}

func (r *ServerRequest) WithRequestTarget(target string) *ServerRequest {
	c := r.clone()
	c.target = target
	return c
}

func (r *ServerRequest) WithMethod(method string) *ServerRequest {
	c := r.clone()
	c.method = method
	return c
}

// WithURL replaces the URI. The Host header follows the new host unless
// preserveHost is set and the request already has a non-empty Host.
func (r *ServerRequest) WithURL(u *url.URL, preserveHost bool) *ServerRequest {
	c := r.clone()
	c.url = cloneURL(u)
	if c.url == nil {
		c.url = &url.URL{Path: "/"}
	}
	if host := c.url.Hostname(); host != "" && (!preserveHost || c.headers.Line("Host") == "") {
		c.headers.Set("Host", host)
	}
	return c
}

func (r *ServerRequest) WithCookies(cookies map[string]string) *ServerRequest {
	c := r.clone()
	c.cookies = make(map[string]string, len(cookies))
	for k, v := range cookies {
		c.cookies[k] = v
	}
	return c
}

func (r *ServerRequest) WithQueryParams(query *Params) *ServerRequest {
	c := r.clone()
	c.query = query.Clone()
	if c.query == nil {
		c.query = NewParams()
	}
	return c
}

func (r *ServerRequest) WithUploadedFiles(files *Files) *ServerRequest {
	c := r.clone()
	c.files = cloneFiles(files)
	if c.files == nil {
		c.files = NewFiles()
	}
	return c
}

// WithParsedBody accepts nil or a map/list tree; a leaf is rejected.
func (r *ServerRequest) WithParsedBody(body *Params) (*ServerRequest, error) {
	if body != nil && !body.IsContainer() {
		return nil, ErrInvalidParsedBody
	}
	c := r.clone()
	c.parsedBody = body.Clone()
	return c, nil
}

func (r *ServerRequest) WithAttribute(name string, value any) *ServerRequest {
	c := r.clone()
	c.attributes[name] = value
	return c
}

func (r *ServerRequest) WithoutAttribute(name string) *ServerRequest {
	c := r.clone()
	delete(c.attributes, name)
	return c
}

func (r *ServerRequest) clone() *ServerRequest {
	c := *r
	c.url = cloneURL(r.url)
	c.headers = r.headers.Clone()
	c.body = append([]byte(nil), r.body...)
	c.environment = r.environment.Clone()
	c.cookies = r.Cookies()
	c.query = r.query.Clone()
	c.parsedBody = r.parsedBody.Clone()
	c.files = cloneFiles(r.files)
	c.attributes = r.Attributes()
	return &c
}

func cloneURL(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	c := *u
	if u.User != nil {
		user := *u.User
		c.User = &user
	}
	return &c
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying r.
func NewContext(ctx context.Context, r *ServerRequest) context.Context {
	return context.WithValue(ctx, contextKey{}, r)
}

// FromContext returns the ServerRequest stored by NewContext.
func FromContext(ctx context.Context) (*ServerRequest, bool) {
	r, ok := ctx.Value(contextKey{}).(*ServerRequest)
	return r, ok
}
