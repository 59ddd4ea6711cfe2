package handler

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/hitfake/packages/fake"
	"github.com/abdul-hamid-achik/hitfake/packages/message"
)

// AnyMethod matches every method in RoutingHandler.Path.
const AnyMethod = "*"

// RoutingHandler dispatches on the request method and URI.
//
// Exact routes are keyed by "METHOD uri" where uri is the full request URI
// as a string. Path routes match the URI path against a pattern in which
// {{name}} captures one segment; captured values are stored as request
// attributes. Exact routes win over path routes, and unmatched requests go
// to the default handler.
type RoutingHandler struct {
	exact    map[string]fake.Handler
	paths    []*pathRoute
	fallback fake.Handler
}

type pathRoute struct {
	method  string
	pattern string
	regex   *regexp.Regexp
	handler fake.Handler
}

// NewRoutingHandler creates a router. A nil fallback answers 404.
func NewRoutingHandler(fallback fake.Handler) *RoutingHandler {
	if fallback == nil {
		fallback = NotFound()
	}
	return &RoutingHandler{
		exact:    make(map[string]fake.Handler),
		fallback: fallback,
	}
}

// Route registers h for each method and the exact URI.
func (h *RoutingHandler) Route(methods []string, uri string, handler fake.Handler) *RoutingHandler {
	for _, method := range methods {
		if method == "" {
			continue
		}
		h.exact[strings.ToUpper(method)+" "+uri] = handler
	}
	return h
}

// Path registers h for method and a path pattern such as "/users/{{id}}".
// Patterns are tried in registration order.
func (h *RoutingHandler) Path(method, pattern string, handler fake.Handler) *RoutingHandler {
	pattern = normalizePath(pattern)
	h.paths = append(h.paths, &pathRoute{
		method:  method,
		pattern: pattern,
		regex:   createPathRegex(pattern),
		handler: handler,
	})
	return h
}

func (h *RoutingHandler) Handle(r *message.ServerRequest) (*http.Response, error) {
	if handler, ok := h.exact[strings.ToUpper(r.Method())+" "+r.URL().String()]; ok {
		return handler.Handle(r)
	}

	path := normalizePath(r.URL().Path)
	for _, route := range h.paths {
		if route.method != AnyMethod && !strings.EqualFold(route.method, r.Method()) {
			continue
		}
		if params := matchPath(route, path); params != nil {
			for name, value := range params {
				r = r.WithAttribute(name, value)
			}
			return route.handler.Handle(r)
		}
	}

	return h.fallback.Handle(r)
}

func normalizePath(path string) string {
	// Ensure path starts with /
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	// Remove trailing slash (except for root)
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	return path
}

var paramPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// createPathRegex turns {{param}} segments into named groups and quotes the
// rest of the pattern.
func createPathRegex(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	last := 0
	for _, m := range paramPattern.FindAllStringSubmatchIndex(pattern, -1) {
		b.WriteString(regexp.QuoteMeta(pattern[last:m[0]]))
		b.WriteString("(?P<" + pattern[m[2]:m[3]] + ">[^/]+)")
		last = m[1]
	}
	b.WriteString(regexp.QuoteMeta(pattern[last:]))
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}

func matchPath(route *pathRoute, path string) map[string]string {
	matches := route.regex.FindStringSubmatch(path)
	if matches == nil {
		return nil
	}
	params := make(map[string]string)
	for i, name := range route.regex.SubexpNames() {
		if i > 0 && name != "" {
			params[name] = matches[i]
		}
	}
	return params
}
