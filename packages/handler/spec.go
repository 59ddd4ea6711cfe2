package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/abdul-hamid-achik/hitfake/packages/fake"
	"github.com/abdul-hamid-achik/hitfake/packages/message"
	"github.com/abdul-hamid-achik/hitfake/packages/rule"
)

// SpecHandler answers with the first route whose condition matches. Matched
// routes start from an empty "200 OK" response; unmatched requests get the
// default response, "404 Not Found" unless configured.
type SpecHandler struct {
	routes          []*Route
	defaultResponse *Template
}

func NewSpecHandler(routes ...*Route) *SpecHandler {
	return &SpecHandler{routes: routes}
}

// WithDefaultResponse returns a copy of h that answers unmatched requests
// with t.
func (h *SpecHandler) WithDefaultResponse(t *Template) *SpecHandler {
	c := *h
	c.defaultResponse = t
	return &c
}

func (h *SpecHandler) Routes() []*Route {
	return append([]*Route(nil), h.routes...)
}

func (h *SpecHandler) Handle(r *message.ServerRequest) (*http.Response, error) {
	for _, route := range h.routes {
		if !route.Condition().Check(r) {
			continue
		}
		resp, err := route.CreateResponse(fake.NewResponse(http.StatusOK, nil), r)
		if err != nil {
			if route.Name() != "" {
				return nil, fmt.Errorf("route %s: %w", route.Name(), err)
			}
			return nil, err
		}
		return resp, nil
	}
	if h.defaultResponse != nil {
		return h.defaultResponse.Response(r), nil
	}
	return fake.NewResponse(http.StatusNotFound, nil), nil
}

// Builder assembles a SpecHandler.
type Builder struct {
	routes          []*Route
	errs            []error
	defaultResponse *Template
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Route adds a route whose condition is built by fn. Field errors in the
// rule are reported by Build.
func (b *Builder) Route(fn func(*rule.Rule)) *Route {
	rl := rule.New()
	fn(rl)
	condition, err := rl.Condition()
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("route %d: %w", len(b.routes)+1, err))
		condition = rule.Static(false)
	}
	route := NewRoute(condition)
	b.routes = append(b.routes, route)
	return route
}

// Add appends prepared routes.
func (b *Builder) Add(routes ...*Route) *Builder {
	b.routes = append(b.routes, routes...)
	return b
}

// SetDefaultResponse snapshots resp (reading and closing its body) as the
// answer for unmatched requests.
func (b *Builder) SetDefaultResponse(resp *http.Response) *Builder {
	t, err := TemplateFromResponse(resp)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("default response: %w", err))
		return b
	}
	b.defaultResponse = t
	return b
}

func (b *Builder) Build() (*SpecHandler, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	h := NewSpecHandler(b.routes...)
	if b.defaultResponse != nil {
		h = h.WithDefaultResponse(b.defaultResponse)
	}
	return h, nil
}
