package handler

import (
	"errors"
	"net/http"

	"github.com/abdul-hamid-achik/hitfake/packages/message"
	"github.com/abdul-hamid-achik/hitfake/packages/rule"
)

// ErrBadResponseFiller is returned when a route's filler returns no
// response.
var ErrBadResponseFiller = errors.New("response filler returned no response")

// Filler turns the base response of a matched route into the final one.
type Filler func(resp *http.Response, r *message.ServerRequest) *http.Response

// Route pairs a condition with the filler that builds its response.
type Route struct {
	name      string
	condition rule.Condition
	filler    Filler
}

func NewRoute(condition rule.Condition) *Route {
	return &Route{condition: condition}
}

// Named sets the name used in logs.
func (rt *Route) Named(name string) *Route {
	rt.name = name
	return rt
}

func (rt *Route) Name() string {
	return rt.name
}

// Respond sets the response filler. Without one the base response is
// returned unchanged.
func (rt *Route) Respond(f Filler) *Route {
	rt.filler = f
	return rt
}

func (rt *Route) Condition() rule.Condition {
	return rt.condition
}

// CreateResponse applies the filler to base.
func (rt *Route) CreateResponse(base *http.Response, r *message.ServerRequest) (*http.Response, error) {
	if rt.filler == nil {
		return base, nil
	}
	resp := rt.filler(base, r)
	if resp == nil {
		return nil, ErrBadResponseFiller
	}
	return resp, nil
}
