package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/hitfake/packages/rule"
)

// RoutesFile is the YAML document read by LoadRoutes.
//
//	default:
//	  status: 404
//	  json: {error: not found}
//	routes:
//	  - name: get user
//	    when:
//	      - {field: method, equal: GET}
//	      - {field: uri.path, match: '^/users/\d+$'}
//	    response:
//	      status: 200
//	      headers: {X-Request: '{{header.x-request-id}}'}
//	      json: {id: 1}
type RoutesFile struct {
	Default *ResponseSpec `yaml:"default,omitempty"`
	Routes  []RouteSpec   `yaml:"routes"`
}

// RouteSpec describes one route. All "when" matchers must match and, when
// "any" is present, at least one of its matchers must match too.
type RouteSpec struct {
	Name     string         `yaml:"name,omitempty"`
	When     []MatcherSpec  `yaml:"when,omitempty"`
	Any      []MatcherSpec  `yaml:"any,omitempty"`
	Schema   map[string]any `yaml:"schema,omitempty"`
	Response ResponseSpec   `yaml:"response"`
}

// MatcherSpec compares one rule field. Every operator set is applied.
type MatcherSpec struct {
	Field       string  `yaml:"field"`
	Equal       *string `yaml:"equal,omitempty"`
	NotEqual    *string `yaml:"notEqual,omitempty"`
	Match       *string `yaml:"match,omitempty"`
	NotMatch    *string `yaml:"notMatch,omitempty"`
	Contains    *string `yaml:"contains,omitempty"`
	NotContains *string `yaml:"notContains,omitempty"`
	Absent      bool    `yaml:"absent,omitempty"`
	Present     bool    `yaml:"present,omitempty"`
}

// ResponseSpec describes a response. "json" takes precedence over "body"
// and sets the Content-Type unless headers already do.
type ResponseSpec struct {
	Status  int               `yaml:"status,omitempty"`
	Reason  string            `yaml:"reason,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Body    *string           `yaml:"body,omitempty"`
	JSON    any               `yaml:"json,omitempty"`
}

var errNoOperator = errors.New("matcher has no operator")

// LoadRoutesFile reads a YAML routes file and builds its SpecHandler.
func LoadRoutesFile(path string) (*SpecHandler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read routes file %s: %w", path, err)
	}
	h, err := LoadRoutes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load routes file %s: %w", path, err)
	}
	return h, nil
}

// LoadRoutes builds a SpecHandler from YAML. OpenAPI 3 documents (YAML or
// JSON with a top-level "openapi" key) are handed to LoadOpenAPI.
func LoadRoutes(data []byte) (*SpecHandler, error) {
	var probe struct {
		OpenAPI string `yaml:"openapi"`
	}
	if err := yaml.Unmarshal(data, &probe); err == nil && probe.OpenAPI != "" {
		return LoadOpenAPI(data)
	}

	var file RoutesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid routes YAML: %w", err)
	}
	return file.Build()
}

// Build turns the parsed document into a SpecHandler.
func (f *RoutesFile) Build() (*SpecHandler, error) {
	b := NewBuilder()
	for i, spec := range f.Routes {
		route, err := spec.route()
		if err != nil {
			name := spec.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i+1)
			}
			return nil, fmt.Errorf("route %s: %w", name, err)
		}
		b.Add(route)
	}

	h, err := b.Build()
	if err != nil {
		return nil, err
	}
	if f.Default != nil {
		t, err := f.Default.Template()
		if err != nil {
			return nil, fmt.Errorf("default response: %w", err)
		}
		h = h.WithDefaultResponse(t)
	}
	return h, nil
}

func (s RouteSpec) route() (*Route, error) {
	rl := rule.New()
	for _, m := range s.When {
		if err := m.apply(rl); err != nil {
			return nil, err
		}
	}
	if len(s.Any) > 0 {
		var applyErr error
		rl.OneOf(func(sub *rule.Rule) {
			for _, m := range s.Any {
				if err := m.apply(sub); err != nil && applyErr == nil {
					applyErr = err
				}
			}
		})
		if applyErr != nil {
			return nil, applyErr
		}
	}
	if s.Schema != nil {
		schema, err := json.Marshal(s.Schema)
		if err != nil {
			return nil, fmt.Errorf("invalid schema: %w", err)
		}
		rl.Schema(schema)
	}

	condition, err := rl.Condition()
	if err != nil {
		return nil, err
	}
	t, err := s.Response.Template()
	if err != nil {
		return nil, err
	}
	return NewRoute(condition).Named(s.Name).Respond(t.Filler()), nil
}

func (m MatcherSpec) apply(rl *rule.Rule) error {
	applied := 0
	add := func(pattern *string, fn func(field, pattern string) *rule.Rule) {
		if pattern != nil {
			fn(m.Field, *pattern)
			applied++
		}
	}
	add(m.Equal, rl.Equal)
	add(m.NotEqual, rl.NotEqual)
	add(m.Match, rl.Match)
	add(m.NotMatch, rl.NotMatch)
	add(m.Contains, rl.Contains)
	add(m.NotContains, rl.NotContains)
	if m.Absent {
		rl.Absent(m.Field)
		applied++
	}
	if m.Present {
		rl.Present(m.Field)
		applied++
	}
	if applied == 0 {
		return fmt.Errorf("%w: field %q", errNoOperator, m.Field)
	}
	return nil
}

// Template converts the YAML response into a response template.
func (s ResponseSpec) Template() (*Template, error) {
	t := &Template{
		Status: s.Status,
		Reason: s.Reason,
		Header: make(http.Header),
	}
	for name, value := range s.Headers {
		t.Header.Set(name, value)
	}
	switch {
	case s.JSON != nil:
		body, err := json.Marshal(s.JSON)
		if err != nil {
			return nil, fmt.Errorf("invalid json response body: %w", err)
		}
		t.Body = body
		if t.Header.Get("Content-Type") == "" {
			t.Header.Set("Content-Type", "application/json")
		}
	case s.Body != nil:
		t.Body = []byte(*s.Body)
	}
	return t, nil
}
