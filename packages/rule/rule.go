package rule

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownField is returned for field names the Rule builder does not
// recognize.
var ErrUnknownField = errors.New("unknown rule field")

// Field prefixes selecting a named part of the request.
const (
	QueryPrefix  = "query."
	HeaderPrefix = "header."
	JSONPrefix   = "json."
)

var allowedFields = []string{
	"method", "protocolVersion", "uri",
	"uri.scheme", "uri.userInfo", "uri.authority", "uri.host", "uri.port",
	"uri.path", "uri.query", "uri.fragment",
	"body", QueryPrefix + "*", HeaderPrefix + "*", JSONPrefix + "*",
}

// Rule collects conditions, joined with And (or with Or for rules created
// by OneOf). Field errors are collected and reported by Condition.
type Rule struct {
	or         bool
	conditions []Condition
	errs       []error
}

func New() *Rule {
	return &Rule{}
}

// AllOf adds a nested rule whose conditions must all match.
func (r *Rule) AllOf(fn func(*Rule)) *Rule {
	return r.nested(&Rule{}, fn)
}

// OneOf adds a nested rule of which at least one condition must match.
func (r *Rule) OneOf(fn func(*Rule)) *Rule {
	return r.nested(&Rule{or: true}, fn)
}

func (r *Rule) nested(sub *Rule, fn func(*Rule)) *Rule {
	fn(sub)
	c, err := sub.Condition()
	if err != nil {
		r.errs = append(r.errs, err)
		return r
	}
	r.conditions = append(r.conditions, c)
	return r
}

func (r *Rule) Equal(field, pattern string) *Rule {
	return r.add(Equal, field, &pattern, false)
}

func (r *Rule) Match(field, pattern string) *Rule {
	return r.add(Match, field, &pattern, false)
}

func (r *Rule) Contains(field, pattern string) *Rule {
	return r.add(Contains, field, &pattern, false)
}

func (r *Rule) NotEqual(field, pattern string) *Rule {
	return r.add(Equal, field, &pattern, true)
}

func (r *Rule) NotMatch(field, pattern string) *Rule {
	return r.add(Match, field, &pattern, true)
}

func (r *Rule) NotContains(field, pattern string) *Rule {
	return r.add(Contains, field, &pattern, true)
}

// Absent matches when the field has no value: a missing header, query
// parameter or JSON path.
func (r *Rule) Absent(field string) *Rule {
	return r.add(Equal, field, nil, false)
}

// Present is the negation of Absent.
func (r *Rule) Present(field string) *Rule {
	return r.add(Equal, field, nil, true)
}

// Schema requires the body to validate against a JSON schema.
func (r *Rule) Schema(schema []byte) *Rule {
	c, err := Schema(schema)
	if err != nil {
		r.errs = append(r.errs, err)
		return r
	}
	r.conditions = append(r.conditions, c)
	return r
}

// With adds a custom condition.
func (r *Rule) With(c Condition) *Rule {
	r.conditions = append(r.conditions, c)
	return r
}

func (r *Rule) add(cmp Comparer, field string, pattern *string, negate bool) *Rule {
	c, err := FieldCondition(cmp, field, pattern)
	if err != nil {
		r.errs = append(r.errs, err)
		return r
	}
	if negate {
		c = Not(c)
	}
	r.conditions = append(r.conditions, c)
	return r
}

// Condition returns the combined condition. A rule without conditions
// matches every request.
func (r *Rule) Condition() (Condition, error) {
	if len(r.errs) > 0 {
		return nil, errors.Join(r.errs...)
	}
	switch {
	case len(r.conditions) == 0:
		return And(), nil
	case len(r.conditions) == 1:
		return r.conditions[0], nil
	case r.or:
		return Or(r.conditions...), nil
	}
	return And(r.conditions...), nil
}

// FieldCondition builds the condition comparing field with pattern.
func FieldCondition(cmp Comparer, field string, pattern *string) (Condition, error) {
	switch field {
	case "method":
		return Method(cmp, pattern), nil
	case "protocolVersion":
		return ProtocolVersion(cmp, pattern), nil
	case "uri":
		return URI(cmp, pattern, URIWhole)
	case "body":
		return Body(cmp, pattern), nil
	}

	switch {
	case strings.HasPrefix(field, "uri.") && field != "uri.":
		return URI(cmp, pattern, strings.TrimPrefix(field, "uri."))
	case strings.HasPrefix(field, QueryPrefix):
		return Query(cmp, pattern, strings.TrimPrefix(field, QueryPrefix)), nil
	case strings.HasPrefix(field, HeaderPrefix) && field != HeaderPrefix:
		return Header(cmp, pattern, strings.TrimPrefix(field, HeaderPrefix)), nil
	case strings.HasPrefix(field, JSONPrefix) && field != JSONPrefix:
		return JSONPath(cmp, pattern, strings.TrimPrefix(field, JSONPrefix)), nil
	}

	return nil, fmt.Errorf("%w %q: must be one of %s", ErrUnknownField, field, strings.Join(allowedFields, ", "))
}
