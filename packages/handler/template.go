package handler

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/hitfake/packages/builtin"
	"github.com/abdul-hamid-achik/hitfake/packages/fake"
	"github.com/abdul-hamid-achik/hitfake/packages/message"
	"github.com/abdul-hamid-achik/hitfake/packages/rule"
)

// Template is a reusable response description. Header values and the body
// may contain {{placeholders}} resolved against the request: a request
// attribute of that name (path parameters from RoutingHandler), then a rule
// field such as {{method}}, {{query.id}} or {{json.user.name}}. Placeholders
// starting with "$" call a builtin function: {{$uuid()}}, {{$random(1, 6)}}.
// Unresolved placeholders are kept as written.
type Template struct {
	Status int
	Reason string
	Header http.Header
	Body   []byte
}

// TemplateFromResponse reads and closes the body of resp.
func TemplateFromResponse(resp *http.Response) (*Template, error) {
	t := &Template{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
	}
	if _, reason, ok := strings.Cut(resp.Status, " "); ok && reason != http.StatusText(resp.StatusCode) {
		t.Reason = reason
	}
	if resp.Body != nil {
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		t.Body = body
	}
	return t, nil
}

// Response builds a fresh response for r.
func (t *Template) Response(r *message.ServerRequest) *http.Response {
	status := t.Status
	if status == 0 {
		status = http.StatusOK
	}
	return t.apply(fake.NewResponse(status, nil), r)
}

// Filler returns a Filler that applies t on top of the base response.
func (t *Template) Filler() Filler {
	return func(resp *http.Response, r *message.ServerRequest) *http.Response {
		return t.apply(resp, r)
	}
}

func (t *Template) apply(resp *http.Response, r *message.ServerRequest) *http.Response {
	if t.Status != 0 || t.Reason != "" {
		status := t.Status
		if status == 0 {
			status = resp.StatusCode
		}
		resp = fake.WithStatus(resp, status, t.Reason)
	}
	for name, values := range t.Header {
		rendered := make([]string, len(values))
		for i, v := range values {
			rendered[i] = render(v, r)
		}
		resp = fake.WithHeader(resp, name, rendered...)
	}
	if t.Body != nil {
		resp = fake.WithBody(resp, []byte(render(string(t.Body), r)))
	}
	return resp
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)

func render(input string, r *message.ServerRequest) string {
	if r == nil || !strings.Contains(input, "{{") {
		return input
	}
	return placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]

		if expr, ok := strings.CutPrefix(name, "$"); ok {
			v, err := builtin.Default().Call(expr)
			if err != nil {
				fake.Logger().Debug("template function failed", zap.String("expr", expr), zap.Error(err))
				return match
			}
			return v
		}
		if v, ok := r.Attribute(name); ok {
			return fmt.Sprint(v)
		}
		if v, ok, err := rule.Lookup(r, name); err == nil && ok {
			return v
		}
		return match
	})
}
