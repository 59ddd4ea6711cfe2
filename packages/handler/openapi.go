package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/abdul-hamid-achik/hitfake/packages/rule"
)

const maxExampleDepth = 5

var openAPIParamPattern = regexp.MustCompile(`\{[^/{}]+\}`)

// LoadOpenAPI builds a SpecHandler answering every operation of an OpenAPI 3
// document with its example success response. Literal paths are tried before
// templated ones, so /users/me wins over /users/{id}.
func LoadOpenAPI(data []byte) (*SpecHandler, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	return OpenAPIHandler(doc)
}

// OpenAPIHandler builds the handler of a loaded document.
func OpenAPIHandler(doc *openapi3.T) (*SpecHandler, error) {
	basePath := ""
	if len(doc.Servers) > 0 {
		if u, err := url.Parse(doc.Servers[0].URL); err == nil {
			basePath = strings.TrimRight(u.Path, "/")
		}
	}

	paths := make([]string, 0, doc.Paths.Len())
	for path := range doc.Paths.Map() {
		paths = append(paths, path)
	}
	sort.Slice(paths, func(i, j int) bool {
		pi := len(openAPIParamPattern.FindAllString(paths[i], -1))
		pj := len(openAPIParamPattern.FindAllString(paths[j], -1))
		if pi != pj {
			return pi < pj
		}
		return paths[i] < paths[j]
	})

	b := NewBuilder()
	for _, path := range paths {
		item := doc.Paths.Value(path)
		operations := item.Operations()
		methods := make([]string, 0, len(operations))
		for method := range operations {
			methods = append(methods, method)
		}
		sort.Strings(methods)

		for _, method := range methods {
			op := operations[method]
			t, err := operationTemplate(op)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", method, path, err)
			}
			name := op.OperationID
			if name == "" {
				name = method + " " + path
			}
			pattern := openAPIPathPattern(basePath + path)
			b.Route(func(r *rule.Rule) {
				r.Equal("method", method).Match("uri.path", pattern)
			}).Named(name).Respond(t.Filler())
		}
	}
	return b.Build()
}

func openAPIPathPattern(path string) string {
	var sb strings.Builder
	sb.WriteString("^")
	last := 0
	for _, loc := range openAPIParamPattern.FindAllStringIndex(path, -1) {
		sb.WriteString(regexp.QuoteMeta(path[last:loc[0]]))
		sb.WriteString("[^/]+")
		last = loc[1]
	}
	sb.WriteString(regexp.QuoteMeta(path[last:]))
	sb.WriteString("/?$")
	return sb.String()
}

// operationTemplate picks the lowest 2xx response, then "default", and
// renders its preferred media type example.
func operationTemplate(op *openapi3.Operation) (*Template, error) {
	t := &Template{Status: http.StatusOK, Header: make(http.Header)}
	if op.Responses == nil {
		return t, nil
	}

	var codes []string
	for code := range op.Responses.Map() {
		if strings.HasPrefix(code, "2") {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)

	var resp *openapi3.Response
	for _, code := range codes {
		status, err := strconv.Atoi(code)
		if err != nil {
			continue
		}
		if ref := op.Responses.Value(code); ref != nil && ref.Value != nil {
			t.Status = status
			resp = ref.Value
			break
		}
	}
	if resp == nil {
		if ref := op.Responses.Default(); ref != nil && ref.Value != nil {
			resp = ref.Value
		}
	}
	if resp == nil || len(resp.Content) == 0 {
		return t, nil
	}

	mediaType, media := preferredMediaType(resp.Content)
	t.Header.Set("Content-Type", mediaType)

	example, ok := mediaExample(media)
	if !ok {
		return t, nil
	}
	if s, isString := example.(string); isString && !strings.Contains(mediaType, "json") {
		t.Body = []byte(s)
		return t, nil
	}
	body, err := json.Marshal(example)
	if err != nil {
		return nil, fmt.Errorf("invalid example: %w", err)
	}
	t.Body = body
	return t, nil
}

func preferredMediaType(content openapi3.Content) (string, *openapi3.MediaType) {
	types := make([]string, 0, len(content))
	for mt := range content {
		types = append(types, mt)
	}
	sort.Strings(types)
	for _, mt := range types {
		if strings.Contains(mt, "json") {
			return mt, content[mt]
		}
	}
	return types[0], content[types[0]]
}

func mediaExample(media *openapi3.MediaType) (any, bool) {
	if media == nil {
		return nil, false
	}
	if media.Example != nil {
		return media.Example, true
	}
	names := make([]string, 0, len(media.Examples))
	for name := range media.Examples {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if ex := media.Examples[name]; ex != nil && ex.Value != nil && ex.Value.Value != nil {
			return ex.Value.Value, true
		}
	}
	if media.Schema != nil && media.Schema.Value != nil {
		return schemaExample(media.Schema.Value, 0), true
	}
	return nil, false
}

func schemaExample(schema *openapi3.Schema, depth int) any {
	if schema == nil || depth > maxExampleDepth {
		return nil
	}
	if schema.Example != nil {
		return schema.Example
	}
	if schema.Default != nil {
		return schema.Default
	}
	if len(schema.Enum) > 0 {
		return schema.Enum[0]
	}

	types := schema.Type.Slice()
	if len(types) == 0 {
		if len(schema.Properties) > 0 {
			types = []string{openapi3.TypeObject}
		} else {
			return nil
		}
	}

	switch types[0] {
	case openapi3.TypeObject:
		obj := make(map[string]any, len(schema.Properties))
		for name, prop := range schema.Properties {
			if prop != nil {
				obj[name] = schemaExample(prop.Value, depth+1)
			}
		}
		return obj
	case openapi3.TypeArray:
		if schema.Items != nil && schema.Items.Value != nil {
			return []any{schemaExample(schema.Items.Value, depth+1)}
		}
		return []any{}
	case openapi3.TypeString:
		switch schema.Format {
		case "date":
			return "2024-01-01"
		case "date-time":
			return "2024-01-01T00:00:00Z"
		case "email":
			return "user@example.com"
		case "uuid":
			return "{{$uuid()}}"
		}
		return "example"
	case openapi3.TypeInteger:
		if schema.Min != nil {
			return int64(*schema.Min)
		}
		return 1
	case openapi3.TypeNumber:
		if schema.Min != nil {
			return *schema.Min
		}
		return 1.0
	case openapi3.TypeBoolean:
		return true
	}
	return nil
}
