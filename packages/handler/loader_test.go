package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitfake/packages/message"
)

const routesYAML = `
default:
  status: 418
  json: {error: "no route"}
routes:
  - name: get user
    when:
      - {field: method, equal: GET}
      - {field: uri.path, match: '^/users/\d+$'}
    response:
      headers:
        X-Request: '{{header.x-request-id}}'
      json: {id: 1, name: ann}
  - name: create user
    when:
      - {field: method, equal: POST}
      - {field: header.content-type, contains: json}
    schema:
      type: object
      required: [name]
    response:
      status: 201
      body: 'created {{json.name}}'
  - name: search
    when:
      - {field: uri.path, equal: /search}
    any:
      - {field: query.q, present: true}
      - {field: query.tag, equal: go}
    response:
      status: 200
      reason: Found It
`

func TestLoadRoutes(t *testing.T) {
	h, err := LoadRoutes([]byte(routesYAML))
	require.NoError(t, err)
	require.Len(t, h.Routes(), 3)
	assert.Equal(t, "get user", h.Routes()[0].Name())

	resp, err := h.Handle(newRequest(t, "GET", "http://api.local/users/7", message.Header{"X-Request-Id": {"r1"}}, ""))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "r1", resp.Header.Get("X-Request"))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"id": 1, "name": "ann"}`, readBody(t, resp))

	resp, err = h.Handle(newRequest(t, "POST", "http://api.local/users", message.Header{"Content-Type": {"application/json"}}, `{"name": "bob"}`))
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "created bob", readBody(t, resp))

	resp, err = h.Handle(newRequest(t, "POST", "http://api.local/users", message.Header{"Content-Type": {"application/json"}}, `{"age": 3}`))
	require.NoError(t, err)
	assert.Equal(t, 418, resp.StatusCode, "schema mismatch falls through to the default")
	assert.JSONEq(t, `{"error": "no route"}`, readBody(t, resp))

	resp, err = h.Handle(newRequest(t, "GET", "http://api.local/search?tag=go", nil, ""))
	require.NoError(t, err)
	assert.Equal(t, "200 Found It", resp.Status)

	resp, err = h.Handle(newRequest(t, "GET", "http://api.local/search?tag=rust", nil, ""))
	require.NoError(t, err)
	assert.Equal(t, 418, resp.StatusCode)
}

func TestLoadRoutes_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"invalid yaml", "routes: [\n"},
		{"unknown field", "routes:\n  - when:\n      - {field: cookie.x, equal: y}\n"},
		{"no operator", "routes:\n  - when:\n      - {field: method}\n"},
		{"unknown field in any", "routes:\n  - any:\n      - {field: nope, equal: y}\n"},
		{"bad schema", "routes:\n  - schema: {type: 5}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRoutes([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadRoutesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(routesYAML), 0644))

	h, err := LoadRoutesFile(path)
	require.NoError(t, err)
	assert.Len(t, h.Routes(), 3)

	_, err = LoadRoutesFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRoutes_EmptyDocument(t *testing.T) {
	h, err := LoadRoutes([]byte(""))
	require.NoError(t, err)

	resp, err := h.Handle(newRequest(t, "GET", "http://api.local/", nil, ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
