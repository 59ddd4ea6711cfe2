package handler

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitfake/packages/message"
)

func newRequest(t *testing.T, method, rawURL string, header message.Header, body string) *message.ServerRequest {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return message.New(message.Message{Method: method, URL: u, Header: header, Body: []byte(body)}, nil)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}
