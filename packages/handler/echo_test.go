package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitfake/packages/message"
)

func TestEcho(t *testing.T) {
	r := newRequest(t, "POST", "http://api.local/echo?return=201&cookie[]=a&cookie[]=b",
		message.Header{"Content-Type": {"application/json"}, "Cookie": {"session=xyz"}}, `{"k":"v"}`)

	resp, err := Echo().Handle(r)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, []string{"a=ok", "b=ok"}, resp.Header.Values("Set-Cookie"))

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &body))
	assert.Equal(t, "1.1", body["protocol"])
	assert.Equal(t, "POST", body["method"])
	assert.Equal(t, map[string]any{"k": "v"}, body["body"])
	assert.Equal(t, map[string]any{"session": "xyz"}, body["cookies"])
	assert.Equal(t, "application/json", body["headers"].(map[string]any)["Content-Type"])
	assert.Equal(t, "POST", body["server"].(map[string]any)["REQUEST_METHOD"])
	assert.Empty(t, body["files"])
}

func TestEcho_Redirect(t *testing.T) {
	resp, err := Echo().Handle(newRequest(t, "GET", "http://api.local/?redirect=/next", nil, ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
	assert.Equal(t, "/next", resp.Header.Get("Location"))

	resp, err = Echo().Handle(newRequest(t, "GET", "http://api.local/?redirect=/next&return=307", nil, ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)

	resp, err = Echo().Handle(newRequest(t, "GET", "http://api.local/?return=999", nil, ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEcho_Files(t *testing.T) {
	body := strings.Join([]string{
		"--b",
		`Content-Disposition: form-data; name="avatar"; filename="a.png"`,
		"Content-Type: image/png",
		"",
		"abc",
		"--b",
		`Content-Disposition: form-data; name="docs[]"; filename="1.txt"`,
		"",
		"one",
		"--b",
		`Content-Disposition: form-data; name="meta[cv]"; filename="cv.pdf"`,
		"",
		"pdf",
		"--b--",
	}, "\r\n")
	r := newRequest(t, "POST", "http://api.local/upload",
		message.Header{"Content-Type": {"multipart/form-data; boundary=b"}}, body)

	resp, err := Echo().Handle(r)
	require.NoError(t, err)

	var decoded struct {
		Files []EchoFile `json:"files"`
	}
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &decoded))

	require.Len(t, decoded.Files, 3)
	assert.Equal(t, "avatar", decoded.Files[0].Field)
	assert.Equal(t, "image/png", decoded.Files[0].Mime)
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", decoded.Files[0].MD5)
	assert.Equal(t, "a9993e364706816aba3e25717850c26c9cd0d89d", decoded.Files[0].SHA1)
	assert.Equal(t, "docs[]", decoded.Files[1].Field)
	assert.Equal(t, "1.txt", decoded.Files[1].Name)
	assert.Equal(t, "meta[cv]", decoded.Files[2].Field)
}
