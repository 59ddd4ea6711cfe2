package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitfake/packages/journal"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	formatFlag = "console"
	decodeMetadataFlag = nil
	decodeEnvFileFlag = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

const rawRequests = "POST /users?page=2 HTTP/1.1\r\n" +
	"Host: api.local\r\n" +
	"Content-Type: application/json\r\n" +
	"Cookie: sid=42\r\n" +
	"Content-Length: 14\r\n" +
	"\r\n" +
	`{"name":"ann"}` +
	"\r\n" +
	"GET /health HTTP/1.1\r\n" +
	"Host: api.local\r\n" +
	"\r\n"

func TestDecode_JSON(t *testing.T) {
	out, err := execute(t, rawRequests, "decode", "-o", "json", "--no-color", "-m", "APP_ENV=test")
	require.NoError(t, err)

	var doc struct {
		Requests []struct {
			Method      string         `json:"method"`
			URI         string         `json:"uri"`
			ParsedBody  map[string]any `json:"parsedBody"`
			Cookies     map[string]any `json:"cookies"`
			Environment map[string]any `json:"environment"`
		} `json:"requests"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Requests, 2)

	first := doc.Requests[0]
	assert.Equal(t, "POST", first.Method)
	assert.Equal(t, "http://api.local/users?page=2", first.URI)
	assert.Equal(t, map[string]any{"name": "ann"}, first.ParsedBody)
	assert.Equal(t, map[string]any{"sid": "42"}, first.Cookies)
	assert.Equal(t, "test", first.Environment["APP_ENV"])

	assert.Equal(t, "GET", doc.Requests[1].Method)
	assert.Nil(t, doc.Requests[1].ParsedBody)
}

func TestDecode_ConsoleFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "req.txt")
	require.NoError(t, os.WriteFile(path, []byte(rawRequests), 0644))

	out, err := execute(t, "", "decode", path, "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "POST http://api.local/users?page=2 HTTP/1.1")
	assert.Contains(t, out, "GET http://api.local/health HTTP/1.1")
}

func TestDecode_InvalidRequest(t *testing.T) {
	_, err := execute(t, "not http\r\n\r\n", "decode", "--no-color")
	require.Error(t, err)
	assert.Equal(t, ExitDecodeError, exitCode(err))
}

func TestDecode_UnknownFormat(t *testing.T) {
	_, err := execute(t, rawRequests, "decode", "-o", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestJournalCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := journal.Open("sqlite://" + path)
	require.NoError(t, err)
	j := journal.New(journal.WithSink(store))
	_, err = j.Record(journal.Entry{Method: "GET", URL: "http://api.local/a", Status: 200, Duration: time.Millisecond})
	require.NoError(t, err)
	_, err = j.Record(journal.Entry{Method: "GET", URL: "http://api.local/b", Error: "boom", Duration: time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	out, err := execute(t, "", "journal", "sqlite://"+path, "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "Requests: 1 failed, 2 total")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "hitfake version dev")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitFailure, exitCode(errors.New("plain")))
	assert.Equal(t, ExitConfigError, exitCode(withExitCode(ExitConfigError, "bad %s", "config")))
}
