package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/hitfake/packages/journal"
	"github.com/abdul-hamid-achik/hitfake/packages/message"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Requests []JSONRequest `json:"requests,omitempty"`
	Journal  *JSONJournal  `json:"journal,omitempty"`
	Errors   []string      `json:"errors,omitempty"`
	Version  string        `json:"version,omitempty"`
	Time     string        `json:"time"`
}

// JSONRequest represents a decoded server request
type JSONRequest struct {
	Method      string              `json:"method"`
	URI         string              `json:"uri"`
	Protocol    string              `json:"protocol"`
	Headers     map[string][]string `json:"headers"`
	Cookies     map[string]string   `json:"cookies"`
	Query       *message.Params     `json:"query"`
	ParsedBody  *message.Params     `json:"parsedBody"`
	Files       []JSONFile          `json:"files"`
	Environment message.Environment `json:"environment"`
	Body        string              `json:"body"`
}

// JSONFile represents an uploaded file
type JSONFile struct {
	Field string `json:"field"`
	Name  string `json:"name"`
	Mime  string `json:"mime"`
	Size  int    `json:"size"`
	Error int    `json:"error"`
}

// JSONJournal represents journal entries and their statistics
type JSONJournal struct {
	Stats   journal.Stats   `json:"stats"`
	Entries []journal.Entry `json:"entries"`
}

// JSONFormatter formats requests and journals as one JSON document
type JSONFormatter struct {
	writer io.Writer
	output JSONOutput
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatRequest(r *message.ServerRequest) {
	f.output.Requests = append(f.output.Requests, NewJSONRequest(r))
}

// NewJSONRequest converts r into its JSON representation.
func NewJSONRequest(r *message.ServerRequest) JSONRequest {
	files := make([]JSONFile, 0)
	for _, ff := range message.FlattenFiles(r.UploadedFiles()) {
		files = append(files, JSONFile{
			Field: ff.Field,
			Name:  ff.File.ClientFilename(),
			Mime:  ff.File.ClientMediaType(),
			Size:  ff.File.Size(),
			Error: int(ff.File.ErrorCode()),
		})
	}
	return JSONRequest{
		Method:      r.Method(),
		URI:         r.URL().String(),
		Protocol:    r.ProtocolVersion(),
		Headers:     r.Headers(),
		Cookies:     r.Cookies(),
		Query:       r.QueryParams(),
		ParsedBody:  r.ParsedBody(),
		Files:       files,
		Environment: r.Environment(),
		Body:        string(r.Body()),
	}
}

func (f *JSONFormatter) FormatJournal(entries []journal.Entry, stats journal.Stats) {
	if entries == nil {
		entries = []journal.Entry{}
	}
	f.output.Journal = &JSONJournal{Stats: stats, Entries: entries}
}

func (f *JSONFormatter) FormatError(err error) {
	f.output.Errors = append(f.output.Errors, err.Error())
}

func (f *JSONFormatter) FormatHeader(version string) {
	f.output.Version = version
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush() error {
	f.output.Time = time.Now().Format(time.RFC3339)
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(f.output)
}
