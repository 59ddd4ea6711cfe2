package output

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/hitfake/packages/journal"
	"github.com/abdul-hamid-achik/hitfake/packages/message"
)

// Formatter renders decoded requests and journal summaries.
type Formatter interface {
	FormatRequest(r *message.ServerRequest)
	FormatJournal(entries []journal.Entry, stats journal.Stats)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable is implemented by formatters that buffer their output.
type Flushable interface {
	Flush() error
}

// formatValue formats a value for display, truncating or summarizing large values
func formatValue(v any, maxLen int) string {
	switch val := v.(type) {
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	}
	str := fmt.Sprintf("%v", v)
	if maxLen > 0 && len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

// WithVerbose prints the raw body and the full environment.
func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatRequest(r *message.ServerRequest) {
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s %s %s\n", bold(r.Method()), r.URL().String(), cyan("HTTP/"+r.ProtocolVersion()))

	headers := r.Headers()
	if names := headers.Names(); len(names) > 0 {
		fmt.Fprintf(f.writer, "\n%s\n", bold("Headers:"))
		for _, name := range names {
			fmt.Fprintf(f.writer, "  %s: %s\n", cyan(name), headers.Line(name))
		}
	}

	if cookies := r.Cookies(); len(cookies) > 0 {
		fmt.Fprintf(f.writer, "\n%s\n", bold("Cookies:"))
		for _, name := range sortedKeys(cookies) {
			fmt.Fprintf(f.writer, "  %s = %s\n", cyan(name), cookies[name])
		}
	}

	f.formatParams("Query:", r.QueryParams())
	f.formatParams("Parsed body:", r.ParsedBody())

	if files := message.FlattenFiles(r.UploadedFiles()); len(files) > 0 {
		fmt.Fprintf(f.writer, "\n%s\n", bold("Files:"))
		for _, ff := range files {
			fmt.Fprintf(f.writer, "  %s %s (%s, %d bytes)", cyan(ff.Field), ff.File.ClientFilename(), ff.File.ClientMediaType(), ff.File.Size())
			if ff.File.ErrorCode() != message.UploadOK {
				fmt.Fprintf(f.writer, " %s", yellow(fmt.Sprintf("error %d", ff.File.ErrorCode())))
			}
			fmt.Fprintf(f.writer, "\n")
		}
	}

	if f.verbose {
		env := r.Environment()
		fmt.Fprintf(f.writer, "\n%s\n", bold("Environment:"))
		for _, key := range sortedKeys(env) {
			fmt.Fprintf(f.writer, "  %s = %s\n", cyan(key), env.String(key))
		}
		if body := r.Body(); len(body) > 0 {
			fmt.Fprintf(f.writer, "\n%s\n%s\n", bold("Body:"), body)
		}
	}
	fmt.Fprintf(f.writer, "\n")
}

func (f *ConsoleFormatter) formatParams(title string, params *message.Params) {
	if params.Empty() {
		return
	}
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n", bold(title))
	for _, key := range params.Keys() {
		child := params.Get(key)
		var value any
		if f.verbose || !child.IsContainer() {
			data, err := child.MarshalJSON()
			if err != nil {
				value = err
			} else {
				value = string(data)
			}
		} else {
			value = child.Interface()
		}
		fmt.Fprintf(f.writer, "  %s = %s\n", cyan(key), formatValue(value, 100))
	}
}

func (f *ConsoleFormatter) FormatJournal(entries []journal.Entry, stats journal.Stats) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	if f.verbose {
		for _, e := range entries {
			switch {
			case e.Failed():
				fmt.Fprintf(f.writer, "  %s %s %s %s\n", red("x"), e.Method, e.URL, red(fmt.Sprintf("(%s)", e.Error)))
			case e.Status >= 400:
				fmt.Fprintf(f.writer, "  %s %s %s %s\n", yellow(e.Status), e.Method, e.URL, cyan(fmt.Sprintf("(%dms)", e.Duration.Milliseconds())))
			default:
				fmt.Fprintf(f.writer, "  %s %s %s %s\n", green(e.Status), e.Method, e.URL, cyan(fmt.Sprintf("(%dms)", e.Duration.Milliseconds())))
			}
		}
	}

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Requests: ")
	if stats.Errors > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", stats.Errors)))
	}
	fmt.Fprintf(f.writer, "%d total\n", stats.Total)
	if stats.Total > 0 {
		fmt.Fprintf(f.writer, "Latency:  min %s, mean %s, p50 %s, p95 %s, p99 %s, max %s\n",
			stats.Min, stats.Mean, stats.P50, stats.P95, stats.P99, stats.Max)
	}
	fmt.Fprintf(f.writer, "\n")
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("hitfake"), version)
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
