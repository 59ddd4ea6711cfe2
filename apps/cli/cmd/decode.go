package cmd

import (
	"bufio"
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/hitfake/packages/core/env"
	"github.com/abdul-hamid-achik/hitfake/packages/message"
)

var (
	decodeEnvFileFlag  string
	decodeMetadataFlag map[string]string
)

var decodeCmd = &cobra.Command{
	Use:   "decode [file|-]",
	Short: "Print the server-side view of raw HTTP requests",
	Long: `Read one or more raw HTTP/1.x requests and print what a fake handler
would receive: canonical headers, cookies, environment, query and body
parameters, and uploaded files.

Examples:
  hitfake decode request.txt
  printf 'GET /?a[]=1 HTTP/1.1\r\nHost: api.local\r\n\r\n' | hitfake decode
  hitfake decode upload.txt -o json --metadata APP_ENV=test`,
	Args: cobra.MaximumNArgs(1),
	RunE: decodeCommand,
}

func init() {
	decodeCmd.Flags().StringVar(&decodeEnvFileFlag, "env-file", "", "Load request metadata from a .env file")
	decodeCmd.Flags().StringToStringVarP(&decodeMetadataFlag, "metadata", "m", nil, "Request metadata (KEY=VALUE)")
}

func decodeCommand(cmd *cobra.Command, args []string) error {
	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		file, err := os.Open(args[0])
		if err != nil {
			return withExitCode(ExitUsageError, "cannot open %s: %w", args[0], err)
		}
		defer file.Close()
		in = file
	}

	metadata, err := decodeMetadata()
	if err != nil {
		return err
	}

	formatter, err := newFormatter(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	requests, err := decodeRequests(in, metadata)
	for _, r := range requests {
		formatter.FormatRequest(r)
	}
	if err != nil {
		formatter.FormatError(err)
	}
	if ferr := flush(formatter); ferr != nil {
		return ferr
	}
	if err != nil {
		return withExitCode(ExitDecodeError, "invalid request #%d: %w", len(requests)+1, err)
	}
	return nil
}

func decodeMetadata() (map[string]any, error) {
	envFile := decodeEnvFileFlag
	if envFile == "" {
		envFile = cfg.EnvFile
	}
	fromEnv, err := env.LoadMetadata(envFile, cfg.EnvPrefix)
	if err != nil {
		return nil, withExitCode(ExitConfigError, "failed to load metadata: %w", err)
	}
	flags := make(map[string]any, len(decodeMetadataFlag))
	for k, v := range decodeMetadataFlag {
		flags[k] = v
	}
	return env.Merge(cfg.Metadata, fromEnv, flags), nil
}

// decodeRequests reads requests until EOF. The requests decoded before a
// malformed one are returned along with the error.
func decodeRequests(in io.Reader, metadata map[string]any) ([]*message.ServerRequest, error) {
	br := bufio.NewReader(in)
	var requests []*message.ServerRequest
	for {
		if _, err := br.Peek(1); errors.Is(err, io.EOF) {
			return requests, nil
		}
		req, err := http.ReadRequest(br)
		if err != nil {
			return requests, err
		}
		sr, err := message.NewServerRequest(req, metadata)
		req.Body.Close()
		if err != nil {
			return requests, err
		}
		logger.Debug("decoded request", zap.String("method", sr.Method()), zap.String("uri", sr.URL().String()))
		requests = append(requests, sr)
		skipBlankLines(br)
	}
}

func skipBlankLines(br *bufio.Reader) {
	for {
		b, err := br.Peek(1)
		if err != nil || (b[0] != '\r' && b[0] != '\n') {
			return
		}
		_, _ = br.ReadByte()
	}
}
