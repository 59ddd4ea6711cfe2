package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/abdul-hamid-achik/hitfake/packages/core/config"
	"github.com/abdul-hamid-achik/hitfake/packages/fake"
	"github.com/abdul-hamid-achik/hitfake/packages/output"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag  string
	verboseFlag bool
	noColorFlag bool
	formatFlag  string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "hitfake",
	Short: "In-process HTTP fakes for client tests.",
	Long: `hitfake turns HTTP client requests into fully populated server-side
requests and answers them from route files, without opening a socket.

The CLI serves the same route files over a real listener for manual
poking and decodes raw HTTP requests into their server-side view.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitFailure
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Config file (default: search the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging and detailed output")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVarP(&formatFlag, "output", "o", "console", "Output format: console, json")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(versionCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadConfig(configFlag)
	if err != nil {
		return withExitCode(ExitConfigError, "failed to load config: %w", err)
	}
	flags := &config.Config{}
	if cmd.Flags().Changed("verbose") {
		flags.Verbose = config.BoolPtr(verboseFlag)
	}
	if cmd.Flags().Changed("no-color") {
		flags.NoColor = config.BoolPtr(noColorFlag)
	}
	cfg = loaded.Merge(flags)

	logger, err = newLogger(cfg.GetVerbose())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	fake.SetLogger(logger)
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	zc.DisableStacktrace = true
	zc.DisableCaller = true
	return zc.Build()
}

func newFormatter(w io.Writer) (output.Formatter, error) {
	switch formatFlag {
	case "json":
		return output.NewJSONFormatter(output.JSONWithWriter(w)), nil
	case "console", "":
		return output.NewConsoleFormatter(
			output.WithWriter(w),
			output.WithVerbose(cfg.GetVerbose()),
			output.WithNoColor(cfg.GetNoColor()),
		), nil
	default:
		return nil, withExitCode(ExitUsageError, "unknown output format %q (want console or json)", formatFlag)
	}
}

func flush(f output.Formatter) error {
	if fl, ok := f.(output.Flushable); ok {
		return fl.Flush()
	}
	return nil
}
