package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/hitfake/packages/core/config"
	"github.com/abdul-hamid-achik/hitfake/packages/core/env"
	"github.com/abdul-hamid-achik/hitfake/packages/fake"
	"github.com/abdul-hamid-achik/hitfake/packages/handler"
	"github.com/abdul-hamid-achik/hitfake/packages/journal"
	"github.com/abdul-hamid-achik/hitfake/packages/mock"
)

var (
	servePortFlag      int
	serveDelayFlag     string
	serveRateFlag      float64
	serveBurstFlag     int
	serveEnvFileFlag   string
	serveEnvPrefixFlag string
	serveJournalFlag   string
	serveWatchFlag     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve [routes.yaml]",
	Short: "Serve a routes file over HTTP",
	Long: `Start an HTTP server that answers from a YAML routes file. Without a
routes file every request is answered by the echo handler, which returns a
JSON description of the request it received.

The server:
- Matches routes in file order; the first matching route wins
- Fills response templates from the request ({{header.x-id}}, {{json.name}})
- Reloads the routes file on change with --watch
- Answers 429 once --rate requests per second are exceeded

Examples:
  hitfake serve
  hitfake serve routes.yaml --port 8080 --watch
  hitfake serve routes.yaml --delay 100ms --rate 5 --burst 10
  hitfake serve routes.yaml --journal sqlite://journal.db`,
	Args: cobra.MaximumNArgs(1),
	RunE: serveCommand,
}

func init() {
	serveCmd.Flags().IntVarP(&servePortFlag, "port", "p", 3000, "Port to listen on")
	serveCmd.Flags().StringVarP(&serveDelayFlag, "delay", "d", "0", "Delay to add to all responses (e.g., 100ms, 1s)")
	serveCmd.Flags().Float64Var(&serveRateFlag, "rate", 0, "Requests per second before answering 429 (0 disables)")
	serveCmd.Flags().IntVar(&serveBurstFlag, "burst", 1, "Requests allowed above the rate in a burst")
	serveCmd.Flags().StringVar(&serveEnvFileFlag, "env-file", "", "Load request metadata from a .env file")
	serveCmd.Flags().StringVar(&serveEnvPrefixFlag, "env-prefix", "", "Import process variables with this prefix as request metadata")
	serveCmd.Flags().StringVar(&serveJournalFlag, "journal", "", "Persist served requests to a SQLite journal (sqlite://path)")
	serveCmd.Flags().BoolVarP(&serveWatchFlag, "watch", "w", false, "Reload the routes file when it changes")
}

func serveOverrides(cmd *cobra.Command, args []string) (*config.Config, error) {
	flags := &config.Config{}
	if len(args) == 1 {
		flags.Routes = args[0]
	}
	if cmd.Flags().Changed("port") {
		flags.Port = servePortFlag
	}
	if cmd.Flags().Changed("delay") {
		delay, err := time.ParseDuration(serveDelayFlag)
		if err != nil {
			return nil, withExitCode(ExitUsageError, "invalid delay value %q: %w", serveDelayFlag, err)
		}
		flags.Delay = int(delay.Milliseconds())
	}
	if cmd.Flags().Changed("rate") {
		flags.RateLimit = serveRateFlag
	}
	if cmd.Flags().Changed("burst") {
		flags.Burst = serveBurstFlag
	}
	if cmd.Flags().Changed("env-file") {
		flags.EnvFile = serveEnvFileFlag
	}
	if cmd.Flags().Changed("env-prefix") {
		flags.EnvPrefix = serveEnvPrefixFlag
	}
	if cmd.Flags().Changed("journal") {
		flags.JournalPath = serveJournalFlag
	}
	if cmd.Flags().Changed("watch") {
		flags.Watch = config.BoolPtr(serveWatchFlag)
	}
	return cfg.Merge(flags), nil
}

func serveCommand(cmd *cobra.Command, args []string) error {
	c, err := serveOverrides(cmd, args)
	if err != nil {
		return err
	}

	fromEnv, err := env.LoadMetadata(c.EnvFile, c.EnvPrefix)
	if err != nil {
		return withExitCode(ExitConfigError, "failed to load metadata: %w", err)
	}
	metadata := env.Merge(c.Metadata, fromEnv)

	journalOpts := []journal.Option{journal.WithLimit(10_000)}
	if c.JournalPath != "" {
		store, err := journal.Open(c.JournalPath)
		if err != nil {
			return withExitCode(ExitConfigError, "failed to open journal: %w", err)
		}
		defer store.Close()
		journalOpts = append(journalOpts, journal.WithSink(store))
	}
	j := journal.New(journalOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h, err := serveHandler(ctx, c)
	if err != nil {
		return err
	}

	server := mock.NewServer(h,
		mock.WithPort(c.Port),
		mock.WithDelay(c.DelayDuration()),
		mock.WithVerbose(c.GetVerbose()),
		mock.WithMetadata(metadata),
		mock.WithJournal(j),
		mock.WithLogger(logger),
	)

	fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://localhost%s\n", server.Addr())
	if err := server.StartWithContext(ctx); err != nil {
		return err
	}

	formatter, err := newFormatter(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	formatter.FormatJournal(j.Entries(), j.Stats())
	return flush(formatter)
}

// serveHandler builds the handler chain: routes (or echo), then throttling.
// With watch enabled the routes file is reloaded in the background until ctx
// is done.
func serveHandler(ctx context.Context, c *config.Config) (fake.Handler, error) {
	throttle := func(h fake.Handler) fake.Handler {
		if c.RateLimit <= 0 {
			return h
		}
		return handler.Throttle(h, c.RateLimit, c.Burst)
	}

	if c.Routes == "" {
		logger.Info("no routes file, echoing requests")
		return throttle(handler.Echo()), nil
	}

	if !c.GetWatch() {
		h, err := handler.LoadRoutesFile(c.Routes)
		if err != nil {
			return nil, withExitCode(ExitConfigError, "%w", err)
		}
		logger.Info("routes loaded", zap.String("path", c.Routes), zap.Int("routes", len(h.Routes())))
		return throttle(h), nil
	}

	w, err := handler.NewWatcher(c.Routes, handler.WithWatcherLogger(logger), handler.WithWrap(throttle))
	if err != nil {
		return nil, withExitCode(ExitConfigError, "%w", err)
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			logger.Error("routes watcher stopped", zap.Error(err))
		}
	}()
	logger.Info("watching routes", zap.String("path", c.Routes))
	return w.Handler(), nil
}
