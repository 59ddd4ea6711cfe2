package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitfake/packages/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal <sqlite://path>",
	Short: "Summarize a persisted request journal",
	Long: `Read the entries written by "hitfake serve --journal" and print them
with latency statistics.

Examples:
  hitfake journal sqlite://journal.db
  hitfake journal journal.db -o json`,
	Args: cobra.ExactArgs(1),
	RunE: journalCommand,
}

func journalCommand(cmd *cobra.Command, args []string) error {
	store, err := journal.Open(args[0])
	if err != nil {
		return withExitCode(ExitConfigError, "failed to open journal: %w", err)
	}
	defer store.Close()

	entries, err := store.All()
	if err != nil {
		return err
	}

	j := journal.New()
	for _, e := range entries {
		if _, err := j.Record(e); err != nil {
			return err
		}
	}

	formatter, err := newFormatter(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	formatter.FormatJournal(j.Entries(), j.Stats())
	return flush(formatter)
}
