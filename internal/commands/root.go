package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/folio/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "folio",
		Short:   "Portfolio rebalancing against target weights",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.repo, "repo", ".", "project directory")
	pf.StringVar(&flags.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.BoolVar(&flags.pretty, "pretty", true, "human-readable log output")

	rootCmd.AddCommand(
		newInitCommand(),
		newHoldingsCommand(flags),
		newPlanCommand(flags),
		newSaveCommand(flags),
		newTradeCommand(flags),
		newHistoryCommand(flags),
		newNewsCommand(flags),
		newServeCommand(flags),
		newDoctorCommand(flags),
	)

	return rootCmd
}
