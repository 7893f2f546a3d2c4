package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/folio/internal/logging"
	"github.com/cleared-dev/folio/internal/news"
	"github.com/cleared-dev/folio/internal/report"
)

func newNewsCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "news [keyword]",
		Short: "Show market headlines for a keyword",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := flags.loadConfig(cmd, true)
			if err != nil {
				return err
			}
			log := logging.New(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

			state := news.NewViewState(cfg.News.Keywords)
			if len(args) > 0 {
				state = state.Select(args[0])
			}

			articles, err := news.NewGoogleNews(cfg.News).Search(cmd.Context(), state.Query())
			if err != nil {
				log.Warn().Err(err).Str("query", state.Query()).Msg("News fetch failed")
			}
			report.News(cmd.OutOrStdout(), state, articles, err)
			return nil
		},
	}
}
