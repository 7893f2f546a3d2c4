package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/folio/internal/importer"
	"github.com/cleared-dev/folio/internal/portfolio"
	"github.com/cleared-dev/folio/internal/report"
	"github.com/cleared-dev/folio/internal/trades"
)

func newTradeImportCommand(flags *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Apply trades from a broker CSV export",
		Long: "Apply every buy and sell in a broker CSV export to holdings and history.\n" +
			"Without a file, every CSV in <repo>/import/ is imported and moved to import/processed/.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := importer.DefaultRegistry()
			parser := registry.Get(format)
			if parser == nil {
				return fmt.Errorf("unknown format %q (available: %s)", format, strings.Join(registry.Formats(), ", "))
			}

			a, err := flags.openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) > 0 {
				return importFile(cmd, a, parser, args[0])
			}

			files, err := importer.Scan(a.root)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No CSV files in %s.\n", filepath.Join(a.root, importer.Dir))
				return nil
			}
			for _, f := range files {
				if err := importFile(cmd, a, parser, f.Path); err != nil {
					return err
				}
				if err := importer.MarkProcessed(a.root, f.Name); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "generic", "export format")

	return cmd
}

// importFile parses path and applies each trade in order. Every trade is
// validated first, so a bad row rejects the file before anything is written.
// A write failure part way through still leaves the earlier trades recorded.
func importFile(cmd *cobra.Command, a *app, parser importer.Parser, path string) error {
	res, err := importer.ParseFile(parser, path)
	if err != nil {
		return err
	}

	name := filepath.Base(path)
	for i, t := range res.Trades {
		if err := trades.Validate(t); err != nil {
			return fmt.Errorf("%s trade %d (%s %s): %w; nothing imported", name, i+1, t.Side, t.Ticker, err)
		}
	}

	w := cmd.OutOrStdout()
	for i, t := range res.Trades {
		out, err := a.portfolio.ApplyTrade(cmd.Context(), portfolio.TradeParams{
			Date:      t.Date,
			Ticker:    t.Ticker,
			Side:      t.Side,
			UnitPrice: t.UnitPrice,
			Quantity:  t.Quantity,
		})
		if err != nil {
			if i > 0 {
				a.commit(fmt.Sprintf("import: %d trades from %s", i, name))
			}
			return fmt.Errorf("%s trade %d (%s %s): %w", name, i+1, t.Side, t.Ticker, err)
		}
		if out.Floored {
			report.Warnings(w, []string{fmt.Sprintf("%s: sell exceeds the %s holding; quantity set to zero", name, t.Ticker)})
		}
	}
	for _, s := range res.Skipped {
		a.log.Info().Str("file", name).Str("row", s).Msg("Skipped non-trade row")
	}

	a.commit(fmt.Sprintf("import: %d trades from %s", len(res.Trades), name))
	fmt.Fprintf(w, "Imported %d trades from %s (%d rows skipped).\n", len(res.Trades), name, len(res.Skipped))
	return nil
}
