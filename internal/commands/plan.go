package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/folio/internal/holdings"
	"github.com/cleared-dev/folio/internal/portfolio"
	"github.com/cleared-dev/folio/internal/report"
)

func newPlanCommand(flags *globalFlags) *cobra.Command {
	var budget string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Price holdings and compute the buy and sell plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.openApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := a.budgetFlag(cmd, budget)
			if err != nil {
				return err
			}

			res, err := a.portfolio.Snapshot(cmd.Context(), b)
			if err != nil {
				return err
			}
			renderResult(cmd, a, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&budget, "budget", "0", "cash available to invest")

	return cmd
}

func newSaveCommand(flags *globalFlags) *cobra.Command {
	var file, budget string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Replace saved holdings with an edited CSV grid, then plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("opening %s: %w", file, err)
			}
			grid, err := holdings.ReadHoldings(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("reading %s: %w", file, err)
			}

			a, err := flags.openApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := a.budgetFlag(cmd, budget)
			if err != nil {
				return err
			}

			res, err := a.portfolio.SaveAndCompute(cmd.Context(), grid, b)
			if err != nil {
				return err
			}
			a.commit(fmt.Sprintf("holdings: save %d rows", len(res.Holdings)))
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d holdings.\n\n", len(res.Holdings))
			renderResult(cmd, a, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "CSV file with "+holdings.Header+" columns")
	_ = cmd.MarkFlagRequired("file")
	cmd.Flags().StringVar(&budget, "budget", "0", "cash available to invest")

	return cmd
}

func renderResult(cmd *cobra.Command, a *app, res portfolio.Result) {
	w := cmd.OutOrStdout()
	report.Plan(w, res, a.cfg.Portfolio.Currency)
	report.Failures(w, res.Failures)
}
