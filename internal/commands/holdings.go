package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/folio/internal/holdings"
	"github.com/cleared-dev/folio/internal/model"
	"github.com/cleared-dev/folio/internal/report"
)

func newHoldingsCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holdings",
		Short: "View and edit saved holdings",
	}
	cmd.AddCommand(
		newHoldingsListCommand(flags),
		newHoldingsSetCommand(flags),
		newHoldingsRemoveCommand(flags),
	)
	return cmd
}

func newHoldingsListCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List holdings and target weights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.portfolio.Holdings(cmd.Context())
			if err != nil {
				return err
			}
			report.Holdings(cmd.OutOrStdout(), res.Holdings, res.Fallback)
			return nil
		},
	}
}

func newHoldingsSetCommand(flags *globalFlags) *cobra.Command {
	var qty, target string

	cmd := &cobra.Command{
		Use:   "set <ticker>",
		Short: "Add a holding or update its quantity and target weight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qtyChanged := cmd.Flags().Changed("qty")
			targetChanged := cmd.Flags().Changed("target")
			if !qtyChanged && !targetChanged {
				return fmt.Errorf("nothing to set: pass --qty and/or --target")
			}
			q, err := parseDecimalFlag("qty", qty)
			if err != nil && qtyChanged {
				return err
			}
			w, err := parseDecimalFlag("target", target)
			if err != nil && targetChanged {
				return err
			}

			a, err := flags.openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			ticker := model.NormalizeTicker(args[0])
			out, err := a.portfolio.Edit(cmd.Context(), func(cur []model.Holding) ([]model.Holding, error) {
				h := model.Holding{Ticker: ticker}
				if i := holdings.Find(cur, ticker); i >= 0 {
					h = cur[i]
				}
				if qtyChanged {
					h.Quantity = q
				}
				if targetChanged {
					h.TargetWeightPercent = w
				}
				return holdings.Upsert(cur, h), nil
			})
			if err != nil {
				return err
			}
			a.commit("holdings: set " + ticker)
			report.Holdings(cmd.OutOrStdout(), out, false)
			return nil
		},
	}

	cmd.Flags().StringVar(&qty, "qty", "0", "shares held")
	cmd.Flags().StringVar(&target, "target", "0", "target weight in percent")

	return cmd
}

func newHoldingsRemoveCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <ticker>",
		Short: "Remove a holding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			ticker := model.NormalizeTicker(args[0])
			out, err := a.portfolio.Edit(cmd.Context(), func(cur []model.Holding) ([]model.Holding, error) {
				out, ok := holdings.Remove(cur, ticker)
				if !ok {
					return nil, fmt.Errorf("no holding for %s", ticker)
				}
				return out, nil
			})
			if err != nil {
				return err
			}
			a.commit("holdings: remove " + ticker)
			report.Holdings(cmd.OutOrStdout(), out, false)
			return nil
		},
	}
}
