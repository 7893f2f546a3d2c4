package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/folio/internal/model"
	"github.com/cleared-dev/folio/internal/portfolio"
	"github.com/cleared-dev/folio/internal/report"
)

func newTradeCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Record a manual buy or sell",
	}
	cmd.AddCommand(
		newTradeSideCommand(flags, model.SideBuy),
		newTradeSideCommand(flags, model.SideSell),
		newTradeImportCommand(flags),
	)
	return cmd
}

func newTradeSideCommand(flags *globalFlags, side model.Side) *cobra.Command {
	var price, qty, date string

	cmd := &cobra.Command{
		Use:   string(side) + " <ticker>",
		Short: fmt.Sprintf("Record a %s and update the holding", side),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseDecimalFlag("price", price)
			if err != nil {
				return err
			}
			q, err := parseDecimalFlag("qty", qty)
			if err != nil {
				return err
			}
			var when time.Time
			if date != "" {
				when, err = time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("--date %q must be YYYY-MM-DD", date)
				}
			}

			a, err := flags.openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.portfolio.ApplyTrade(cmd.Context(), portfolio.TradeParams{
				Date:      when,
				Ticker:    args[0],
				Side:      side,
				UnitPrice: p,
				Quantity:  q,
			})
			if err != nil {
				return err
			}

			r := res.Record
			a.commit(fmt.Sprintf("trade: %s %s %s @ %s", r.Side, r.Quantity, r.Ticker, r.UnitPrice))
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Recorded %s %s %s @ %s (%s) on %s\n",
				r.Side, report.Quantity(r.Quantity), r.Ticker,
				report.Money(r.UnitPrice, a.cfg.Portfolio.Currency),
				report.Money(r.Total, a.cfg.Portfolio.Currency),
				r.Date.Format("2006-01-02"))
			if res.Floored {
				report.Warnings(w, []string{fmt.Sprintf("sell exceeds the %s holding; quantity set to zero", r.Ticker)})
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&price, "price", "", "unit price")
	cmd.Flags().StringVar(&qty, "qty", "", "number of shares")
	cmd.Flags().StringVar(&date, "date", "", "trade date YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("price")
	_ = cmd.MarkFlagRequired("qty")

	return cmd
}

func newHistoryCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show recorded trades",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			recs, err := a.portfolio.History(cmd.Context())
			if err != nil {
				return err
			}
			report.History(cmd.OutOrStdout(), recs, a.cfg.Portfolio.Currency)
			return nil
		},
	}
}
