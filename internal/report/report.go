package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/cleared-dev/folio/internal/model"
	"github.com/cleared-dev/folio/internal/news"
	"github.com/cleared-dev/folio/internal/portfolio"
	"github.com/cleared-dev/folio/internal/prices"
	"github.com/cleared-dev/folio/internal/rebalance"
	"github.com/cleared-dev/folio/internal/trades"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	buyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	sellStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w, titleStyle.Render(title))
}

// Plan writes the holdings valuation followed by the buy and sell plans.
func Plan(w io.Writer, res portfolio.Result, currency string) {
	p := res.Plan

	if res.Fallback {
		fmt.Fprintln(w, warnStyle.Render("No saved holdings, showing the default portfolio."))
	}
	Warnings(w, res.Warnings)

	section(w, "Portfolio")
	t := newTable("Ticker", "Quantity", "Price", "Market Value", "Target", "Ideal Value")
	for _, l := range p.Lines {
		price := Money(l.Price, currency)
		if !l.Eligible {
			price = "n/a"
		}
		t.Row(l.Ticker, Quantity(l.Quantity), price, Money(l.MarketValue, currency), Percent(l.TargetWeightPercent), Money(l.IdealValue, currency))
	}
	fmt.Fprintln(w, t.String())

	fmt.Fprintf(w, "Market value %s  Budget %s  Simulated total %s\n\n",
		Money(p.TotalMarketValue, currency), Money(p.Budget, currency), Money(p.SimulatedTotal, currency))

	section(w, "Buy plan")
	if len(p.Buys) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("Nothing to buy."))
	} else {
		t := newTable("Ticker", "Shortfall", "Cash", "Shares")
		for _, l := range p.Buys {
			t.Row(l.Ticker, Money(l.Shortfall, currency), buyStyle.Render(Money(l.RecommendedCash, currency)), Quantity(l.RecommendedQuantity))
		}
		fmt.Fprintln(w, t.String())
		if p.Rationed {
			fmt.Fprintf(w, "Budget covers %s of the %s needed; each buy is funded at %s%%.\n",
				Money(p.Budget, currency), Money(p.TotalNeeded, currency), p.Ratio.Mul(hundred).StringFixed(1))
		} else {
			fmt.Fprintf(w, "All buys fully funded; %s of the budget is left over.\n", Money(p.Unspent(), currency))
		}
	}
	fmt.Fprintln(w)

	section(w, "Sell plan")
	if len(p.Sells) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("Nothing to sell."))
		return
	}
	st := newTable("Ticker", "Excess", "Shares", "Note")
	for _, l := range p.Sells {
		note := ""
		if l.ExceedsHolding {
			note = "more than held"
		}
		st.Row(l.Ticker, sellStyle.Render(Money(l.RecommendedCash, currency)), Quantity(l.RecommendedQuantity), note)
	}
	fmt.Fprintln(w, st.String())
}

// Holdings writes the saved holdings grid.
func Holdings(w io.Writer, hs []model.Holding, fallback bool) {
	if fallback {
		fmt.Fprintln(w, warnStyle.Render("No saved holdings, showing the default portfolio."))
	}
	t := newTable("Ticker", "Quantity", "Target")
	total := rebalance.TargetSum(hs)
	for _, h := range hs {
		t.Row(h.Ticker, Quantity(h.Quantity), Percent(h.TargetWeightPercent))
	}
	fmt.Fprintln(w, t.String())
	if !total.Equal(hundred) {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("Target weights sum to %s, not 100%%.", Percent(total))))
	}
}

// History writes the trade log with running totals.
func History(w io.Writer, recs []model.TradeRecord, currency string) {
	if len(recs) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No trades recorded."))
		return
	}
	t := newTable("Date", "Ticker", "Side", "Price", "Quantity", "Total")
	for _, r := range recs {
		t.Row(r.Date.Format("2006-01-02"), r.Ticker, string(r.Side), Money(r.UnitPrice, currency), Quantity(r.Quantity), Money(r.Total, currency))
	}
	fmt.Fprintln(w, t.String())

	bought, sold := trades.Totals(recs)
	fmt.Fprintf(w, "Bought %s  Sold %s\n", Money(bought, currency), Money(sold, currency))
}

// News writes the headline panel for the selected keyword.
func News(w io.Writer, state news.ViewState, articles []model.Article, fetchErr error) {
	section(w, fmt.Sprintf("News: %s", state.Query()))
	if len(state.Keywords) > 0 {
		fmt.Fprintln(w, mutedStyle.Render("Keywords: "+strings.Join(state.Keywords, " | ")))
	}
	if fetchErr != nil {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("Could not load news: %v", fetchErr)))
		return
	}
	if len(articles) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No headlines found."))
		return
	}
	for i, a := range articles {
		line := fmt.Sprintf("%d. %s", i+1, a.Title)
		var meta []string
		if a.Source != "" {
			meta = append(meta, a.Source)
		}
		if !a.Published.IsZero() {
			meta = append(meta, a.Published.Format("2006-01-02 15:04"))
		}
		if len(meta) > 0 {
			line += mutedStyle.Render(" (" + strings.Join(meta, ", ") + ")")
		}
		fmt.Fprintln(w, line)
		if a.Link != "" {
			fmt.Fprintln(w, "   "+mutedStyle.Render(a.Link))
		}
	}
}

// Failures lists tickers that could not be priced.
func Failures(w io.Writer, failures []prices.Failure) {
	if len(failures) == 0 {
		return
	}
	section(w, "Unpriced")
	t := newTable("Ticker", "Reason")
	for _, f := range failures {
		t.Row(f.Ticker, f.Err.Error())
	}
	fmt.Fprintln(w, t.String())
}

// Warnings writes one line per warning.
func Warnings(w io.Writer, warnings []string) {
	for _, msg := range warnings {
		fmt.Fprintln(w, warnStyle.Render("warning: "+msg))
	}
}
