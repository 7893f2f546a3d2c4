package holdings

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/folio/internal/model"
)

// DefaultHoldings returns the starter portfolio used when nothing is saved
// and the config does not list one.
func DefaultHoldings() []model.Holding {
	return []model.Holding{
		{Ticker: "AAPL", Quantity: decimal.NewFromInt(10), TargetWeightPercent: decimal.NewFromInt(30)},
		{Ticker: "MSFT", Quantity: decimal.NewFromInt(5), TargetWeightPercent: decimal.NewFromInt(30)},
		{Ticker: "TSLA", Quantity: decimal.NewFromInt(5), TargetWeightPercent: decimal.NewFromInt(20)},
		{Ticker: "SPY", Quantity: decimal.NewFromInt(2), TargetWeightPercent: decimal.NewFromInt(20)},
	}
}
