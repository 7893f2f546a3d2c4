package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Holding represents a row in holdings.csv.
type Holding struct {
	Ticker              string
	Quantity            decimal.Decimal
	TargetWeightPercent decimal.Decimal // not required to sum to 100 across holdings
}

// PricedHolding is a Holding with its latest resolved price.
type PricedHolding struct {
	Holding
	Price decimal.Decimal // zero = unpriced
}

// NormalizeTicker returns the canonical form of a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// EffectiveQuantity returns the quantity used for valuation. Negative
// quantities count as zero.
func (h Holding) EffectiveQuantity() decimal.Decimal {
	if h.Quantity.IsNegative() {
		return decimal.Zero
	}
	return h.Quantity
}

// Priced reports whether the holding is trade-eligible.
func (p PricedHolding) Priced() bool {
	return p.Price.IsPositive()
}

// MarketValue returns price x quantity, or zero when unpriced.
func (p PricedHolding) MarketValue() decimal.Decimal {
	if !p.Priced() {
		return decimal.Zero
	}
	return p.Price.Mul(p.EffectiveQuantity())
}
