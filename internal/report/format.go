// Package report renders portfolio results as terminal tables.
package report

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Money formats amount in currency using the currency's symbol, separators
// and fraction digits. Unknown codes fall back to two decimals with the code
// as suffix.
func Money(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// Quantity formats a share count to four decimal places.
func Quantity(q decimal.Decimal) string {
	return q.StringFixed(4)
}

// Percent formats a weight as entered, with a trailing percent sign.
func Percent(p decimal.Decimal) string {
	return p.StringFixed(2) + "%"
}
