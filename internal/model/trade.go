package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether s is a known side.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// TradeRecord is one row in trades.csv. Records are append-only.
type TradeRecord struct {
	Date      time.Time
	Ticker    string
	Side      Side
	UnitPrice decimal.Decimal
	Quantity  decimal.Decimal
	Total     decimal.Decimal // UnitPrice * Quantity
}
