package trades

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/folio/internal/model"
)

// ErrInvalidTrade is wrapped by every Validate failure.
var ErrInvalidTrade = errors.New("invalid trade")

// NewRecord builds a TradeRecord, computing Total from price and quantity.
func NewRecord(date time.Time, ticker string, side model.Side, unitPrice, quantity decimal.Decimal) model.TradeRecord {
	y, m, d := date.Date()
	return model.TradeRecord{
		Date:      time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Ticker:    model.NormalizeTicker(ticker),
		Side:      side,
		UnitPrice: unitPrice,
		Quantity:  quantity,
		Total:     unitPrice.Mul(quantity),
	}
}

// Validate checks a record before it is applied.
func Validate(r model.TradeRecord) error {
	switch {
	case r.Ticker == "":
		return fmt.Errorf("%w: ticker is required", ErrInvalidTrade)
	case !r.Side.Valid():
		return fmt.Errorf("%w: side %q must be buy or sell", ErrInvalidTrade, r.Side)
	case !r.Quantity.IsPositive():
		return fmt.Errorf("%w: quantity must be positive, got %s", ErrInvalidTrade, r.Quantity)
	case r.UnitPrice.IsNegative():
		return fmt.Errorf("%w: unit price cannot be negative, got %s", ErrInvalidTrade, r.UnitPrice)
	case r.Date.IsZero():
		return fmt.Errorf("%w: date is required", ErrInvalidTrade)
	}
	return nil
}

// SignedQuantity returns the holdings delta of the trade: positive for buys,
// negative for sells.
func SignedQuantity(r model.TradeRecord) decimal.Decimal {
	if r.Side == model.SideSell {
		return r.Quantity.Neg()
	}
	return r.Quantity
}
