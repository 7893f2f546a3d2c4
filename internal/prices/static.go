package prices

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/folio/internal/model"
)

// Static serves prices from a fixed table.
type Static struct {
	prices map[string]decimal.Decimal
}

// NewStatic creates a Static source. Keys are normalized tickers.
func NewStatic(prices map[string]decimal.Decimal) *Static {
	m := make(map[string]decimal.Decimal, len(prices))
	for k, v := range prices {
		m[model.NormalizeTicker(k)] = v
	}
	return &Static{prices: m}
}

// Name returns the source name.
func (s *Static) Name() string { return "static" }

// LatestClose returns the table price for ticker.
func (s *Static) LatestClose(_ context.Context, ticker string) (decimal.Decimal, error) {
	p, ok := s.prices[model.NormalizeTicker(ticker)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s not in static table", ErrUnavailable, ticker)
	}
	return p, nil
}
