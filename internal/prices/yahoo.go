package prices

import (
	"context"
	"fmt"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"
)

// Yahoo looks up quotes through Yahoo Finance.
type Yahoo struct {
	get func(symbol string) (*finance.Quote, error)
}

// NewYahoo creates a Yahoo source.
func NewYahoo() *Yahoo {
	return &Yahoo{get: quote.Get}
}

// Name returns the source name.
func (y *Yahoo) Name() string { return "yahoo" }

// LatestClose returns the regular market price, falling back to the
// previous close outside trading hours.
func (y *Yahoo) LatestClose(ctx context.Context, ticker string) (decimal.Decimal, error) {
	q, err := call(ctx, func() (*finance.Quote, error) { return y.get(ticker) })
	if err != nil {
		return decimal.Zero, fmt.Errorf("yahoo quote %s: %w", ticker, err)
	}
	if q == nil {
		return decimal.Zero, fmt.Errorf("%w: no yahoo quote for %s", ErrUnavailable, ticker)
	}

	price := q.RegularMarketPrice
	if price <= 0 {
		price = q.RegularMarketPreviousClose
	}
	return decimal.NewFromFloat(price), nil
}
