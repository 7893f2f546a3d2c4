// Package prices resolves latest closing prices for holdings.
package prices

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/folio/internal/config"
	"github.com/cleared-dev/folio/internal/model"
)

// ErrUnavailable is returned when a source has no price for a ticker.
var ErrUnavailable = errors.New("price unavailable")

// Source looks up the latest close for a ticker.
type Source interface {
	LatestClose(ctx context.Context, ticker string) (decimal.Decimal, error)
	Name() string
}

// Failure records a ticker that could not be priced.
type Failure struct {
	Ticker string
	Err    error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Ticker, f.Err)
}

// New returns the source selected in cfg.
func New(cfg *config.Config) (Source, error) {
	switch cfg.Prices.Provider {
	case config.ProviderYahoo:
		return NewYahoo(), nil
	case config.ProviderAlpaca:
		if err := cfg.CheckCredentials(); err != nil {
			return nil, err
		}
		return NewAlpaca(), nil
	case config.ProviderStatic:
		return NewStatic(cfg.StaticPrices()), nil
	default:
		return nil, fmt.Errorf("unknown price provider %q", cfg.Prices.Provider)
	}
}

// Resolve prices every holding. Each distinct ticker is looked up once; a
// lookup error, a missing quote or a non-positive price leaves the holding
// unpriced (price 0) and is reported as a Failure. Lookups are not retried.
func Resolve(ctx context.Context, src Source, holdings []model.Holding, log zerolog.Logger) ([]model.PricedHolding, []Failure) {
	cache := make(map[string]decimal.Decimal, len(holdings))
	var failures []Failure

	out := make([]model.PricedHolding, 0, len(holdings))
	for _, h := range holdings {
		price, seen := cache[h.Ticker]
		if !seen {
			price = lookup(ctx, src, h.Ticker, log, &failures)
			cache[h.Ticker] = price
		}
		out = append(out, model.PricedHolding{Holding: h, Price: price})
	}
	return out, failures
}

func lookup(ctx context.Context, src Source, ticker string, log zerolog.Logger, failures *[]Failure) decimal.Decimal {
	if err := ctx.Err(); err != nil {
		*failures = append(*failures, Failure{Ticker: ticker, Err: err})
		return decimal.Zero
	}

	price, err := src.LatestClose(ctx, ticker)
	if err == nil && !price.IsPositive() {
		err = ErrUnavailable
	}
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Str("source", src.Name()).Msg("Price unavailable, treating as unpriced")
		*failures = append(*failures, Failure{Ticker: ticker, Err: err})
		return decimal.Zero
	}

	log.Debug().Str("ticker", ticker).Str("price", price.String()).Msg("Resolved price")
	return price
}

// call runs a lookup from an SDK that takes no context. It returns as soon as
// ctx ends; the abandoned lookup finishes in the background and is dropped.
func call[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
