// Package portfolio runs one load, price and compute cycle over the stores.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/folio/internal/holdings"
	"github.com/cleared-dev/folio/internal/model"
	"github.com/cleared-dev/folio/internal/prices"
	"github.com/cleared-dev/folio/internal/rebalance"
	"github.com/cleared-dev/folio/internal/trades"
)

// Service provides the portfolio workflows shared by the CLI and the JSON
// surface.
type Service struct {
	holdings holdings.Store
	trades   trades.Log
	prices   prices.Source
	defaults []model.Holding
	log      zerolog.Logger

	// sem serialises cycles; a waiter gives up when its context ends.
	sem chan struct{}
}

// NewService creates a portfolio Service. defaults is substituted whenever
// the holdings snapshot is missing, unreadable or empty.
func NewService(hs holdings.Store, tl trades.Log, src prices.Source, defaults []model.Holding, log zerolog.Logger) *Service {
	return &Service{
		holdings: hs,
		trades:   tl,
		prices:   src,
		defaults: defaults,
		log:      log.With().Str("component", "portfolio").Logger(),
		sem:      make(chan struct{}, 1),
	}
}

// lock waits for the running cycle to finish. It fails with ctx.Err() when
// the context ends first, and also when it ended while the lock was held.
func (s *Service) lock(ctx context.Context) (unlock func(), err error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		<-s.sem
		return nil, err
	}
	return func() { <-s.sem }, nil
}

// Result is the outcome of one compute cycle.
type Result struct {
	Holdings []model.PricedHolding
	Plan     rebalance.Plan
	Fallback bool // defaults were shown instead of a saved snapshot
	Failures []prices.Failure
	Warnings []string
}

// Snapshot loads holdings, resolves prices and computes the plan.
func (s *Service) Snapshot(ctx context.Context, budget decimal.Decimal) (Result, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return Result{}, err
	}
	defer unlock()
	return s.snapshot(ctx, budget, nil)
}

func (s *Service) snapshot(ctx context.Context, budget decimal.Decimal, warnings []string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	loaded := holdings.Load(ctx, s.holdings, s.defaults, s.log)
	if loaded.Err != nil {
		warnings = append(warnings, fmt.Sprintf("could not read holdings, showing defaults: %v", loaded.Err))
	}

	priced, failures := prices.Resolve(ctx, s.prices, loaded.Holdings, s.log)
	for _, f := range failures {
		warnings = append(warnings, fmt.Sprintf("no price for %s, excluded from the plan", f.Ticker))
	}

	if budget.IsNegative() {
		warnings = append(warnings, "negative budget treated as zero")
	}
	plan := rebalance.Compute(priced, budget)

	s.log.Debug().
		Int("holdings", len(priced)).
		Int("buys", len(plan.Buys)).
		Int("sells", len(plan.Sells)).
		Bool("rationed", plan.Rationed).
		Msg("Computed plan")

	return Result{
		Holdings: priced,
		Plan:     plan,
		Fallback: loaded.Fallback,
		Failures: failures,
		Warnings: warnings,
	}, nil
}

// Holdings returns the current holdings without pricing them.
func (s *Service) Holdings(ctx context.Context) (holdings.LoadResult, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return holdings.LoadResult{}, err
	}
	defer unlock()
	return holdings.Load(ctx, s.holdings, s.defaults, s.log), nil
}

// SaveAndCompute normalizes an edited grid, replaces the snapshot with it
// and computes a fresh plan. Duplicate tickers keep their first row and are
// reported as warnings.
func (s *Service) SaveAndCompute(ctx context.Context, hs []model.Holding, budget decimal.Decimal) (Result, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	clean, errs := holdings.Normalize(hs)
	var warnings []string
	for _, e := range errs {
		warnings = append(warnings, e.Error())
	}

	if err := s.holdings.Replace(ctx, clean); err != nil {
		return Result{}, fmt.Errorf("saving holdings: %w", err)
	}
	s.log.Info().Int("holdings", len(clean)).Msg("Saved holdings")

	return s.snapshot(ctx, budget, warnings)
}

// Edit applies fn to the current holdings and saves the result. The
// defaults are used as the starting point when nothing is saved yet.
func (s *Service) Edit(ctx context.Context, fn func([]model.Holding) ([]model.Holding, error)) ([]model.Holding, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	loaded := holdings.Load(ctx, s.holdings, s.defaults, s.log)
	if loaded.Err != nil {
		return nil, fmt.Errorf("reading holdings: %w", loaded.Err)
	}
	out, err := fn(loaded.Holdings)
	if err != nil {
		return nil, err
	}
	out, _ = holdings.Normalize(out)
	if err := s.holdings.Replace(ctx, out); err != nil {
		return nil, fmt.Errorf("saving holdings: %w", err)
	}
	return out, nil
}

// TradeParams describes a manually recorded trade.
type TradeParams struct {
	Date      time.Time
	Ticker    string
	Side      model.Side
	UnitPrice decimal.Decimal
	Quantity  decimal.Decimal
}

// TradeResult reports what ApplyTrade persisted.
type TradeResult struct {
	Record          model.TradeRecord
	Holdings        []model.Holding
	Floored         bool // a sell exceeded the held quantity and was floored at zero
	HoldingsSaved   bool
	HistoryAppended bool
}

// PartialWriteError is returned when the holdings snapshot was replaced but
// the trade could not be appended to the history.
type PartialWriteError struct {
	Record model.TradeRecord
	Err    error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("holdings updated but trade history not recorded for %s %s: %v",
		e.Record.Side, e.Record.Ticker, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }

// ApplyTrade validates a trade, adjusts the holding quantity, replaces the
// snapshot and appends the trade to the history. The two writes are not
// atomic; a failure after the first is reported as a PartialWriteError.
func (s *Service) ApplyTrade(ctx context.Context, p TradeParams) (TradeResult, error) {
	date := p.Date
	if date.IsZero() {
		date = time.Now()
	}
	rec := trades.NewRecord(date, p.Ticker, p.Side, p.UnitPrice, p.Quantity)
	if err := trades.Validate(rec); err != nil {
		return TradeResult{}, err
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return TradeResult{}, err
	}
	defer unlock()

	loaded := holdings.Load(ctx, s.holdings, s.defaults, s.log)
	if loaded.Err != nil {
		return TradeResult{}, fmt.Errorf("reading holdings: %w", loaded.Err)
	}

	updated, floored := holdings.Adjust(loaded.Holdings, rec.Ticker, trades.SignedQuantity(rec))
	if floored {
		s.log.Warn().
			Str("ticker", rec.Ticker).
			Str("quantity", rec.Quantity.String()).
			Msg("Sell exceeds holding, quantity floored at zero")
	}

	res := TradeResult{Record: rec, Holdings: updated, Floored: floored}
	if err := s.holdings.Replace(ctx, updated); err != nil {
		return res, fmt.Errorf("saving holdings: %w", err)
	}
	res.HoldingsSaved = true

	if err := s.trades.Append(ctx, rec); err != nil {
		s.log.Error().Err(err).Str("ticker", rec.Ticker).Msg("Trade history append failed after holdings were saved")
		return res, &PartialWriteError{Record: rec, Err: err}
	}
	res.HistoryAppended = true

	s.log.Info().
		Str("ticker", rec.Ticker).
		Str("side", string(rec.Side)).
		Str("quantity", rec.Quantity.String()).
		Str("unit_price", rec.UnitPrice.String()).
		Msg("Recorded trade")
	return res, nil
}

// History returns every recorded trade in append order.
func (s *Service) History(ctx context.Context) ([]model.TradeRecord, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	recs, err := s.trades.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading trade history: %w", err)
	}
	return recs, nil
}

// IsPartialWrite reports whether err left the stores out of step.
func IsPartialWrite(err error) bool {
	var pw *PartialWriteError
	return errors.As(err, &pw)
}
