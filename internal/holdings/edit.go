package holdings

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/folio/internal/model"
)

// DuplicateError reports a ticker that appears more than once in a grid.
type DuplicateError struct {
	Ticker string
	Row    int
}

func (e DuplicateError) Error() string {
	return fmt.Sprintf("row %d: duplicate ticker %s (first row kept)", e.Row, e.Ticker)
}

// Normalize cleans an edited grid: tickers are trimmed and upper-cased,
// blank rows dropped, negative quantities set to zero and duplicate tickers
// reported (the first occurrence wins). Target weights are left as entered.
func Normalize(in []model.Holding) ([]model.Holding, []error) {
	out := make([]model.Holding, 0, len(in))
	seen := make(map[string]bool, len(in))
	var errs []error
	for i, h := range in {
		h.Ticker = model.NormalizeTicker(h.Ticker)
		if h.Ticker == "" {
			continue
		}
		if seen[h.Ticker] {
			errs = append(errs, DuplicateError{Ticker: h.Ticker, Row: i + 1})
			continue
		}
		seen[h.Ticker] = true
		h.Quantity = h.EffectiveQuantity()
		out = append(out, h)
	}
	return out, errs
}

// Find returns the index of ticker in hs, or -1.
func Find(hs []model.Holding, ticker string) int {
	ticker = model.NormalizeTicker(ticker)
	for i, h := range hs {
		if h.Ticker == ticker {
			return i
		}
	}
	return -1
}

// Upsert sets quantity and target for ticker, appending a new row when it is
// not present. The input slice is not modified.
func Upsert(hs []model.Holding, h model.Holding) []model.Holding {
	h.Ticker = model.NormalizeTicker(h.Ticker)
	out := append([]model.Holding(nil), hs...)
	if i := Find(out, h.Ticker); i >= 0 {
		out[i] = h
		return out
	}
	return append(out, h)
}

// Remove drops ticker. It reports whether a row was removed.
func Remove(hs []model.Holding, ticker string) ([]model.Holding, bool) {
	i := Find(hs, ticker)
	if i < 0 {
		return hs, false
	}
	out := make([]model.Holding, 0, len(hs)-1)
	out = append(out, hs[:i]...)
	return append(out, hs[i+1:]...), true
}

// Adjust adds delta to ticker's quantity, creating the row with a zero target
// when missing. A result below zero is floored at zero and reported.
func Adjust(hs []model.Holding, ticker string, delta decimal.Decimal) (out []model.Holding, floored bool) {
	ticker = model.NormalizeTicker(ticker)
	out = append([]model.Holding(nil), hs...)
	i := Find(out, ticker)
	if i < 0 {
		out = append(out, model.Holding{Ticker: ticker, TargetWeightPercent: decimal.Zero})
		i = len(out) - 1
	}
	q := out[i].EffectiveQuantity().Add(delta)
	if q.IsNegative() {
		q = decimal.Zero
		floored = true
	}
	out[i].Quantity = q
	return out, floored
}

// LoadResult is the outcome of Load.
type LoadResult struct {
	Holdings []model.Holding
	Fallback bool  // defaults were substituted
	Err      error // read error that caused the fallback, if any
}

// Load reads the snapshot, substituting defaults when the read fails or the
// snapshot is empty. It never returns an empty portfolio unless defaults is
// empty.
func Load(ctx context.Context, store Store, defaults []model.Holding, log zerolog.Logger) LoadResult {
	hs, err := store.Read(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Could not read holdings, using defaults")
		return LoadResult{Holdings: clone(defaults), Fallback: true, Err: err}
	}

	hs, dups := Normalize(hs)
	for _, d := range dups {
		log.Warn().Err(d).Msg("Skipping holdings row")
	}

	if len(hs) == 0 {
		log.Info().Msg("No holdings saved yet, using defaults")
		return LoadResult{Holdings: clone(defaults), Fallback: true}
	}
	return LoadResult{Holdings: hs}
}

func clone(hs []model.Holding) []model.Holding {
	return append([]model.Holding(nil), hs...)
}
