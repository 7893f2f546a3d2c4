package portfolio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/folio/internal/holdings"
	"github.com/cleared-dev/folio/internal/model"
	"github.com/cleared-dev/folio/internal/prices"
	"github.com/cleared-dev/folio/internal/trades"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func h(ticker, qty, target string) model.Holding {
	return model.Holding{Ticker: ticker, Quantity: d(qty), TargetWeightPercent: d(target)}
}

var testPrices = map[string]decimal.Decimal{
	"AAPL": d("200"),
	"TSLA": d("100"),
}

func setup(t *testing.T) (*Service, *holdings.CSVStore, *trades.CSVLog) {
	t.Helper()
	dir := t.TempDir()
	hs := holdings.NewCSVStore(dir)
	tl := trades.NewCSVLog(dir)
	defaults := []model.Holding{h("AAPL", "10", "50"), h("TSLA", "0", "50")}
	return NewService(hs, tl, prices.NewStatic(testPrices), defaults, zerolog.Nop()), hs, tl
}

func TestSnapshot_FallsBackToDefaults(t *testing.T) {
	svc, _, _ := setup(t)

	res, err := svc.Snapshot(context.Background(), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	require.Len(t, res.Holdings, 2)

	// AAPL 10 @ 200 against a 50/50 target: sell 5, buy TSLA 10.
	require.Len(t, res.Plan.Sells, 1)
	assert.Equal(t, "AAPL", res.Plan.Sells[0].Ticker)
	assert.True(t, d("5").Equal(res.Plan.Sells[0].RecommendedQuantity))
	require.Len(t, res.Plan.Buys, 1)
	assert.Equal(t, "TSLA", res.Plan.Buys[0].Ticker)
}

func TestSnapshot_UnpricedWarns(t *testing.T) {
	svc, hs, _ := setup(t)
	require.NoError(t, hs.Replace(context.Background(), []model.Holding{h("AAPL", "1", "50"), h("NOPE", "3", "50")}))

	res, err := svc.Snapshot(context.Background(), d("100"))
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "NOPE", res.Failures[0].Ticker)
	assert.Contains(t, res.Warnings, "no price for NOPE, excluded from the plan")
	for _, l := range append(res.Plan.Buys, res.Plan.Sells...) {
		assert.NotEqual(t, "NOPE", l.Ticker)
	}
}

func TestSnapshot_CanceledContext(t *testing.T) {
	svc, _, _ := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Snapshot(ctx, decimal.Zero)
	assert.ErrorIs(t, err, context.Canceled)
}

// slowSource blocks every lookup until release is closed.
type slowSource struct {
	started chan struct{}
	release chan struct{}
}

func (s *slowSource) Name() string { return "slow" }

func (s *slowSource) LatestClose(_ context.Context, _ string) (decimal.Decimal, error) {
	select {
	case s.started <- struct{}{}:
	default:
	}
	<-s.release
	return d("1"), nil
}

func TestService_WaitingCallerHonoursContext(t *testing.T) {
	src := &slowSource{started: make(chan struct{}, 1), release: make(chan struct{})}
	dir := t.TempDir()
	svc := NewService(holdings.NewCSVStore(dir), trades.NewCSVLog(dir), src,
		[]model.Holding{h("AAPL", "1", "100")}, zerolog.Nop())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Snapshot(context.Background(), decimal.Zero)
		done <- err
	}()
	<-src.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := svc.Holdings(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(src.release)
	require.NoError(t, <-done)

	_, err = svc.Holdings(context.Background())
	assert.NoError(t, err, "the lock is released after the slow cycle")
}

func TestSaveAndCompute(t *testing.T) {
	svc, hs, _ := setup(t)
	ctx := context.Background()

	grid := []model.Holding{
		h(" aapl ", "1", "60"),
		h("TSLA", "-2", "40"),
		h("AAPL", "9", "10"),
		{Ticker: ""},
	}
	res, err := svc.SaveAndCompute(ctx, grid, d("800"))
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "duplicate ticker AAPL")

	saved, err := hs.Read(ctx)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "AAPL", saved[0].Ticker)
	assert.True(t, d("1").Equal(saved[0].Quantity))
	assert.True(t, saved[1].Quantity.IsZero(), "negative quantity saved as zero")

	// simulated = 200 + 800; AAPL needs 400, TSLA needs 400.
	assert.True(t, d("1000").Equal(res.Plan.SimulatedTotal))
	assert.False(t, res.Plan.Rationed)
	assert.True(t, d("800").Equal(res.Plan.Allocated))
}

func TestEdit(t *testing.T) {
	svc, hs, _ := setup(t)
	ctx := context.Background()

	out, err := svc.Edit(ctx, func(cur []model.Holding) ([]model.Holding, error) {
		cur, _ = holdings.Remove(cur, "TSLA")
		return holdings.Upsert(cur, h("spy", "2", "25")), nil
	})
	require.NoError(t, err)
	require.Len(t, out, 2)

	saved, err := hs.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "SPY"}, tickers(saved))

	_, err = svc.Edit(ctx, func([]model.Holding) ([]model.Holding, error) {
		return nil, errors.New("nope")
	})
	assert.EqualError(t, err, "nope")
}

func TestApplyTrade(t *testing.T) {
	svc, hs, tl := setup(t)
	ctx := context.Background()
	date := time.Date(2025, 3, 4, 15, 30, 0, 0, time.UTC)

	res, err := svc.ApplyTrade(ctx, TradeParams{
		Date: date, Ticker: "msft", Side: model.SideBuy, UnitPrice: d("400"), Quantity: d("2"),
	})
	require.NoError(t, err)
	assert.True(t, res.HoldingsSaved)
	assert.True(t, res.HistoryAppended)
	assert.False(t, res.Floored)
	assert.True(t, d("800").Equal(res.Record.Total))

	saved, err := hs.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "TSLA", "MSFT"}, tickers(saved))
	assert.True(t, d("2").Equal(saved[2].Quantity))
	assert.True(t, saved[2].TargetWeightPercent.IsZero())

	res, err = svc.ApplyTrade(ctx, TradeParams{
		Date: date, Ticker: "AAPL", Side: model.SideSell, UnitPrice: d("210"), Quantity: d("25"),
	})
	require.NoError(t, err)
	assert.True(t, res.Floored)
	i := holdings.Find(res.Holdings, "AAPL")
	require.GreaterOrEqual(t, i, 0)
	assert.True(t, res.Holdings[i].Quantity.IsZero())

	recs, err := tl.Read(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, model.SideSell, recs[1].Side)

	history, err := svc.History(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestApplyTrade_Invalid(t *testing.T) {
	svc, hs, _ := setup(t)
	ctx := context.Background()

	_, err := svc.ApplyTrade(ctx, TradeParams{Ticker: "AAPL", Side: model.SideBuy, UnitPrice: d("1"), Quantity: d("0")})
	assert.ErrorIs(t, err, trades.ErrInvalidTrade)

	_, err = svc.ApplyTrade(ctx, TradeParams{Ticker: "AAPL", Side: "hold", UnitPrice: d("1"), Quantity: d("1")})
	assert.ErrorIs(t, err, trades.ErrInvalidTrade)

	assert.False(t, hs.Exists(), "invalid trades write nothing")
}

type brokenLog struct{}

func (brokenLog) Read(context.Context) ([]model.TradeRecord, error) {
	return nil, errors.New("disk gone")
}

func (brokenLog) Append(context.Context, model.TradeRecord) error {
	return errors.New("disk gone")
}

func TestApplyTrade_PartialWrite(t *testing.T) {
	dir := t.TempDir()
	hs := holdings.NewCSVStore(dir)
	svc := NewService(hs, brokenLog{}, prices.NewStatic(testPrices), nil, zerolog.Nop())
	ctx := context.Background()

	res, err := svc.ApplyTrade(ctx, TradeParams{Ticker: "AAPL", Side: model.SideBuy, UnitPrice: d("1"), Quantity: d("1")})
	require.Error(t, err)
	assert.True(t, IsPartialWrite(err))
	assert.Contains(t, err.Error(), "holdings updated but trade history not recorded")
	assert.True(t, res.HoldingsSaved)
	assert.False(t, res.HistoryAppended)

	saved, err := hs.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, tickers(saved))

	_, err = svc.History(ctx)
	assert.ErrorContains(t, err, "reading trade history")
}

func tickers(hs []model.Holding) []string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = h.Ticker
	}
	return out
}
