package prices

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	finance "github.com/piquette/finance-go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/folio/internal/config"
	"github.com/cleared-dev/folio/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type countingSource struct {
	prices map[string]decimal.Decimal
	errs   map[string]error
	calls  map[string]int
}

func (c *countingSource) Name() string { return "counting" }

func (c *countingSource) LatestClose(_ context.Context, ticker string) (decimal.Decimal, error) {
	c.calls[ticker]++
	if err, ok := c.errs[ticker]; ok {
		return decimal.Zero, err
	}
	return c.prices[ticker], nil
}

func TestResolve(t *testing.T) {
	src := &countingSource{
		prices: map[string]decimal.Decimal{"AAPL": dec("150"), "ZERO": decimal.Zero, "NEG": dec("-1")},
		errs:   map[string]error{"DOWN": errors.New("connection refused")},
		calls:  map[string]int{},
	}
	hs := []model.Holding{
		{Ticker: "AAPL", Quantity: dec("1")},
		{Ticker: "DOWN", Quantity: dec("1")},
		{Ticker: "ZERO", Quantity: dec("1")},
		{Ticker: "NEG", Quantity: dec("1")},
		{Ticker: "AAPL", Quantity: dec("2")},
	}

	priced, failures := Resolve(context.Background(), src, hs, zerolog.Nop())
	require.Len(t, priced, 5)

	assert.True(t, dec("150").Equal(priced[0].Price))
	assert.True(t, priced[1].Price.IsZero())
	assert.True(t, priced[2].Price.IsZero())
	assert.True(t, priced[3].Price.IsZero(), "negative prices count as unpriced")
	assert.True(t, dec("150").Equal(priced[4].Price))
	assert.Equal(t, 1, src.calls["AAPL"], "each ticker is looked up once")

	require.Len(t, failures, 3)
	assert.Equal(t, "DOWN", failures[0].Ticker)
	assert.Contains(t, failures[0].Error(), "connection refused")
	assert.ErrorIs(t, failures[1].Err, ErrUnavailable)
}

func TestResolve_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &countingSource{prices: map[string]decimal.Decimal{"AAPL": dec("1")}, calls: map[string]int{}}
	priced, failures := Resolve(ctx, src, []model.Holding{{Ticker: "AAPL"}}, zerolog.Nop())

	require.Len(t, priced, 1)
	assert.True(t, priced[0].Price.IsZero())
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0].Err, context.Canceled)
	assert.Zero(t, src.calls["AAPL"])
}

func TestStatic(t *testing.T) {
	s := NewStatic(map[string]decimal.Decimal{"aapl": dec("150")})

	p, err := s.LatestClose(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, dec("150").Equal(p))

	_, err = s.LatestClose(context.Background(), "MSFT")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestYahoo(t *testing.T) {
	y := &Yahoo{get: func(symbol string) (*finance.Quote, error) {
		switch symbol {
		case "AAPL":
			return &finance.Quote{RegularMarketPrice: 189.5}, nil
		case "CLOSED":
			return &finance.Quote{RegularMarketPreviousClose: 42}, nil
		case "MISSING":
			return nil, nil
		default:
			return nil, errors.New("remote error")
		}
	}}
	ctx := context.Background()

	p, err := y.LatestClose(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "189.5", p.String())

	p, err = y.LatestClose(ctx, "CLOSED")
	require.NoError(t, err)
	assert.Equal(t, "42", p.String())

	_, err = y.LatestClose(ctx, "MISSING")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = y.LatestClose(ctx, "BOOM")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "yahoo quote BOOM")
}

func TestYahoo_ContextEndsSlowLookup(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	y := &Yahoo{get: func(string) (*finance.Quote, error) {
		<-release
		return &finance.Quote{RegularMarketPrice: 1}, nil
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := y.LatestClose(ctx, "SLOW")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

type fakeBars map[string]*marketdata.Bar

func (f fakeBars) GetLatestBar(symbol string, _ marketdata.GetLatestBarRequest) (*marketdata.Bar, error) {
	bar, ok := f[symbol]
	if !ok {
		return nil, errors.New("symbol not found")
	}
	return bar, nil
}

func TestAlpaca(t *testing.T) {
	a := &Alpaca{client: fakeBars{"SPY": {Close: 512.25}, "NIL": nil}}
	ctx := context.Background()

	p, err := a.LatestClose(ctx, "SPY")
	require.NoError(t, err)
	assert.Equal(t, "512.25", p.String())

	_, err = a.LatestClose(ctx, "NIL")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = a.LatestClose(ctx, "XYZ")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	cfg := config.Default()

	src, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "yahoo", src.Name())

	cfg.Prices.Provider = config.ProviderStatic
	src, err = New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "static", src.Name())

	cfg.Prices.Provider = config.ProviderAlpaca
	t.Setenv(config.EnvAlpacaKey, "")
	t.Setenv(config.EnvAlpacaSecret, "")
	_, err = New(cfg)
	assert.ErrorIs(t, err, config.ErrMissingCredentials)

	t.Setenv(config.EnvAlpacaKey, "k")
	t.Setenv(config.EnvAlpacaSecret, "s")
	src, err = New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "alpaca", src.Name())

	cfg.Prices.Provider = "nope"
	_, err = New(cfg)
	assert.Error(t, err)
}
