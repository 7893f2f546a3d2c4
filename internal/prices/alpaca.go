package prices

import (
	"context"
	"fmt"
	"os"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/folio/internal/config"
)

type barClient interface {
	GetLatestBar(symbol string, req marketdata.GetLatestBarRequest) (*marketdata.Bar, error)
}

// Alpaca looks up the latest minute bar through the Alpaca market data API.
type Alpaca struct {
	client barClient
}

// NewAlpaca creates an Alpaca source using credentials from the environment.
func NewAlpaca() *Alpaca {
	return &Alpaca{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    os.Getenv(config.EnvAlpacaKey),
			APISecret: os.Getenv(config.EnvAlpacaSecret),
		}),
	}
}

// Name returns the source name.
func (a *Alpaca) Name() string { return "alpaca" }

// LatestClose returns the close of the latest bar.
func (a *Alpaca) LatestClose(ctx context.Context, ticker string) (decimal.Decimal, error) {
	bar, err := call(ctx, func() (*marketdata.Bar, error) {
		return a.client.GetLatestBar(ticker, marketdata.GetLatestBarRequest{})
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("alpaca latest bar %s: %w", ticker, err)
	}
	if bar == nil {
		return decimal.Zero, fmt.Errorf("%w: no alpaca bar for %s", ErrUnavailable, ticker)
	}
	return decimal.NewFromFloat(bar.Close), nil
}
