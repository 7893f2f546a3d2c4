package holdings

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/folio/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRoundTrip(t *testing.T) {
	hs := []model.Holding{
		{Ticker: "AAPL", Quantity: dec("10"), TargetWeightPercent: dec("30")},
		{Ticker: "005930.KS", Quantity: dec("2.5"), TargetWeightPercent: dec("12.75")},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteHoldings(&buf, hs))
	assert.True(t, strings.HasPrefix(buf.String(), Header+"\n"))

	got, err := ReadHoldings(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range hs {
		assert.Equal(t, hs[i].Ticker, got[i].Ticker)
		assert.True(t, hs[i].Quantity.Equal(got[i].Quantity))
		assert.True(t, hs[i].TargetWeightPercent.Equal(got[i].TargetWeightPercent))
	}
}

func TestReadHoldings_Lenient(t *testing.T) {
	data := Header + "\n" +
		" aapl ,10,30\n" +
		",,\n" +
		"TSLA,,70\n" +
		"NVDA,-4,\n"

	got, err := ReadHoldings(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "AAPL", got[0].Ticker)
	assert.True(t, got[1].Quantity.IsZero(), "blank quantity reads as zero")
	assert.True(t, got[2].Quantity.IsZero(), "negative quantity is clamped")
	assert.True(t, got[2].TargetWeightPercent.IsZero())
}

func TestReadHoldings_Empty(t *testing.T) {
	got, err := ReadHoldings(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ReadHoldings(strings.NewReader(Header + "\n"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReadHoldings_MissingColumn(t *testing.T) {
	_, err := ReadHoldings(strings.NewReader("ticker,quantity\nAAPL,10\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = ReadHoldings(strings.NewReader("symbol,quantity,target_weight_percent\nAAPL,10,30\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadHoldings_BadNumber(t *testing.T) {
	_, err := ReadHoldings(strings.NewReader(Header + "\nAAPL,ten,30\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.Contains(t, err.Error(), "parsing quantity")
}

func TestUnmarshalHolding_FieldCount(t *testing.T) {
	_, err := UnmarshalHolding([]string{"AAPL", "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 3 fields")
}
