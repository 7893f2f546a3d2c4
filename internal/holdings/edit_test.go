package holdings

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/folio/internal/model"
)

func TestNormalize(t *testing.T) {
	in := []model.Holding{
		{Ticker: " aapl", Quantity: dec("10"), TargetWeightPercent: dec("30")},
		{Ticker: "", Quantity: dec("3")},
		{Ticker: "TSLA", Quantity: dec("-2"), TargetWeightPercent: dec("120")},
		{Ticker: "AAPL", Quantity: dec("99"), TargetWeightPercent: dec("1")},
	}

	out, errs := Normalize(in)
	require.Len(t, out, 2)
	assert.Equal(t, "AAPL", out[0].Ticker)
	assert.True(t, dec("10").Equal(out[0].Quantity), "first duplicate wins")
	assert.True(t, out[1].Quantity.IsZero())
	assert.True(t, dec("120").Equal(out[1].TargetWeightPercent), "weights are not normalized")

	require.Len(t, errs, 1)
	var dup DuplicateError
	require.True(t, errors.As(errs[0], &dup))
	assert.Equal(t, "AAPL", dup.Ticker)
	assert.Equal(t, 4, dup.Row)
}

func TestUpsertAndRemove(t *testing.T) {
	hs := DefaultHoldings()

	hs2 := Upsert(hs, model.Holding{Ticker: "nvda", Quantity: dec("1"), TargetWeightPercent: dec("5")})
	assert.Len(t, hs, 4, "input is not modified")
	require.Len(t, hs2, 5)
	assert.Equal(t, "NVDA", hs2[4].Ticker)

	hs3 := Upsert(hs2, model.Holding{Ticker: "AAPL", Quantity: dec("11"), TargetWeightPercent: dec("25")})
	require.Len(t, hs3, 5)
	assert.True(t, dec("11").Equal(hs3[0].Quantity))

	hs4, ok := Remove(hs3, "aapl")
	assert.True(t, ok)
	assert.Len(t, hs4, 4)
	assert.Equal(t, -1, Find(hs4, "AAPL"))

	_, ok = Remove(hs4, "NOPE")
	assert.False(t, ok)
}

func TestAdjust(t *testing.T) {
	hs := []model.Holding{{Ticker: "AAPL", Quantity: dec("10"), TargetWeightPercent: dec("30")}}

	out, floored := Adjust(hs, "AAPL", dec("2.5"))
	assert.False(t, floored)
	assert.True(t, dec("12.5").Equal(out[0].Quantity))
	assert.True(t, dec("10").Equal(hs[0].Quantity), "input is not modified")

	out, floored = Adjust(hs, "msft", dec("3"))
	assert.False(t, floored)
	require.Len(t, out, 2)
	assert.Equal(t, "MSFT", out[1].Ticker)
	assert.True(t, out[1].TargetWeightPercent.IsZero())

	out, floored = Adjust(hs, "AAPL", dec("-15"))
	assert.True(t, floored)
	assert.True(t, out[0].Quantity.IsZero())
}

type failingStore struct{ err error }

func (f failingStore) Read(context.Context) ([]model.Holding, error)  { return nil, f.err }
func (f failingStore) Replace(context.Context, []model.Holding) error { return f.err }

func TestLoad_FallbackOnError(t *testing.T) {
	boom := errors.New("sheet unreachable")
	res := Load(context.Background(), failingStore{err: boom}, DefaultHoldings(), zerolog.Nop())

	assert.True(t, res.Fallback)
	assert.ErrorIs(t, res.Err, boom)
	assert.Len(t, res.Holdings, len(DefaultHoldings()))
}

func TestLoad_FallbackOnEmpty(t *testing.T) {
	res := Load(context.Background(), NewCSVStore(t.TempDir()), DefaultHoldings(), zerolog.Nop())

	assert.True(t, res.Fallback)
	assert.NoError(t, res.Err)
	assert.NotEmpty(t, res.Holdings)
}

func TestLoad_Saved(t *testing.T) {
	store := NewCSVStore(t.TempDir())
	saved := []model.Holding{{Ticker: "QQQ", Quantity: dec("3"), TargetWeightPercent: dec("100")}}
	require.NoError(t, store.Replace(context.Background(), saved))

	res := Load(context.Background(), store, DefaultHoldings(), zerolog.Nop())
	assert.False(t, res.Fallback)
	require.Len(t, res.Holdings, 1)
	assert.Equal(t, "QQQ", res.Holdings[0].Ticker)
}
