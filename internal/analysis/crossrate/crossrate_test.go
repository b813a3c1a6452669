package crossrate

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/ForceGold/internal/analysis/returns"
	"github.com/Alias1177/ForceGold/models"
)

func goldMatrix() *models.AlignedMatrix {
	t0 := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	return &models.AlignedMatrix{
		Symbols: []string{"XAU/USD", "EUR/USD", "USD/JPY"},
		Times:   []time.Time{t0, t0.Add(5 * time.Minute), t0.Add(10 * time.Minute)},
		Columns: [][]float64{
			{100, 101, 99},
			{1.10, 1.11, 1.09},
			{150, 151, 149},
		},
	}
}

func TestDerive_WorkedExample(t *testing.T) {
	d := NewDeriver(models.DefaultQuoteTable(), zerolog.Nop())

	out, err := d.Derive(goldMatrix(), "XAU/USD", []string{"EUR/USD"})
	require.NoError(t, err)
	require.Equal(t, []string{"XAU/USD", "XAU/EUR"}, out.Symbols)

	eur := out.Columns[1]
	assert.InDeltaSlice(t, []float64{90.91, 90.99, 90.83}, eur, 0.01)

	rets, err := returns.Transform(out, returns.Simple, returns.Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	r, ok := rets.Column("XAU/EUR")
	require.True(t, ok)
	require.Len(t, r, 2)
	assert.InDelta(t, 0.00090, r[0], 0.00002)
	assert.InDelta(t, -0.00182, r[1], 0.00002)
}

func TestDerive_Multiply(t *testing.T) {
	d := NewDeriver(models.DefaultQuoteTable(), zerolog.Nop())

	out, err := d.Derive(goldMatrix(), "XAU/USD", []string{"EUR/USD", "USD/JPY"})
	require.NoError(t, err)
	jpy, ok := out.Column("XAU/JPY")
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{15000, 15251, 14751}, jpy, 1e-9)
}

func TestDerive_UnknownPairsSkipped(t *testing.T) {
	d := NewDeriver(models.QuoteTable{
		"EUR/USD": {Pair: "EUR/USD", Currency: "EUR", Convention: models.ConventionDivide},
	}, zerolog.Nop())

	out, err := d.Derive(goldMatrix(), "XAU/USD", []string{"USD/JPY", "EUR/USD", "GBP/USD"})
	require.NoError(t, err)
	assert.Equal(t, []string{"XAU/USD", "XAU/EUR"}, out.Symbols)
}

func TestDerive_InsufficientSeries(t *testing.T) {
	d := NewDeriver(models.QuoteTable{}, zerolog.Nop())

	_, err := d.Derive(goldMatrix(), "XAU/USD", []string{"EUR/USD", "USD/JPY"})
	var ise *models.InsufficientSeriesError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, 1, ise.Have)
	assert.Equal(t, 2, ise.Need)

	_, err = d.Derive(goldMatrix(), "XAG/USD", nil)
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	xau := []float64{2011.5, 2030.25, 1999.75, 2100}
	eurusd := []float64{1.0812, 1.0799, 1.0901, 1.1}
	usdjpy := []float64{149.2, 150.05, 151.3, 148.7}

	for i := range xau {
		eur := Apply(models.ConventionDivide, xau[i], eurusd[i])
		assert.InDelta(t, xau[i], Reverse(models.ConventionDivide, eur, eurusd[i]), 1e-9)

		jpy := Apply(models.ConventionMultiply, xau[i], usdjpy[i])
		assert.InDelta(t, xau[i], Reverse(models.ConventionMultiply, jpy, usdjpy[i]), 1e-9)
	}
}

func TestApply_InvalidInputs(t *testing.T) {
	assert.True(t, math.IsNaN(Apply(models.ConventionDivide, 100, 0)))
	assert.True(t, math.IsNaN(Apply(models.ConventionMultiply, -1, 2)))
	assert.True(t, math.IsNaN(Apply(models.ConventionUnknown, 1, 2)))
	assert.True(t, math.IsNaN(Reverse(models.ConventionDivide, math.Inf(1), 2)))
}

func TestDerivedName(t *testing.T) {
	assert.Equal(t, "XAU/EUR", DerivedName("XAU/USD", models.QuoteEntry{Pair: "EUR/USD", Currency: "EUR"}))
	assert.Equal(t, "XAUUSD/EUR", DerivedName("XAUUSD", models.QuoteEntry{Pair: "EURUSD", Currency: "EUR"}))
	assert.Equal(t, "GLD~EURUSD", DerivedName("GLD", models.QuoteEntry{Pair: "EURUSD"}))
}
