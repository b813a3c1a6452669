package analyze

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/ForceGold/models"
)

var t0 = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func walk(symbol string, n int, start float64, seed int64) models.PriceSeries {
	rng := rand.New(rand.NewSource(seed))
	s := models.PriceSeries{Symbol: symbol}
	p := start
	for i := 0; i < n; i++ {
		s.Points = append(s.Points, models.Point{Time: t0.Add(time.Duration(i) * 5 * time.Minute), Price: p})
		p *= 1 + (rng.Float64()-0.5)*0.004
	}
	return s
}

func mirror(symbol string, src models.PriceSeries, k float64) models.PriceSeries {
	out := models.PriceSeries{Symbol: symbol}
	for _, pt := range src.Points {
		out.Points = append(out.Points, models.Point{Time: pt.Time, Price: k / pt.Price})
	}
	return out
}

func newEngine(t *testing.T, mutate func(*models.AnalysisConfig)) *Engine {
	cfg := models.DefaultAnalysisConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := NewEngine(cfg, zerolog.Nop())
	require.NoError(t, err)
	return e
}

func TestCorrelation_IdenticalSeries(t *testing.T) {
	e := newEngine(t, nil)
	gold := walk("XAU/USD", 151, 2000, 1)
	twin := gold
	twin.Symbol = "GLD"

	res, err := e.Correlation(gold, twin)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Rho, 1e-9)
	assert.Equal(t, 150, res.Samples)
	assert.Equal(t, models.RegimeStrongPositive, res.Label)
	assert.Equal(t, "XAU/USD", res.Base)
	assert.Equal(t, "GLD", res.Other)
	assert.Equal(t, t0.Add(5*time.Minute), res.From)
	assert.Equal(t, t0.Add(150*5*time.Minute), res.To)
}

func TestCorrelation_InverseSeries(t *testing.T) {
	e := newEngine(t, nil)
	gold := walk("XAU/USD", 300, 2000, 7)
	dollar := mirror("UUP", gold, 56000)

	res, err := e.Correlation(gold, dollar)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, res.Rho, 1e-9)
	assert.Equal(t, models.RegimeStrongNegative, res.Label)
}

func TestCorrelation_Symmetric(t *testing.T) {
	e := newEngine(t, nil)
	a := walk("XAU/USD", 250, 2000, 3)
	b := walk("UUP", 250, 28, 4)

	ab, err := e.Correlation(a, b)
	require.NoError(t, err)
	ba, err := e.Correlation(b, a)
	require.NoError(t, err)
	assert.InDelta(t, ab.Rho, ba.Rho, 1e-15)
}

func TestCorrelation_ThresholdAfterReturns(t *testing.T) {
	e := newEngine(t, nil)
	// 100 aligned rows pass alignment but leave only 99 returns
	a := walk("XAU/USD", 100, 2000, 1)
	b := walk("UUP", 100, 28, 2)

	_, err := e.Correlation(a, b)
	var ide *models.InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, models.StageReturns, ide.Stage)
	assert.Equal(t, 99, ide.Have)
}

func TestCorrelation_ThresholdAtAlignment(t *testing.T) {
	e := newEngine(t, nil)
	a := walk("XAU/USD", 200, 2000, 1)
	b := walk("UUP", 200, 28, 2)
	// shift b by 150 bars so only 50 timestamps overlap
	for i := range b.Points {
		b.Points[i].Time = b.Points[i].Time.Add(150 * 5 * time.Minute)
	}

	_, err := e.Correlation(a, b)
	var ide *models.InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, models.StageAlignment, ide.Stage)
	assert.Equal(t, 50, ide.Have)
}

func TestCorrelation_Degenerate(t *testing.T) {
	e := newEngine(t, nil)
	a := walk("XAU/USD", 150, 2000, 1)
	flat := models.PriceSeries{Symbol: "PEG"}
	for _, p := range a.Points {
		flat.Points = append(flat.Points, models.Point{Time: p.Time, Price: 1})
	}

	_, err := e.Correlation(a, flat)
	var dse *models.DegenerateSeriesError
	require.True(t, errors.As(err, &dse))
	assert.Equal(t, "PEG", dse.Symbol)
}

func TestStrength(t *testing.T) {
	e := newEngine(t, nil)
	n := 300
	gold := walk("XAU/USD", n, 2000, 11)
	eur := walk("EUR/USD", n, 1.08, 12)
	jpy := walk("USD/JPY", n, 150, 13)

	idx, err := e.Strength(gold, []models.PriceSeries{eur, jpy})
	require.NoError(t, err)
	assert.Equal(t, []string{"XAU/USD", "XAU/EUR", "XAU/JPY"}, idx.Series)
	assert.Equal(t, n-1, idx.Samples)
	assert.Equal(t, t0.Add(5*time.Minute), idx.From)
	assert.Equal(t, t0.Add(time.Duration(n-1)*5*time.Minute), idx.To)
	assert.False(t, math.IsNaN(idx.Value))
	assert.Equal(t, idx.Sign() > 0, idx.Pressure == models.PressureBullish)
}

func TestStrength_RisingGoldIsBullish(t *testing.T) {
	e := newEngine(t, nil)
	gold := models.PriceSeries{Symbol: "XAU/USD"}
	eur := models.PriceSeries{Symbol: "EUR/USD"}
	for i := 0; i < 150; i++ {
		ts := t0.Add(time.Duration(i) * time.Minute)
		gold.Points = append(gold.Points, models.Point{Time: ts, Price: 2000 * math.Pow(1.001, float64(i))})
		eur.Points = append(eur.Points, models.Point{Time: ts, Price: 1.1})
	}

	idx, err := e.Strength(gold, []models.PriceSeries{eur})
	require.NoError(t, err)
	// every derived return is 0.001, so the smoothed mean is 0.001 scaled by 1000
	assert.InDelta(t, 1.0, idx.Value, 1e-9)
	assert.Equal(t, models.PressureBullish, idx.Pressure)
}

func TestStrength_UnknownPairs(t *testing.T) {
	e := newEngine(t, func(c *models.AnalysisConfig) { c.Quotes = models.QuoteTable{} })
	gold := walk("XAU/USD", 150, 2000, 1)
	eur := walk("EUR/USD", 150, 1.08, 2)

	_, err := e.Strength(gold, []models.PriceSeries{eur})
	var ise *models.InsufficientSeriesError
	assert.True(t, errors.As(err, &ise))
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	cfg := models.DefaultAnalysisConfig()
	cfg.EMASpan = 0
	_, err := NewEngine(cfg, zerolog.Nop())
	assert.Error(t, err)
}
