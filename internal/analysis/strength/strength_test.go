package strength

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/ForceGold/models"
)

func returnsMatrix(cols ...[]float64) *models.AlignedMatrix {
	t0 := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	m := &models.AlignedMatrix{}
	for i := range cols[0] {
		m.Times = append(m.Times, t0.Add(time.Duration(i)*5*time.Minute))
	}
	names := []string{"XAU/USD", "XAU/EUR", "XAU/JPY", "XAU/GBP"}
	for j, c := range cols {
		m.Symbols = append(m.Symbols, names[j])
		m.Columns = append(m.Columns, c)
	}
	return m
}

func TestEMA_SpanOneIsIdentity(t *testing.T) {
	raw := []float64{0.3, -1.2, 4.5, 0, 2.25}
	s, err := EMA(raw, 1)
	require.NoError(t, err)
	assert.Equal(t, raw, s)
}

func TestEMA_HugeSpanStaysAtFirstValue(t *testing.T) {
	raw := []float64{0.5, 10, -10, 7, 3}
	s, err := EMA(raw, math.MaxInt32)
	require.NoError(t, err)
	for _, v := range s {
		assert.InDelta(t, 0.5, v, 1e-6)
	}
}

func TestEMA_MatchesRecurrence(t *testing.T) {
	raw := []float64{1, 2, 3}
	s, err := EMA(raw, 3) // alpha = 0.5
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 1.5, 2.25}, s, 1e-12)

	_, err = EMA(raw, 0)
	assert.Error(t, err)

	empty, err := EMA(nil, 20)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAggregate(t *testing.T) {
	m := returnsMatrix(
		[]float64{0.001, 0.002, -0.001},
		[]float64{0.003, 0.000, 0.001},
	)

	idx, err := Aggregate(m, 3, 1000)
	require.NoError(t, err)

	// row means 0.002, 0.001, 0.0; ema(alpha=.5) 0.002, 0.0015, 0.00075
	assert.InDelta(t, 0.75, idx.Value, 1e-9)
	assert.InDelta(t, 0.0, idx.Raw, 1e-12)
	assert.Equal(t, models.PressureBullish, idx.Pressure)
	assert.Equal(t, 3, idx.Samples)
	assert.Equal(t, "XAU/USD", idx.Base)
	assert.Equal(t, []string{"XAU/USD", "XAU/EUR"}, idx.Series)
}

func TestAggregate_Bearish(t *testing.T) {
	m := returnsMatrix(
		[]float64{-0.001, -0.002},
		[]float64{-0.003, 0.001},
		[]float64{0.0, -0.002},
	)
	idx, err := Aggregate(m, 20, 1000)
	require.NoError(t, err)
	assert.Less(t, idx.Value, 0.0)
	assert.Equal(t, models.PressureBearish, idx.Pressure)
	assert.Equal(t, -1, idx.Sign())
}

func TestAggregate_OrderMatters(t *testing.T) {
	m := returnsMatrix([]float64{0.01, 0, 0, -0.01}, []float64{0.01, 0, 0, -0.01})
	fwd, err := Aggregate(m, 3, 1)
	require.NoError(t, err)

	rev := returnsMatrix([]float64{-0.01, 0, 0, 0.01}, []float64{-0.01, 0, 0, 0.01})
	bwd, err := Aggregate(rev, 3, 1)
	require.NoError(t, err)
	assert.NotEqual(t, fwd.Value, bwd.Value)

	// rows out of time order are rejected
	m.Times[1], m.Times[2] = m.Times[2], m.Times[1]
	_, err = Aggregate(m, 3, 1)
	assert.Error(t, err)
}

func TestAggregate_Errors(t *testing.T) {
	_, err := Aggregate(returnsMatrix([]float64{0.1, 0.2}), 20, 1000)
	var ise *models.InsufficientSeriesError
	assert.True(t, errors.As(err, &ise))

	_, err = Aggregate(returnsMatrix([]float64{}, []float64{}), 20, 1000)
	var ide *models.InsufficientDataError
	assert.True(t, errors.As(err, &ide))
}

func TestPressureOf(t *testing.T) {
	assert.Equal(t, models.PressureNeutral, PressureOf(0))
	assert.Equal(t, models.PressureBullish, PressureOf(1e-12))
	assert.Equal(t, models.PressureBearish, PressureOf(-3))
}

func TestRowMean(t *testing.T) {
	m := returnsMatrix(
		[]float64{0.01, -0.02, 0.003},
		[]float64{0.03, 0.02, -0.001},
		[]float64{-0.01, 0.00, 0.004},
	)
	got := RowMean(m)
	require.Len(t, got, 3)
	assert.InDelta(t, 0.01, got[0], 1e-15)
	assert.InDelta(t, 0.0, got[1], 1e-15)
	assert.InDelta(t, 0.002, got[2], 1e-15)

	assert.Empty(t, RowMean(&models.AlignedMatrix{}))
}
