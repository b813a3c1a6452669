package correlation

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/ForceGold/models"
)

func wave(n int, phase float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(float64(i)*0.3+phase) * 0.001
	}
	return out
}

func TestPearson_SelfIsOne(t *testing.T) {
	x := wave(150, 0)
	rho, err := Pearson(x, x)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rho, 1e-12)
	assert.Equal(t, models.RegimeStrongPositive, Classify(rho, models.DefaultRegimeBands()))
}

func TestPearson_Symmetric(t *testing.T) {
	x := wave(200, 0)
	y := wave(200, 1.3)
	for i := range y {
		y[i] += float64(i%7) * 1e-4
	}

	a, err := Pearson(x, y)
	require.NoError(t, err)
	b, err := Pearson(y, x)
	require.NoError(t, err)
	assert.InDelta(t, a, b, 1e-15)
}

func TestPearson_Negated(t *testing.T) {
	x := wave(120, 0.4)
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = -2*v + 0.5
	}

	rho, err := Pearson(x, y)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, rho, 1e-12)
	assert.Equal(t, models.RegimeStrongNegative, Classify(rho, models.DefaultRegimeBands()))
}

func TestPearson_KnownValue(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 1, 4, 3, 5}
	rho, err := Pearson(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, rho, 1e-12)
}

func TestPearson_Errors(t *testing.T) {
	_, err := Pearson([]float64{1, 2}, []float64{1})
	assert.Error(t, err)

	_, err = Pearson([]float64{1}, []float64{1})
	var ide *models.InsufficientDataError
	assert.True(t, errors.As(err, &ide))

	flat := []float64{0.1, 0.1, 0.1, 0.1}
	_, err = Pearson(flat, []float64{1, 2, 3, 4})
	var dse *models.DegenerateSeriesError
	assert.True(t, errors.As(err, &dse))

	_, err = Pearson([]float64{1, 2, 3, 4}, flat)
	assert.True(t, errors.As(err, &dse))
}

func TestPearson_NonFiniteIsDegenerate(t *testing.T) {
	x := []float64{0.001, math.Inf(1), -0.002, 0.003}
	_, err := Pearson(x, []float64{1, 2, 3, 4})
	var dse *models.DegenerateSeriesError
	assert.True(t, errors.As(err, &dse))
}

func TestPearson_MatchesCovarianceRatio(t *testing.T) {
	x := wave(90, 0.2)
	y := wave(90, 2.1)
	for i := range y {
		y[i] += float64(i%5) * 2e-4
	}

	var mx, my float64
	for i := range x {
		mx += x[i]
		my += y[i]
	}
	mx /= float64(len(x))
	my /= float64(len(y))
	var cov, vx, vy float64
	for i := range x {
		cov += (x[i] - mx) * (y[i] - my)
		vx += (x[i] - mx) * (x[i] - mx)
		vy += (y[i] - my) * (y[i] - my)
	}

	rho, err := Pearson(x, y)
	require.NoError(t, err)
	assert.InDelta(t, cov/math.Sqrt(vx*vy), rho, 1e-12)
}

func TestClassify_Boundaries(t *testing.T) {
	bands := models.DefaultRegimeBands()
	tests := []struct {
		rho  float64
		want models.RegimeLabel
	}{
		{-1, models.RegimeStrongNegative},
		{-0.7, models.RegimeStrongNegative},
		{-0.6999, models.RegimeModerateNegative},
		{-0.3, models.RegimeModerateNegative},
		{-0.2999, models.RegimeWeakNeutral},
		{0, models.RegimeWeakNeutral},
		{0.2999, models.RegimeWeakNeutral},
		{0.3, models.RegimeModeratePositive},
		{0.6999, models.RegimeModeratePositive},
		{0.7, models.RegimeStrongPositive},
		{1, models.RegimeStrongPositive},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.rho, bands), "rho=%v", tt.rho)
	}
}

func TestClassify_TotalPartition(t *testing.T) {
	bands := models.DefaultRegimeBands()
	counts := map[models.RegimeLabel]int{}
	for i := -1000; i <= 1000; i++ {
		label := Classify(float64(i)/1000, bands)
		require.NotEmpty(t, label)
		counts[label]++
	}
	// every label is reachable and nothing falls outside the five
	assert.Len(t, counts, 5)
	total := 0
	for _, c := range counts {
		total += c
	}
	assert.Equal(t, 2001, total)
}

func TestClassify_CustomBands(t *testing.T) {
	bands := models.RegimeBands{StrongNegative: -0.8, ModerateNegative: -0.2, ModeratePositive: 0.2, StrongPositive: 0.8}
	assert.Equal(t, models.RegimeModerateNegative, Classify(-0.7, bands))
	assert.Equal(t, models.RegimeModeratePositive, Classify(0.7, bands))
}
