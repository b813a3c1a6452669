package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Alias1177/ForceGold/models"
)

func TestInterpret_EveryLabel(t *testing.T) {
	labels := []models.RegimeLabel{
		models.RegimeStrongNegative,
		models.RegimeModerateNegative,
		models.RegimeWeakNeutral,
		models.RegimeModeratePositive,
		models.RegimeStrongPositive,
	}
	seen := map[string]bool{}
	for _, l := range labels {
		in := Interpret(l, "XAU/USD", "UUP")
		assert.NotEmpty(t, in.Strength)
		assert.NotEmpty(t, in.Behavior)
		assert.NotEmpty(t, in.Consequence)
		assert.False(t, seen[in.Strength], "duplicate interpretation for %s", l)
		seen[in.Strength] = true
	}
}

func TestCorrelation(t *testing.T) {
	res := &models.CorrelationResult{Base: "C:XAUUSD", Other: "C:UUP", Rho: -0.81234, Samples: 640, Label: models.RegimeStrongNegative}
	w := Window{
		Provider: "massive",
		Interval: "15min",
		Start:    time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 6, 19, 0, 0, 0, 0, time.UTC),
	}

	out := Correlation(res, w)
	assert.Contains(t, out, "C:XAUUSD vs C:UUP: -0.8123")
	assert.NotContains(t, out, "Data:")
	assert.Contains(t, out, "STRONG_NEGATIVE (640 samples, 15min bars, 2025-06-05 to 2025-06-19, via massive)")
	assert.Contains(t, out, "C:UUP up = C:XAUUSD down")
	assert.Contains(t, out, "leading indicator")
}

func TestStrength(t *testing.T) {
	idx := &models.StrengthIndex{
		Base:     "XAU/USD",
		Value:    -1.23456,
		Pressure: models.PressureBearish,
		Series:   []string{"XAU/USD", "XAU/EUR", "XAU/JPY"},
		Samples:  299,
	}
	out := Strength(idx, Window{Interval: "5min"})
	assert.Contains(t, out, "XAU/USD STRENGTH INDEX (5min)")
	assert.Contains(t, out, "Current value: -1.2346")
	assert.Contains(t, out, "Pressure: BEARISH")
	assert.Contains(t, out, "XAU/USD, XAU/EUR, XAU/JPY")
}

func TestStrength_DataSpan(t *testing.T) {
	idx := &models.StrengthIndex{
		Base:     "XAU/USD",
		Pressure: models.PressureNeutral,
		Samples:  10,
		From:     time.Date(2025, 6, 5, 0, 5, 0, 0, time.UTC),
		To:       time.Date(2025, 6, 18, 23, 55, 0, 0, time.UTC),
	}
	out := Strength(idx, Window{Interval: "5min"})
	assert.Contains(t, out, "Data: 2025-06-05 00:05 to 2025-06-18 23:55 UTC")
}
