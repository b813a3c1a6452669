// Package strength aggregates derived return series into a smoothed,
// scaled composite index.
package strength

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/Alias1177/ForceGold/models"
)

// MinSeries is the minimum number of contributing return series
const MinSeries = 2

// EMA smooths raw with alpha = 2/(span+1), seeded with raw[0]:
// s[0] = raw[0], s[i] = alpha*raw[i] + (1-alpha)*s[i-1].
// Input order is processing order.
func EMA(raw []float64, span int) ([]float64, error) {
	if span < 1 {
		return nil, fmt.Errorf("ema span must be at least 1, got %d", span)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	alpha := 2.0 / float64(span+1)
	out := make([]float64, len(raw))
	out[0] = raw[0]
	for i := 1; i < len(raw); i++ {
		out[i] = alpha*raw[i] + (1-alpha)*out[i-1]
	}
	return out, nil
}

// RowMean averages every row of m across its columns
func RowMean(m *models.AlignedMatrix) []float64 {
	out := make([]float64, m.Len())
	if len(m.Columns) == 0 {
		return out
	}
	for i := range out {
		out[i] = stat.Mean(m.Row(i), nil)
	}
	return out
}

// Aggregate averages the return columns of m row by row, smooths the result
// with an EMA of the given span and scales the last smoothed value.
func Aggregate(m *models.AlignedMatrix, span int, scale float64) (*models.StrengthIndex, error) {
	if len(m.Columns) < MinSeries {
		return nil, &models.InsufficientSeriesError{Have: len(m.Columns), Need: MinSeries}
	}
	if m.Len() == 0 {
		return nil, &models.InsufficientDataError{Stage: models.StageReturns, Have: 0, Need: 1}
	}
	for i := 1; i < len(m.Times); i++ {
		if !m.Times[i].After(m.Times[i-1]) {
			return nil, errors.New("strength rows are not in increasing time order")
		}
	}

	raw := RowMean(m)
	smoothed, err := EMA(raw, span)
	if err != nil {
		return nil, err
	}

	value := smoothed[len(smoothed)-1] * scale
	return &models.StrengthIndex{
		Base:     m.Symbols[0],
		Value:    value,
		Raw:      raw[len(raw)-1],
		Pressure: PressureOf(value),
		Series:   append([]string(nil), m.Symbols...),
		Samples:  m.Len(),
	}, nil
}

// PressureOf reads the direction of an index value
func PressureOf(v float64) models.Pressure {
	switch {
	case v > 0:
		return models.PressureBullish
	case v < 0:
		return models.PressureBearish
	}
	return models.PressureNeutral
}
