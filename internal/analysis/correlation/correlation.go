// Package correlation computes Pearson correlation between return series and
// maps it onto regime labels.
package correlation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/Alias1177/ForceGold/models"
)

// Pearson returns the correlation coefficient of two equal-length series,
// clamped to [-1, 1]. A series with zero variance is a DegenerateSeriesError.
func Pearson(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("series length mismatch: %d vs %d", len(x), len(y))
	}
	n := len(x)
	if n < 2 {
		return 0, &models.InsufficientDataError{Stage: models.StageReturns, Have: n, Need: 2}
	}
	if Constant(x) || Constant(y) {
		return 0, &models.DegenerateSeriesError{}
	}

	rho := stat.Correlation(x, y, nil)
	if math.IsNaN(rho) {
		return 0, &models.DegenerateSeriesError{}
	}
	if rho > 1 {
		return 1, nil
	}
	if rho < -1 {
		return -1, nil
	}
	return rho, nil
}

// Classify maps rho onto a regime label. The negative boundaries are
// inclusive upper bounds, the positive ones inclusive lower bounds.
func Classify(rho float64, bands models.RegimeBands) models.RegimeLabel {
	switch {
	case rho <= bands.StrongNegative:
		return models.RegimeStrongNegative
	case rho <= bands.ModerateNegative:
		return models.RegimeModerateNegative
	case rho >= bands.StrongPositive:
		return models.RegimeStrongPositive
	case rho >= bands.ModeratePositive:
		return models.RegimeModeratePositive
	default:
		return models.RegimeWeakNeutral
	}
}

// Constant reports whether every value of v equals the first
func Constant(v []float64) bool {
	if len(v) == 0 {
		return true
	}
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}
