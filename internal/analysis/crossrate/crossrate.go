// Package crossrate synthesizes base-instrument prices in other currencies
// from an explicitly configured quoting table.
package crossrate

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Alias1177/ForceGold/models"
)

// MinSeries is the number of usable series a derivation must leave
const MinSeries = 2

// Deriver turns aligned base and pair prices into cross-rate prices
type Deriver struct {
	quotes models.QuoteTable
	logger zerolog.Logger
}

// NewDeriver creates a Deriver over the given quoting table
func NewDeriver(quotes models.QuoteTable, logger zerolog.Logger) *Deriver {
	return &Deriver{
		quotes: quotes,
		logger: logger.With().Str("component", "crossrate").Logger(),
	}
}

// Derive returns a price matrix whose first column is the base itself and
// whose following columns are the base priced in each known pair's currency,
// in argument order. Pairs missing from the table, or missing from m, are
// skipped with a warning. Fewer than MinSeries resulting columns is an
// InsufficientSeriesError.
func (d *Deriver) Derive(m *models.AlignedMatrix, base string, pairs []string) (*models.AlignedMatrix, error) {
	basePrices, ok := m.Column(base)
	if !ok {
		return nil, fmt.Errorf("base %q not in matrix", base)
	}

	out := &models.AlignedMatrix{
		Symbols: []string{base},
		Times:   m.Times,
		Columns: [][]float64{basePrices},
	}

	for _, pair := range pairs {
		q, known := d.quotes[pair]
		if !known || q.Convention == models.ConventionUnknown {
			d.logger.Warn().Str("pair", pair).Msg("No quoting convention configured, skipping pair")
			continue
		}
		pairPrices, present := m.Column(pair)
		if !present {
			d.logger.Warn().Str("pair", pair).Msg("Pair not present in aligned data, skipping")
			continue
		}

		derived := make([]float64, len(basePrices))
		for i := range basePrices {
			derived[i] = Apply(q.Convention, basePrices[i], pairPrices[i])
		}
		out.Symbols = append(out.Symbols, DerivedName(base, q))
		out.Columns = append(out.Columns, derived)
	}

	if len(out.Columns) < MinSeries {
		return nil, &models.InsufficientSeriesError{Have: len(out.Columns), Need: MinSeries}
	}
	d.logger.Debug().Strs("series", out.Symbols).Int("rows", out.Len()).Msg("Derived cross rates")
	return out, nil
}

// Apply combines one base price with one pair price. Non-positive or
// non-finite inputs yield NaN so the return transform can exclude the row.
func Apply(conv models.QuoteConvention, base, pair float64) float64 {
	if !positive(base) || !positive(pair) {
		return math.NaN()
	}
	switch conv {
	case models.ConventionDivide:
		return base / pair
	case models.ConventionMultiply:
		return base * pair
	}
	return math.NaN()
}

// Reverse recovers the base price from a derived price and the pair price
func Reverse(conv models.QuoteConvention, derived, pair float64) float64 {
	if !positive(derived) || !positive(pair) {
		return math.NaN()
	}
	switch conv {
	case models.ConventionDivide:
		return derived * pair
	case models.ConventionMultiply:
		return derived / pair
	}
	return math.NaN()
}

// DerivedName names the derived series, "XAU/USD" + EUR -> "XAU/EUR".
// Without a currency the pair symbol is appended instead.
func DerivedName(base string, q models.QuoteEntry) string {
	if q.Currency == "" {
		return base + "~" + q.Pair
	}
	head := base
	if i := strings.IndexByte(base, '/'); i > 0 {
		head = base[:i]
	}
	return head + "/" + q.Currency
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
