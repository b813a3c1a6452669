// Package returns converts aligned price levels into return series.
package returns

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/Alias1177/ForceGold/models"
)

// Kind selects the return formula
type Kind int

const (
	// Log is ln(p[i]/p[i-1]); used for correlation
	Log Kind = iota
	// Simple is p[i]/p[i-1] - 1; used for the strength index
	Simple
)

func (k Kind) String() string {
	if k == Simple {
		return "simple"
	}
	return "log"
}

// Options controls invalid-price handling
type Options struct {
	// MaxInvalidFraction is the share of return rows that may be excluded
	// before the whole transform fails
	MaxInvalidFraction float64
	Logger             zerolog.Logger
}

// Transform converts every column of a price matrix into returns. The first
// row is dropped. A row whose return needs a non-positive, NaN or infinite
// price in any column is excluded from every column so the result stays
// rectangular; the returned matrix keeps the timestamp of the later price.
func Transform(m *models.AlignedMatrix, kind Kind, opts Options) (*models.AlignedMatrix, error) {
	if kind != Log && kind != Simple {
		return nil, fmt.Errorf("unknown return kind %d", kind)
	}
	out := &models.AlignedMatrix{
		Symbols: append([]string(nil), m.Symbols...),
		Columns: make([][]float64, len(m.Columns)),
	}
	total := m.Len() - 1
	if total <= 0 {
		return out, nil
	}
	for j := range out.Columns {
		out.Columns[j] = make([]float64, 0, total)
	}

	excluded := make(map[string]int)
	var dropped int
	for i := 1; i < m.Len(); i++ {
		valid := true
		for j, col := range m.Columns {
			if !usable(col[i-1]) || !usable(col[i]) {
				excluded[m.Symbols[j]]++
				valid = false
			}
		}
		if !valid {
			dropped++
			opts.Logger.Warn().
				Time("time", m.Times[i]).
				Str("kind", kind.String()).
				Msg("Excluding return row with invalid price")
			continue
		}
		out.Times = append(out.Times, m.Times[i])
		for j, col := range m.Columns {
			out.Columns[j] = append(out.Columns[j], compute(kind, col[i-1], col[i]))
		}
	}

	if dropped > 0 && float64(dropped)/float64(total) > opts.MaxInvalidFraction {
		return nil, &models.InvalidPriceError{
			Symbol:   worst(excluded),
			Excluded: dropped,
			Total:    total,
			Limit:    opts.MaxInvalidFraction,
		}
	}
	return out, nil
}

func compute(kind Kind, prev, cur float64) float64 {
	if kind == Simple {
		return cur/prev - 1
	}
	return math.Log(cur / prev)
}

func usable(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}

// worst picks the symbol with the most exclusions, alphabetically first on ties
func worst(excluded map[string]int) string {
	var name string
	best := -1
	for s, n := range excluded {
		if n > best || (n == best && s < name) {
			name, best = s, n
		}
	}
	return name
}
