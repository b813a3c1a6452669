// Package align joins independent price series on their timestamps.
package align

import (
	"fmt"
	"time"

	"github.com/Alias1177/ForceGold/models"
)

// Align inner-joins the series on timestamps present in every input and
// returns them as an ascending matrix, one column per series in argument
// order. Rows missing in any input are dropped; nothing is interpolated.
// It fails with InsufficientDataError when fewer than minRows rows survive.
func Align(minRows int, series ...models.PriceSeries) (*models.AlignedMatrix, error) {
	if len(series) < 2 {
		return nil, &models.InsufficientSeriesError{Have: len(series), Need: 2}
	}

	seen := make(map[string]struct{}, len(series))
	for _, s := range series {
		if _, dup := seen[s.Symbol]; dup {
			return nil, fmt.Errorf("duplicate symbol %q in alignment input", s.Symbol)
		}
		seen[s.Symbol] = struct{}{}
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}

	// Index every series but the shortest by timestamp; walk the shortest.
	pivot := 0
	for i, s := range series {
		if s.Len() < series[pivot].Len() {
			pivot = i
		}
	}
	lookup := make([]map[int64]float64, len(series))
	for i, s := range series {
		if i == pivot {
			continue
		}
		idx := make(map[int64]float64, s.Len())
		for _, p := range s.Points {
			idx[p.Time.UnixNano()] = p.Price
		}
		lookup[i] = idx
	}

	m := &models.AlignedMatrix{
		Symbols: make([]string, len(series)),
		Columns: make([][]float64, len(series)),
	}
	for i, s := range series {
		m.Symbols[i] = s.Symbol
		m.Columns[i] = make([]float64, 0, series[pivot].Len())
	}

	row := make([]float64, len(series))
	for _, p := range series[pivot].Points {
		key := p.Time.UnixNano()
		complete := true
		for i := range series {
			if i == pivot {
				row[i] = p.Price
				continue
			}
			v, ok := lookup[i][key]
			if !ok {
				complete = false
				break
			}
			row[i] = v
		}
		if !complete {
			continue
		}
		m.Times = append(m.Times, p.Time.UTC())
		for i := range series {
			m.Columns[i] = append(m.Columns[i], row[i])
		}
	}

	if err := RequireRows(m, minRows, models.StageAlignment); err != nil {
		return nil, err
	}
	return m, nil
}

// RequireRows fails with InsufficientDataError when m has fewer than minRows rows
func RequireRows(m *models.AlignedMatrix, minRows int, stage models.Stage) error {
	if m.Len() < minRows {
		return &models.InsufficientDataError{Stage: stage, Have: m.Len(), Need: minRows}
	}
	return nil
}

// Span returns the first and last timestamps of m
func Span(m *models.AlignedMatrix) (time.Time, time.Time) {
	if m.Len() == 0 {
		return time.Time{}, time.Time{}
	}
	return m.Times[0], m.Times[len(m.Times)-1]
}
