package models

import (
	"sort"
	"time"
)

// Point is a single price observation
type Point struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// PriceSeries is an ordered sequence of observations for one instrument.
// Timestamps are strictly increasing.
type PriceSeries struct {
	Symbol string  `json:"symbol"`
	Points []Point `json:"points"`
}

// Len returns the number of observations
func (s PriceSeries) Len() int {
	return len(s.Points)
}

// Validate checks that timestamps are strictly increasing
func (s PriceSeries) Validate() error {
	for i := 1; i < len(s.Points); i++ {
		if !s.Points[i].Time.After(s.Points[i-1].Time) {
			return &UnorderedSeriesError{Symbol: s.Symbol, Index: i}
		}
	}
	return nil
}

// Prices returns a copy of the price values
func (s PriceSeries) Prices() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Price
	}
	return out
}

// NewSeries sorts points ascending, keeps the last observation for a
// repeated timestamp and drops anything outside [start, end) when the bounds
// are set. Provider clients use it to satisfy the ordering invariant.
func NewSeries(symbol string, points []Point, start, end time.Time) PriceSeries {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})

	out := make([]Point, 0, len(points))
	for _, p := range points {
		if !start.IsZero() && p.Time.Before(start) {
			continue
		}
		if !end.IsZero() && !p.Time.Before(end) {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Time.Equal(p.Time) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return PriceSeries{Symbol: symbol, Points: out}
}

// AlignedMatrix holds one value per symbol for every row of a shared,
// ascending time index. Columns[j][i] is the value of Symbols[j] at Times[i].
// Every row is complete.
type AlignedMatrix struct {
	Symbols []string
	Times   []time.Time
	Columns [][]float64
}

// Len returns the number of rows
func (m *AlignedMatrix) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Times)
}

// Column returns the values for symbol
func (m *AlignedMatrix) Column(symbol string) ([]float64, bool) {
	for j, s := range m.Symbols {
		if s == symbol {
			return m.Columns[j], true
		}
	}
	return nil, false
}

// Row returns the values of row i in column order
func (m *AlignedMatrix) Row(i int) []float64 {
	row := make([]float64, len(m.Columns))
	for j := range m.Columns {
		row[j] = m.Columns[j][i]
	}
	return row
}

// RegimeLabel classifies a correlation coefficient
type RegimeLabel string

const (
	RegimeStrongNegative   RegimeLabel = "STRONG_NEGATIVE"
	RegimeModerateNegative RegimeLabel = "MODERATE_NEGATIVE"
	RegimeWeakNeutral      RegimeLabel = "WEAK_NEUTRAL"
	RegimeModeratePositive RegimeLabel = "MODERATE_POSITIVE" // anomalous for an inverse-expected pair
	RegimeStrongPositive   RegimeLabel = "STRONG_POSITIVE"   // regime inverted
)

// CorrelationResult is the outcome of a pairwise correlation run
type CorrelationResult struct {
	Base    string      `json:"base"`
	Other   string      `json:"other"`
	Rho     float64     `json:"rho"`
	Samples int         `json:"samples"`
	Label   RegimeLabel `json:"label"`
	From    time.Time   `json:"from"` // first return timestamp
	To      time.Time   `json:"to"`
}

// Pressure is the directional reading of a strength index
type Pressure string

const (
	PressureBullish Pressure = "BULLISH"
	PressureBearish Pressure = "BEARISH"
	PressureNeutral Pressure = "NEUTRAL"
)

// StrengthIndex is the smoothed, scaled composite of derived returns
type StrengthIndex struct {
	Base     string    `json:"base"`
	Value    float64   `json:"value"` // last smoothed value * scale
	Raw      float64   `json:"raw"`   // last unsmoothed row mean
	Pressure Pressure  `json:"pressure"`
	Series   []string  `json:"series"`
	Samples  int       `json:"samples"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
}

// Sign returns -1, 0 or 1 following the index value
func (s StrengthIndex) Sign() int {
	switch {
	case s.Value > 0:
		return 1
	case s.Value < 0:
		return -1
	}
	return 0
}

// SeriesRequest describes a price window to fetch from a provider
type SeriesRequest struct {
	Symbol   string
	Interval time.Duration
	Start    time.Time
	End      time.Time
	Limit    int // 0 means provider default
}
