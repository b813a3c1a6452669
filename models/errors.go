package models

import (
	"errors"
	"fmt"
)

// ErrUnorderedSeries is matched by UnorderedSeriesError via errors.Is
var ErrUnorderedSeries = errors.New("series timestamps are not strictly increasing")

// Stage names the point of the pipeline where a sample count was checked
type Stage string

const (
	StageAlignment Stage = "alignment"
	StageReturns   Stage = "returns"
)

// InsufficientDataError is returned when too few synchronized samples remain
type InsufficientDataError struct {
	Stage Stage
	Have  int
	Need  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data after %s: %d synchronized samples, need at least %d", e.Stage, e.Have, e.Need)
}

// InvalidPriceError is returned when too many rows had to be dropped because
// of non-positive or missing prices
type InvalidPriceError struct {
	Symbol   string
	Excluded int
	Total    int
	Limit    float64
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("invalid prices in %s: %d of %d returns excluded, limit %.2f%%",
		e.Symbol, e.Excluded, e.Total, e.Limit*100)
}

// InsufficientSeriesError is returned when fewer usable series remain than required
type InsufficientSeriesError struct {
	Have int
	Need int
}

func (e *InsufficientSeriesError) Error() string {
	return fmt.Sprintf("insufficient series: have %d, need at least %d", e.Have, e.Need)
}

// DegenerateSeriesError is returned when a correlation input has zero variance
type DegenerateSeriesError struct {
	Symbol string
}

func (e *DegenerateSeriesError) Error() string {
	if e.Symbol == "" {
		return "degenerate series: zero variance"
	}
	return fmt.Sprintf("degenerate series %s: zero variance", e.Symbol)
}

// UnorderedSeriesError points at the first out-of-order observation
type UnorderedSeriesError struct {
	Symbol string
	Index  int
}

func (e *UnorderedSeriesError) Error() string {
	return fmt.Sprintf("series %s: timestamp at index %d does not follow its predecessor", e.Symbol, e.Index)
}

func (e *UnorderedSeriesError) Is(target error) bool {
	return target == ErrUnorderedSeries
}
