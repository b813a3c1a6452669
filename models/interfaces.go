package models

import "context"

// SeriesProvider fetches a closing-price window for one symbol.
// Implementations return points in ascending time order.
type SeriesProvider interface {
	Name() string
	FetchSeries(ctx context.Context, req SeriesRequest) (PriceSeries, error)
}
