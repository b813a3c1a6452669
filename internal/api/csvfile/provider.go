// Package csvfile serves price series from local CSV files, one file per
// symbol, for offline runs and replaying saved data.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ForceGold/models"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Provider reads <dir>/<symbol>.csv with a header row naming a time column
// (time, datetime or timestamp) and a price column (price or close)
type Provider struct {
	dir    string
	logger zerolog.Logger
}

// New creates a Provider rooted at dir
func New(dir string) *Provider {
	return &Provider{
		dir:    dir,
		logger: log.With().Str("component", "csv_provider").Logger(),
	}
}

// Name implements models.SeriesProvider
func (p *Provider) Name() string {
	return "csv"
}

// FileName maps a symbol to its file name: "XAU/USD" becomes "XAU_USD.csv"
// and "C:UUP" becomes "C_UUP.csv"
func FileName(symbol string) string {
	r := strings.NewReplacer("/", "_", ":", "_", "\\", "_")
	return r.Replace(symbol) + ".csv"
}

// FetchSeries implements models.SeriesProvider. Interval and Limit are not
// used; the file is taken as already sampled.
func (p *Provider) FetchSeries(ctx context.Context, req models.SeriesRequest) (models.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return models.PriceSeries{}, err
	}

	path := filepath.Join(p.dir, FileName(req.Symbol))
	f, err := os.Open(path)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("csv %s: %w", req.Symbol, err)
	}
	defer f.Close()

	points, err := Read(f)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("csv %s: %w", path, err)
	}

	series := models.NewSeries(req.Symbol, points, req.Start, req.End)
	p.logger.Debug().Str("symbol", req.Symbol).Str("file", path).Int("count", series.Len()).Msg("Loaded series")
	return series, nil
}

// Read parses CSV rows into points. Rows are returned in file order.
func Read(r io.Reader) ([]models.Point, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file")
		}
		return nil, err
	}
	timeCol, priceCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "time", "datetime", "timestamp", "date":
			timeCol = i
		case "price", "close":
			priceCol = i
		}
	}
	if timeCol < 0 || priceCol < 0 {
		return nil, fmt.Errorf("header %v needs a time and a price column", header)
	}

	var points []models.Point
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		ts, err := parseTime(rec[timeCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(rec[priceCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: price %q: %w", line, rec[priceCol], err)
		}
		points = append(points, models.Point{Time: ts, Price: price})
	}
	return points, nil
}

// Write stores a series in the format Read accepts
func Write(w io.Writer, s models.PriceSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "price"}); err != nil {
		return err
	}
	for _, p := range s.Points {
		rec := []string{p.Time.UTC().Format(time.RFC3339), strconv.FormatFloat(p.Price, 'f', -1, 64)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}
