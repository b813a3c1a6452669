// Package alphavantage reads intraday closes from the Alpha Vantage
// TIME_SERIES_INTRADAY endpoint.
package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // exchange zones such as US/Eastern

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/Alias1177/ForceGold/internal/platform/http"
	"github.com/Alias1177/ForceGold/models"
)

const (
	defaultBaseURL = "https://www.alphavantage.co/query"
	dateLayout     = "2006-01-02 15:04:05"
)

// ErrRateLimited is returned when the payload carries a Note or Information
// message instead of data
var ErrRateLimited = errors.New("alpha vantage rate limit or plan restriction")

// Client is the Alpha Vantage API client
type Client struct {
	apiKey        string
	baseURL       string
	extendedHours bool
	httpClient    *httpClient.Client
	logger        zerolog.Logger
}

// ClientOptions holds options for creating a new Alpha Vantage client
type ClientOptions struct {
	APIKey         string
	BaseURL        string
	ExtendedHours  bool
	RequestTimeout time.Duration
	RequestsPerSec int
	MaxRetries     int
}

// NewClient creates a new Alpha Vantage client
func NewClient(options ClientOptions) *Client {
	if options.BaseURL == "" {
		options.BaseURL = defaultBaseURL
	}
	if options.RequestTimeout == 0 {
		options.RequestTimeout = 20 * time.Second
	}
	if options.RequestsPerSec == 0 {
		// free tier allows 5 calls a minute, keep bursts small
		options.RequestsPerSec = 1
	}

	return &Client{
		apiKey:        options.APIKey,
		baseURL:       options.BaseURL,
		extendedHours: options.ExtendedHours,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Name:           "alphavantage",
			Timeout:        options.RequestTimeout,
			RequestsPerSec: options.RequestsPerSec,
			MaxRetries:     options.MaxRetries,
		}),
		logger: log.With().Str("component", "alphavantage_client").Logger(),
	}
}

// Name implements models.SeriesProvider
func (c *Client) Name() string {
	return "alphavantage"
}

// FetchSeries downloads the full intraday history for req.Symbol and keeps
// the closes inside [req.Start, req.End). Timestamps are converted from the
// exchange time zone reported in the metadata to UTC.
func (c *Client) FetchSeries(ctx context.Context, req models.SeriesRequest) (models.PriceSeries, error) {
	interval, err := intervalParam(req.Interval)
	if err != nil {
		return models.PriceSeries{}, err
	}

	params := url.Values{}
	params.Set("function", "TIME_SERIES_INTRADAY")
	params.Set("symbol", req.Symbol)
	params.Set("interval", interval)
	params.Set("outputsize", "full")
	params.Set("datatype", "json")
	params.Set("extended_hours", strconv.FormatBool(c.extendedHours))
	params.Set("apikey", c.apiKey)

	c.logger.Debug().Str("symbol", req.Symbol).Str("interval", interval).Msg("Fetching series")

	body, err := c.httpClient.GetBody(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("alphavantage %s: %w", req.Symbol, err)
	}

	points, err := c.parse(body, interval)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("alphavantage %s: %w", req.Symbol, err)
	}

	series := models.NewSeries(req.Symbol, points, req.Start, req.End)
	c.logger.Debug().Str("symbol", req.Symbol).Int("count", series.Len()).Msg("Fetched series")
	return series, nil
}

func (c *Client) parse(body []byte, interval string) ([]models.Point, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	if msg, ok := raw["Error Message"]; ok {
		return nil, fmt.Errorf("API error: %s", unquote(msg))
	}
	for _, key := range []string{"Note", "Information"} {
		if msg, ok := raw[key]; ok {
			c.logger.Warn().Str(strings.ToLower(key), unquote(msg)).Msg("Alpha Vantage returned no data")
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, unquote(msg))
		}
	}

	seriesKey := fmt.Sprintf("Time Series (%s)", interval)
	rawSeries, ok := raw[seriesKey]
	if !ok {
		return nil, fmt.Errorf("response has no %q", seriesKey)
	}

	loc := time.UTC
	if rawMeta, ok := raw["Meta Data"]; ok {
		var meta map[string]string
		if err := json.Unmarshal(rawMeta, &meta); err == nil {
			if tz := metaValue(meta, "Time Zone"); tz != "" {
				l, err := time.LoadLocation(tz)
				if err != nil {
					return nil, fmt.Errorf("time zone %q: %w", tz, err)
				}
				loc = l
			}
		}
	}

	var bars map[string]map[string]string
	if err := json.Unmarshal(rawSeries, &bars); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", seriesKey, err)
	}

	points := make([]models.Point, 0, len(bars))
	for stamp, bar := range bars {
		ts, err := time.ParseInLocation(dateLayout, stamp, loc)
		if err != nil {
			return nil, fmt.Errorf("timestamp %q: %w", stamp, err)
		}
		closeStr, ok := bar["4. close"]
		if !ok {
			return nil, fmt.Errorf("bar %s has no close", stamp)
		}
		price, err := strconv.ParseFloat(closeStr, 64)
		if err != nil {
			return nil, fmt.Errorf("close %q: %w", closeStr, err)
		}
		points = append(points, models.Point{Time: ts.UTC(), Price: price})
	}
	return points, nil
}

// metaValue looks up a "N. Name" metadata key by its name part
func metaValue(meta map[string]string, name string) string {
	for k, v := range meta {
		if k == name || strings.HasSuffix(k, ". "+name) {
			return v
		}
	}
	return ""
}

func intervalParam(d time.Duration) (string, error) {
	switch d {
	case time.Minute:
		return "1min", nil
	case 5 * time.Minute:
		return "5min", nil
	case 15 * time.Minute:
		return "15min", nil
	case 30 * time.Minute:
		return "30min", nil
	case time.Hour:
		return "60min", nil
	}
	return "", fmt.Errorf("alphavantage: unsupported intraday interval %s", d)
}

func unquote(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return string(raw)
	}
	return s
}
