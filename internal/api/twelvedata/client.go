package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/Alias1177/ForceGold/internal/platform/http"
	"github.com/Alias1177/ForceGold/models"
)

const (
	defaultBaseURL = "https://api.twelvedata.com"
	// largest outputsize the time_series endpoint accepts
	maxOutputSize = 5000
	dateLayout    = "2006-01-02 15:04:05"
	dayLayout     = "2006-01-02"
)

// Client is the TwelveData API client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new TwelveData client
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
}

type timeSeriesResponse struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
		Timezone string `json:"exchange_timezone"`
	} `json:"meta"`
	Values []struct {
		Datetime string `json:"datetime"`
		Close    string `json:"close"`
	} `json:"values"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewClient creates a new TwelveData API client
func NewClient(options ClientOptions) *Client {
	httpOpts := httpClient.ClientOptions{
		Name:            "twelvedata",
		Timeout:         options.RequestTimeout,
		RequestsPerSec:  options.RequestsPerSec,
		MaxRetries:      options.MaxRetries,
		MaxRetryTimeout: options.MaxRetryTimeout,
	}

	// Apply defaults if not set
	if httpOpts.Timeout == 0 {
		httpOpts.Timeout = 30 * time.Second
	}
	if httpOpts.RequestsPerSec == 0 {
		httpOpts.RequestsPerSec = 5
	}
	if options.BaseURL == "" {
		options.BaseURL = defaultBaseURL
	}

	return &Client{
		apiKey:     options.APIKey,
		baseURL:    strings.TrimRight(options.BaseURL, "/"),
		httpClient: httpClient.NewClient(httpOpts),
		logger:     log.With().Str("component", "twelvedata_client").Logger(),
	}
}

// Name implements models.SeriesProvider
func (c *Client) Name() string {
	return "twelvedata"
}

// FetchSeries fetches closing prices for req.Symbol over [req.Start, req.End).
// Timestamps are requested and parsed in UTC.
func (c *Client) FetchSeries(ctx context.Context, req models.SeriesRequest) (models.PriceSeries, error) {
	interval, ok := models.IntervalName(req.Interval)
	if !ok {
		return models.PriceSeries{}, fmt.Errorf("twelvedata: unsupported interval %s", req.Interval)
	}

	size := req.Limit
	if size <= 0 {
		size = models.CandlesForWindow(req.Interval, req.Start, req.End)
	}
	switch {
	case size <= 0:
		size = 30
	case size > maxOutputSize:
		size = maxOutputSize
	}

	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("interval", interval)
	params.Set("outputsize", strconv.Itoa(size))
	params.Set("timezone", "UTC")
	params.Set("apikey", c.apiKey)
	if !req.Start.IsZero() {
		params.Set("start_date", req.Start.UTC().Format(dateLayout))
	}
	if !req.End.IsZero() {
		params.Set("end_date", req.End.UTC().Format(dateLayout))
	}

	c.logger.Debug().Str("symbol", req.Symbol).Str("interval", interval).Int("outputsize", size).Msg("Fetching series")

	body, err := c.httpClient.GetBody(ctx, c.baseURL+"/time_series?"+params.Encode())
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("twelvedata %s: %w", req.Symbol, err)
	}

	var data timeSeriesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return models.PriceSeries{}, fmt.Errorf("parsing JSON: %w", err)
	}

	if data.Status == "error" {
		c.logger.Error().Int("code", data.Code).Str("message", data.Message).Msg("Twelve Data API error")
		return models.PriceSeries{}, fmt.Errorf("twelve data API error %d: %s", data.Code, data.Message)
	}

	if len(data.Values) == 0 {
		c.logger.Warn().Str("symbol", req.Symbol).Msg("No values in response")
		return models.PriceSeries{}, fmt.Errorf("twelvedata %s: empty data returned", req.Symbol)
	}

	points := make([]models.Point, 0, len(data.Values))
	for _, v := range data.Values {
		ts, err := parseDatetime(v.Datetime)
		if err != nil {
			return models.PriceSeries{}, fmt.Errorf("twelvedata %s: %w", req.Symbol, err)
		}
		price, err := strconv.ParseFloat(v.Close, 64)
		if err != nil {
			return models.PriceSeries{}, fmt.Errorf("twelvedata %s: close %q: %w", req.Symbol, v.Close, err)
		}
		points = append(points, models.Point{Time: ts, Price: price})
	}

	// Values arrive newest first
	series := models.NewSeries(req.Symbol, points, req.Start, req.End)
	c.logger.Debug().Str("symbol", req.Symbol).Int("count", series.Len()).Msg("Fetched series")
	return series, nil
}

func parseDatetime(s string) (time.Time, error) {
	if ts, err := time.ParseInLocation(dateLayout, s, time.UTC); err == nil {
		return ts, nil
	}
	ts, err := time.ParseInLocation(dayLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("datetime %q: %w", s, err)
	}
	return ts, nil
}
