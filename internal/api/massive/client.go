// Package massive reads aggregate bars from the Massive (formerly Polygon)
// REST API.
package massive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/Alias1177/ForceGold/internal/platform/http"
	"github.com/Alias1177/ForceGold/models"
)

const (
	defaultBaseURL = "https://api.massive.com"
	pageLimit      = 50000
	// guards against a next_url loop
	maxPages = 50
)

// Client is the Massive aggregates client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new Massive client
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
}

type aggsResponse struct {
	Ticker       string `json:"ticker"`
	Status       string `json:"status"`
	ResultsCount int    `json:"resultsCount"`
	Results      []struct {
		T int64   `json:"t"`
		C float64 `json:"c"`
	} `json:"results"`
	NextURL string `json:"next_url"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewClient creates a new Massive client
func NewClient(options ClientOptions) *Client {
	if options.BaseURL == "" {
		options.BaseURL = defaultBaseURL
	}
	if options.RequestTimeout == 0 {
		options.RequestTimeout = 20 * time.Second
	}

	return &Client{
		apiKey:  options.APIKey,
		baseURL: strings.TrimRight(options.BaseURL, "/"),
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Name:            "massive",
			Timeout:         options.RequestTimeout,
			RequestsPerSec:  options.RequestsPerSec,
			MaxRetries:      options.MaxRetries,
			MaxRetryTimeout: options.MaxRetryTimeout,
		}),
		logger: log.With().Str("component", "massive_client").Logger(),
	}
}

// Name implements models.SeriesProvider
func (c *Client) Name() string {
	return "massive"
}

// FetchSeries downloads ascending aggregate closes for req.Symbol between the
// calendar days of req.Start and req.End, following next_url pages.
func (c *Client) FetchSeries(ctx context.Context, req models.SeriesRequest) (models.PriceSeries, error) {
	multiplier, timespan, err := rangeParams(req.Interval)
	if err != nil {
		return models.PriceSeries{}, err
	}
	if req.Start.IsZero() || req.End.IsZero() {
		return models.PriceSeries{}, fmt.Errorf("massive: request window is required")
	}

	params := url.Values{}
	params.Set("adjusted", "true")
	params.Set("sort", "asc")
	params.Set("limit", fmt.Sprint(pageLimit))

	next := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/%d/%s/%s/%s?%s",
		c.baseURL,
		url.PathEscape(req.Symbol),
		multiplier,
		timespan,
		req.Start.UTC().Format("2006-01-02"),
		req.End.UTC().Format("2006-01-02"),
		params.Encode(),
	)

	var points []models.Point
	for page := 0; next != "" && page < maxPages; page++ {
		data, err := c.fetchPage(ctx, next)
		if err != nil {
			return models.PriceSeries{}, fmt.Errorf("massive %s: %w", req.Symbol, err)
		}
		for _, r := range data.Results {
			points = append(points, models.Point{Time: time.UnixMilli(r.T).UTC(), Price: r.C})
		}
		next = data.NextURL
	}

	if len(points) == 0 {
		c.logger.Warn().Str("symbol", req.Symbol).Msg("No results in response")
		return models.PriceSeries{}, fmt.Errorf("massive %s: empty data returned", req.Symbol)
	}

	series := models.NewSeries(req.Symbol, points, req.Start, req.End)
	c.logger.Debug().Str("symbol", req.Symbol).Int("count", series.Len()).Msg("Fetched series")
	return series, nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (*aggsResponse, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing page url: %w", err)
	}
	q := u.Query()
	q.Set("apiKey", c.apiKey)
	u.RawQuery = q.Encode()

	body, err := c.httpClient.GetBody(ctx, u.String())
	if err != nil {
		return nil, err
	}

	var data aggsResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if data.Status == "ERROR" || data.Status == "NOT_AUTHORIZED" {
		msg := data.Error
		if msg == "" {
			msg = data.Message
		}
		return nil, fmt.Errorf("API error %s: %s", data.Status, msg)
	}
	return &data, nil
}

func rangeParams(d time.Duration) (int64, string, error) {
	switch {
	case d <= 0:
	case d%(24*time.Hour) == 0:
		return int64(d / (24 * time.Hour)), "day", nil
	case d%time.Hour == 0:
		return int64(d / time.Hour), "hour", nil
	case d%time.Minute == 0:
		return int64(d / time.Minute), "minute", nil
	}
	return 0, "", fmt.Errorf("massive: unsupported interval %s", d)
}
