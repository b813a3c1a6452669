package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Client is a wrapper for HTTP client with rate limiting, retries and a
// circuit breaker shared by every request it sends
type Client struct {
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	opts       ClientOptions
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new Client
type ClientOptions struct {
	Name            string
	Timeout         time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
	InitialInterval time.Duration
	// consecutive failed requests that open the breaker
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// NewClient creates a new HTTP client with rate limiting
func NewClient(opts ClientOptions) *Client {
	// Set default values if not provided
	if opts.Name == "" {
		opts.Name = "http"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.MaxRetryTimeout == 0 {
		opts.MaxRetryTimeout = 30 * time.Second
	}
	if opts.InitialInterval == 0 {
		opts.InitialInterval = 500 * time.Millisecond
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerTimeout == 0 {
		opts.BreakerTimeout = 60 * time.Second
	}

	logger := log.With().Str("component", "http_client").Str("client", opts.Name).Logger()

	settings := gobreaker.Settings{
		Name:     opts.Name,
		Interval: 60 * time.Second,
		Timeout:  opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			// client errors say nothing about upstream health
			var se *HTTPStatusError
			if errors.As(err, &se) {
				return !se.Retryable()
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: opts.Timeout,
		},
		Limiter: rate.NewLimiter(rate.Every(time.Second/time.Duration(opts.RequestsPerSec)), opts.RequestsPerSec),
		breaker: gobreaker.NewCircuitBreaker(settings),
		opts:    opts,
		logger:  logger,
	}
}

// DoRequest performs an HTTP request with rate limiting and retries.
// Server errors, 429 and transport failures are retried; other non-200
// statuses and an open breaker fail immediately.
func (c *Client) DoRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	var resp *http.Response
	attempt := 0
	operation := func() error {
		attempt++
		// Wait for rate limiter
		if err := c.Limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		out, err := c.breaker.Execute(func() (interface{}, error) {
			r, err := c.HTTPClient.Do(req.Clone(ctx))
			if err != nil {
				return nil, err
			}
			if r.StatusCode != http.StatusOK {
				// drain so the connection can be reused
				_, _ = io.Copy(io.Discard, io.LimitReader(r.Body, 4096))
				r.Body.Close()
				return nil, &HTTPStatusError{StatusCode: r.StatusCode}
			}
			return r, nil
		})
		if err != nil {
			c.logger.Debug().Err(err).Int("attempt", attempt).Str("url", req.URL.Redacted()).Msg("Request failed")
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(fmt.Errorf("%s: %w", c.opts.Name, err))
			}
			var se *HTTPStatusError
			if errors.As(err, &se) && !se.Retryable() {
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		resp = out.(*http.Response)
		return nil
	}

	// Use exponential backoff for retries
	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.InitialInterval = c.opts.InitialInterval
	backoffStrategy.MaxElapsedTime = c.opts.MaxRetryTimeout

	var strategy backoff.BackOff = backoffStrategy
	if c.opts.MaxRetries > 0 {
		strategy = backoff.WithMaxRetries(strategy, uint64(c.opts.MaxRetries))
	}

	if err := backoff.Retry(operation, backoff.WithContext(strategy, ctx)); err != nil {
		return nil, err
	}

	return resp, nil
}

// GetBody sends a GET to url and returns the whole response body
func (c *Client) GetBody(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}

// BreakerState exposes the breaker state for logging
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// HTTPStatusError represents an error due to a non-200 HTTP status code
type HTTPStatusError struct {
	StatusCode int
}

// Error implements the error interface
func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("non-200 status code: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Retryable reports whether another attempt may succeed
func (e *HTTPStatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
