// Package variants retries a fetch under alternative tickers for the same
// instrument, e.g. UUP, C:UUP and U:UUP on aggregate APIs.
package variants

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ForceGold/models"
)

// DefaultPause is the wait between two attempts
const DefaultPause = 500 * time.Millisecond

// ErrNoVariant is returned when every candidate ticker failed or was empty
var ErrNoVariant = errors.New("no ticker variant returned data")

// Provider decorates a SeriesProvider with ticker fallbacks
type Provider struct {
	inner      models.SeriesProvider
	alternates map[string][]string
	pause      time.Duration
	logger     zerolog.Logger
}

// New wraps inner. alternates maps a requested symbol to the tickers tried
// after it, in order.
func New(inner models.SeriesProvider, alternates map[string][]string, pause time.Duration) *Provider {
	return &Provider{
		inner:      inner,
		alternates: alternates,
		pause:      pause,
		logger:     log.With().Str("component", "ticker_variants").Logger(),
	}
}

// Name implements models.SeriesProvider
func (p *Provider) Name() string {
	return p.inner.Name()
}

// Candidates lists the tickers tried for symbol
func (p *Provider) Candidates(symbol string) []string {
	out := []string{symbol}
	for _, alt := range p.alternates[symbol] {
		if alt != symbol {
			out = append(out, alt)
		}
	}
	return out
}

// FetchSeries returns the first non-empty series among the candidates. The
// returned series carries the ticker that produced it.
func (p *Provider) FetchSeries(ctx context.Context, req models.SeriesRequest) (models.PriceSeries, error) {
	candidates := p.Candidates(req.Symbol)
	var errs []error

	for i, ticker := range candidates {
		if i > 0 && p.pause > 0 {
			select {
			case <-ctx.Done():
				return models.PriceSeries{}, ctx.Err()
			case <-time.After(p.pause):
			}
		}

		attempt := req
		attempt.Symbol = ticker
		series, err := p.inner.FetchSeries(ctx, attempt)
		switch {
		case err != nil:
			p.logger.Warn().Err(err).Str("ticker", ticker).Msg("Variant failed")
			errs = append(errs, err)
			if ctx.Err() != nil {
				return models.PriceSeries{}, ctx.Err()
			}
		case series.Len() == 0:
			p.logger.Warn().Str("ticker", ticker).Msg("Variant returned no data")
			errs = append(errs, fmt.Errorf("%s: empty series", ticker))
		default:
			if ticker != req.Symbol {
				p.logger.Info().Str("requested", req.Symbol).Str("ticker", ticker).Int("points", series.Len()).Msg("Using ticker variant")
			}
			series.Symbol = ticker
			return series, nil
		}
	}

	return models.PriceSeries{}, fmt.Errorf("%w for %s (tried %v): %w", ErrNoVariant, req.Symbol, candidates, errors.Join(errs...))
}
