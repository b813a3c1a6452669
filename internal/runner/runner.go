// Package runner wires providers, the analysis engine, persistence and
// notification into the two one-shot jobs the CLI exposes.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Alias1177/ForceGold/internal/analyze"
	"github.com/Alias1177/ForceGold/internal/database"
	"github.com/Alias1177/ForceGold/internal/report"
	"github.com/Alias1177/ForceGold/models"
)

// Store persists finished runs
type Store interface {
	SaveCorrelation(ctx context.Context, res *models.CorrelationResult, meta database.RunMeta) (uuid.UUID, error)
	SaveStrength(ctx context.Context, idx *models.StrengthIndex, meta database.RunMeta) (uuid.UUID, error)
}

// Notifier delivers a rendered report
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Window is the bar interval and time range every series is fetched over
type Window struct {
	Interval time.Duration
	Start    time.Time
	End      time.Time
	Limit    int
}

// CorrelationOutcome is the result of a correlation job
type CorrelationOutcome struct {
	Result *models.CorrelationResult
	Report string
	RunID  uuid.UUID
}

// StrengthOutcome is the result of a strength job
type StrengthOutcome struct {
	Index  *models.StrengthIndex
	Report string
	RunID  uuid.UUID
}

// Runner executes analysis jobs
type Runner struct {
	provider models.SeriesProvider
	engine   *analyze.Engine
	store    Store
	notifier Notifier
	// concurrent fetches per job
	parallel int
	logger   zerolog.Logger
}

// Option configures a Runner
type Option func(*Runner)

// WithStore saves every successful run
func WithStore(s Store) Option {
	return func(r *Runner) { r.store = s }
}

// WithNotifier sends every report
func WithNotifier(n Notifier) Option {
	return func(r *Runner) { r.notifier = n }
}

// WithParallelism bounds concurrent fetches
func WithParallelism(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.parallel = n
		}
	}
}

// New creates a Runner
func New(provider models.SeriesProvider, engine *analyze.Engine, logger zerolog.Logger, opts ...Option) *Runner {
	r := &Runner{
		provider: provider,
		engine:   engine,
		parallel: 4,
		logger:   logger.With().Str("component", "runner").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Correlation fetches base and other, correlates their log returns and
// reports the regime
func (r *Runner) Correlation(ctx context.Context, base, other string, w Window) (*CorrelationOutcome, error) {
	series, err := r.fetchAll(ctx, w, base, other)
	if err != nil {
		return nil, err
	}
	r.logger.Info().
		Str("base", series[0].Symbol).Int("base_points", series[0].Len()).
		Str("other", series[1].Symbol).Int("other_points", series[1].Len()).
		Msg("Series fetched")

	res, err := r.engine.Correlation(series[0], series[1])
	if err != nil {
		return nil, fmt.Errorf("correlation %s vs %s: %w", base, other, err)
	}

	out := &CorrelationOutcome{
		Result: res,
		Report: report.Correlation(res, r.reportWindow(w)),
	}
	if r.store != nil {
		id, err := r.store.SaveCorrelation(ctx, res, r.meta(w))
		if err != nil {
			r.logger.Error().Err(err).Msg("Failed to save correlation run")
		} else {
			out.RunID = id
		}
	}
	r.notify(ctx, out.Report)
	return out, nil
}

// Strength fetches base and its quote pairs and computes the strength index
func (r *Runner) Strength(ctx context.Context, base string, pairs []string, w Window) (*StrengthOutcome, error) {
	symbols := append([]string{base}, pairs...)
	series, err := r.fetchAll(ctx, w, symbols...)
	if err != nil {
		return nil, err
	}

	idx, err := r.engine.Strength(series[0], series[1:])
	if err != nil {
		return nil, fmt.Errorf("strength %s: %w", base, err)
	}

	out := &StrengthOutcome{
		Index:  idx,
		Report: report.Strength(idx, r.reportWindow(w)),
	}
	if r.store != nil {
		id, err := r.store.SaveStrength(ctx, idx, r.meta(w))
		if err != nil {
			r.logger.Error().Err(err).Msg("Failed to save strength run")
		} else {
			out.RunID = id
		}
	}
	r.notify(ctx, out.Report)
	return out, nil
}

// fetchAll fetches every symbol concurrently, keeping argument order. The
// first failure cancels the remaining fetches.
func (r *Runner) fetchAll(ctx context.Context, w Window, symbols ...string) ([]models.PriceSeries, error) {
	out := make([]models.PriceSeries, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallel)

	for i, symbol := range symbols {
		g.Go(func() error {
			s, err := r.provider.FetchSeries(gctx, models.SeriesRequest{
				Symbol:   symbol,
				Interval: w.Interval,
				Start:    w.Start,
				End:      w.End,
				Limit:    w.Limit,
			})
			if err != nil {
				return fmt.Errorf("fetching %s: %w", symbol, err)
			}
			r.logger.Debug().Str("symbol", symbol).Int("points", s.Len()).Msg("Fetched")
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Runner) notify(ctx context.Context, text string) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.Notify(ctx, text); err != nil {
		r.logger.Error().Err(err).Msg("Failed to send report")
	}
}

func (r *Runner) intervalName(w Window) string {
	if name, ok := models.IntervalName(w.Interval); ok {
		return name
	}
	return w.Interval.String()
}

func (r *Runner) meta(w Window) database.RunMeta {
	return database.RunMeta{
		Provider:    r.provider.Name(),
		Interval:    r.intervalName(w),
		WindowStart: w.Start,
		WindowEnd:   w.End,
	}
}

func (r *Runner) reportWindow(w Window) report.Window {
	return report.Window{
		Provider: r.provider.Name(),
		Interval: r.intervalName(w),
		Start:    w.Start,
		End:      w.End,
	}
}
