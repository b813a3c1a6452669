package analyze

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Alias1177/ForceGold/internal/analysis/align"
	"github.com/Alias1177/ForceGold/internal/analysis/correlation"
	"github.com/Alias1177/ForceGold/internal/analysis/crossrate"
	"github.com/Alias1177/ForceGold/internal/analysis/returns"
	"github.com/Alias1177/ForceGold/internal/analysis/strength"
	"github.com/Alias1177/ForceGold/models"
)

// Engine runs the two analysis flows over in-memory price series
type Engine struct {
	cfg     models.AnalysisConfig
	deriver *crossrate.Deriver
	logger  zerolog.Logger
}

// NewEngine validates cfg and builds an Engine
func NewEngine(cfg models.AnalysisConfig, logger zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}
	logger = logger.With().Str("component", "analysis_engine").Logger()
	return &Engine{
		cfg:     cfg,
		deriver: crossrate.NewDeriver(cfg.Quotes, logger),
		logger:  logger,
	}, nil
}

// Config returns the configuration the engine was built with
func (e *Engine) Config() models.AnalysisConfig {
	return e.cfg
}

// Correlation aligns base and other, converts both to log returns and
// classifies their Pearson correlation. The sample threshold is enforced on
// the aligned prices and again on the returns.
func (e *Engine) Correlation(base, other models.PriceSeries) (*models.CorrelationResult, error) {
	// 1. Align prices
	prices, err := align.Align(e.cfg.MinSamples, base, other)
	if err != nil {
		return nil, err
	}

	// 2. Log returns, then re-check the threshold
	rets, err := returns.Transform(prices, returns.Log, e.returnOptions())
	if err != nil {
		return nil, err
	}
	if err := align.RequireRows(rets, e.cfg.MinSamples, models.StageReturns); err != nil {
		return nil, err
	}

	// 3. Pearson + regime
	rho, err := correlation.Pearson(rets.Columns[0], rets.Columns[1])
	if err != nil {
		var dse *models.DegenerateSeriesError
		if errors.As(err, &dse) {
			dse.Symbol = degenerateSymbol(rets)
		}
		return nil, err
	}

	result := &models.CorrelationResult{
		Base:    base.Symbol,
		Other:   other.Symbol,
		Rho:     rho,
		Samples: rets.Len(),
		Label:   correlation.Classify(rho, e.cfg.Bands),
	}
	result.From, result.To = align.Span(rets)
	e.logger.Debug().
		Str("base", result.Base).
		Str("other", result.Other).
		Float64("rho", rho).
		Int("samples", result.Samples).
		Msg("Correlation computed")
	return result, nil
}

// Strength aligns the base instrument with its quote pairs, derives the base
// priced in each pair's currency, converts every series to simple returns and
// aggregates them into the smoothed, scaled strength index.
func (e *Engine) Strength(base models.PriceSeries, pairs []models.PriceSeries) (*models.StrengthIndex, error) {
	all := make([]models.PriceSeries, 0, len(pairs)+1)
	all = append(all, base)
	all = append(all, pairs...)

	// 1. Align everything on the shared grid
	prices, err := align.Align(e.cfg.MinSamples, all...)
	if err != nil {
		return nil, err
	}

	// 2. Derive cross rates
	symbols := make([]string, len(pairs))
	for i, p := range pairs {
		symbols[i] = p.Symbol
	}
	derived, err := e.deriver.Derive(prices, base.Symbol, symbols)
	if err != nil {
		return nil, err
	}

	// 3. Simple returns per derived series
	rets, err := returns.Transform(derived, returns.Simple, e.returnOptions())
	if err != nil {
		return nil, err
	}

	// 4. Mean, smooth, scale
	idx, err := strength.Aggregate(rets, e.cfg.EMASpan, e.cfg.ScaleFactor)
	if err != nil {
		return nil, err
	}
	idx.From, idx.To = align.Span(rets)
	e.logger.Debug().
		Str("base", idx.Base).
		Float64("value", idx.Value).
		Strs("series", idx.Series).
		Int("samples", idx.Samples).
		Msg("Strength index computed")
	return idx, nil
}

func (e *Engine) returnOptions() returns.Options {
	return returns.Options{
		MaxInvalidFraction: e.cfg.MaxInvalidFraction,
		Logger:             e.logger,
	}
}

func degenerateSymbol(m *models.AlignedMatrix) string {
	for j, col := range m.Columns {
		if correlation.Constant(col) {
			return m.Symbols[j]
		}
	}
	return ""
}
