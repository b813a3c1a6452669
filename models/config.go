package models

import (
	"errors"
	"fmt"
	"strings"
)

// Defaults used when a configuration value is left at zero
const (
	DefaultMinSamples         = 100
	DefaultMaxInvalidFraction = 0.05
	DefaultEMASpan            = 20
	DefaultScaleFactor        = 1000
)

// RegimeBands holds the four boundaries splitting [-1, 1] into regime labels.
// StrongNegative and ModerateNegative are inclusive upper bounds,
// ModeratePositive and StrongPositive inclusive lower bounds.
type RegimeBands struct {
	StrongNegative   float64 `yaml:"strong_negative"`
	ModerateNegative float64 `yaml:"moderate_negative"`
	ModeratePositive float64 `yaml:"moderate_positive"`
	StrongPositive   float64 `yaml:"strong_positive"`
}

// DefaultRegimeBands returns -0.7 / -0.3 / 0.3 / 0.7
func DefaultRegimeBands() RegimeBands {
	return RegimeBands{
		StrongNegative:   -0.7,
		ModerateNegative: -0.3,
		ModeratePositive: 0.3,
		StrongPositive:   0.7,
	}
}

// Validate requires strictly ascending boundaries inside [-1, 1]
func (b RegimeBands) Validate() error {
	ok := b.StrongNegative >= -1 &&
		b.StrongNegative < b.ModerateNegative &&
		b.ModerateNegative < b.ModeratePositive &&
		b.ModeratePositive < b.StrongPositive &&
		b.StrongPositive <= 1
	if !ok {
		return fmt.Errorf("regime bands must be ascending within [-1, 1]: %.2f %.2f %.2f %.2f",
			b.StrongNegative, b.ModerateNegative, b.ModeratePositive, b.StrongPositive)
	}
	return nil
}

// QuoteConvention tells the cross-rate deriver how to combine a base
// instrument price with a currency pair price
type QuoteConvention int

const (
	ConventionUnknown QuoteConvention = iota
	// ConventionDivide: the pair quotes the foreign currency in the base
	// instrument's settlement currency (EUR/USD against XAU/USD).
	ConventionDivide
	// ConventionMultiply: the pair has the settlement currency as its base
	// (USD/JPY against XAU/USD).
	ConventionMultiply
)

func (c QuoteConvention) String() string {
	switch c {
	case ConventionDivide:
		return "divide"
	case ConventionMultiply:
		return "multiply"
	}
	return "unknown"
}

// ParseQuoteConvention accepts divide/multiply and the settlement_* aliases
func ParseQuoteConvention(s string) (QuoteConvention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "divide", "settlement_quoted":
		return ConventionDivide, nil
	case "multiply", "settlement_base":
		return ConventionMultiply, nil
	}
	return ConventionUnknown, fmt.Errorf("unknown quote convention %q", s)
}

// QuoteEntry describes one currency pair usable for cross-rate derivation
type QuoteEntry struct {
	Pair       string          // symbol as delivered by the provider, e.g. "EUR/USD"
	Currency   string          // currency the derived series is priced in, e.g. "EUR"
	Convention QuoteConvention
}

// QuoteTable maps pair symbols to their entries
type QuoteTable map[string]QuoteEntry

// DefaultQuoteTable covers the majors against a USD-settled base
func DefaultQuoteTable() QuoteTable {
	return QuoteTable{
		"EUR/USD": {Pair: "EUR/USD", Currency: "EUR", Convention: ConventionDivide},
		"GBP/USD": {Pair: "GBP/USD", Currency: "GBP", Convention: ConventionDivide},
		"AUD/USD": {Pair: "AUD/USD", Currency: "AUD", Convention: ConventionDivide},
		"USD/JPY": {Pair: "USD/JPY", Currency: "JPY", Convention: ConventionMultiply},
		"USD/CHF": {Pair: "USD/CHF", Currency: "CHF", Convention: ConventionMultiply},
		"USD/CAD": {Pair: "USD/CAD", Currency: "CAD", Convention: ConventionMultiply},
	}
}

// AnalysisConfig is everything the analysis engine needs. It carries no I/O.
type AnalysisConfig struct {
	MinSamples         int
	MaxInvalidFraction float64
	Bands              RegimeBands
	EMASpan            int
	ScaleFactor        float64
	Quotes             QuoteTable
}

// DefaultAnalysisConfig returns the values used by the original scripts
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		MinSamples:         DefaultMinSamples,
		MaxInvalidFraction: DefaultMaxInvalidFraction,
		Bands:              DefaultRegimeBands(),
		EMASpan:            DefaultEMASpan,
		ScaleFactor:        DefaultScaleFactor,
		Quotes:             DefaultQuoteTable(),
	}
}

// Validate reports the first invalid field
func (c AnalysisConfig) Validate() error {
	if c.MinSamples < 2 {
		return errors.New("min samples must be at least 2")
	}
	if c.MaxInvalidFraction < 0 || c.MaxInvalidFraction > 1 {
		return fmt.Errorf("max invalid fraction %.4f outside [0, 1]", c.MaxInvalidFraction)
	}
	if c.EMASpan < 1 {
		return fmt.Errorf("ema span must be at least 1, got %d", c.EMASpan)
	}
	if c.ScaleFactor == 0 {
		return errors.New("scale factor must be non-zero")
	}
	if err := c.Bands.Validate(); err != nil {
		return err
	}
	for symbol, q := range c.Quotes {
		if q.Convention == ConventionUnknown {
			return fmt.Errorf("quote %s: convention not set", symbol)
		}
	}
	return nil
}
