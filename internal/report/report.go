// Package report renders analysis results as plain text for the terminal and
// for Telegram.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/Alias1177/ForceGold/models"
)

const rule = "======================================================================"

// Interpretation explains a correlation regime for a pair expected to move
// inversely, such as gold against the dollar
type Interpretation struct {
	Strength    string
	Behavior    []string
	Consequence string
}

// Interpret returns the interpretation of label for base against other
func Interpret(label models.RegimeLabel, base, other string) Interpretation {
	switch label {
	case models.RegimeStrongNegative:
		return Interpretation{
			Strength: "very strong negative correlation",
			Behavior: []string{
				fmt.Sprintf("%s and %s move strongly in opposite directions", base, other),
				fmt.Sprintf("%s up = %s down", other, base),
				fmt.Sprintf("%s down = %s up", other, base),
			},
			Consequence: fmt.Sprintf("Ideal context: %s works as a leading indicator for %s.", other, base),
		}
	case models.RegimeModerateNegative:
		return Interpretation{
			Strength: "moderate negative correlation",
			Behavior: []string{
				"Inverse relation present but less precise",
				fmt.Sprintf("%s up = %s down in general", other, base),
			},
			Consequence: fmt.Sprintf("%s is useful but needs confirmation from volume or price action.", other),
		}
	case models.RegimeModeratePositive:
		return Interpretation{
			Strength:    "anomalous positive correlation",
			Behavior:    []string{fmt.Sprintf("%s and %s rise and fall together", base, other)},
			Consequence: fmt.Sprintf("High risk: the %s/%s relation is broken.", other, base),
		}
	case models.RegimeStrongPositive:
		return Interpretation{
			Strength:    "very strong positive correlation",
			Behavior:    []string{"Regime fully inverted"},
			Consequence: fmt.Sprintf("Do not build a strategy on %s. Unstable context.", other),
		}
	default:
		return Interpretation{
			Strength:    "weak / neutral correlation",
			Behavior:    []string{fmt.Sprintf("%s and %s do not react to each other", base, other)},
			Consequence: fmt.Sprintf("Avoid basing a trade on %s. A regime change is possible.", other),
		}
	}
}

// Window describes the data a result was computed from
type Window struct {
	Provider string
	Interval string
	Start    time.Time
	End      time.Time
}

func (w Window) String() string {
	if w.Start.IsZero() && w.End.IsZero() {
		return w.Interval
	}
	return fmt.Sprintf("%s bars, %s to %s", w.Interval, w.Start.UTC().Format("2006-01-02"), w.End.UTC().Format("2006-01-02"))
}

// Correlation renders a correlation result with its interpretation
func Correlation(res *models.CorrelationResult, w Window) string {
	in := Interpret(res.Label, res.Base, res.Other)

	var b strings.Builder
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "CORRELATION (log returns) %s vs %s: %.4f\n", res.Base, res.Other, res.Rho)
	fmt.Fprintf(&b, "Regime: %s (%d samples", res.Label, res.Samples)
	if s := w.String(); s != "" {
		fmt.Fprintf(&b, ", %s", s)
	}
	if w.Provider != "" {
		fmt.Fprintf(&b, ", via %s", w.Provider)
	}
	b.WriteString(")\n")
	writeSpan(&b, res.From, res.To)
	b.WriteString("\n")

	fmt.Fprintf(&b, "Current regime\nCorrelation = %.4f -> %s\n\n", res.Rho, in.Strength)
	b.WriteString("Expected behaviour:\n")
	for _, line := range in.Behavior {
		fmt.Fprintf(&b, "  -> %s\n", line)
	}
	fmt.Fprintf(&b, "\nTrading consequence:\n  %s\n", in.Consequence)
	b.WriteString(rule + "\n")
	return b.String()
}

// Strength renders a strength index
func Strength(idx *models.StrengthIndex, w Window) string {
	var b strings.Builder
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "%s STRENGTH INDEX", idx.Base)
	if s := w.String(); s != "" {
		fmt.Fprintf(&b, " (%s)", s)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Current value: %.4f\n", idx.Value)
	fmt.Fprintf(&b, "Pressure: %s\n", idx.Pressure)
	fmt.Fprintf(&b, "Samples: %d\n", idx.Samples)
	writeSpan(&b, idx.From, idx.To)
	fmt.Fprintf(&b, "Averages the returns of %s\n", strings.Join(idx.Series, ", "))
	b.WriteString(rule + "\n")
	return b.String()
}

func writeSpan(b *strings.Builder, from, to time.Time) {
	if from.IsZero() {
		return
	}
	const layout = "2006-01-02 15:04"
	fmt.Fprintf(b, "Data: %s to %s UTC\n", from.UTC().Format(layout), to.UTC().Format(layout))
}
