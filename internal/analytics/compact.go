package analytics

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// compact notation steps, largest first.
var compactSteps = []struct {
	limit  int64
	suffix string
}{
	{1_000_000_000_000, "T"},
	{1_000_000_000, "B"},
	{1_000_000, "M"},
	{1_000, "K"},
}

// FormatCompact renders n in compact notation ("1.2K", "3M") with the
// locale's digit and separator conventions. The exact integer is kept by
// the caller; this is display only.
func FormatCompact(n int64, tag language.Tag) string {
	printer := message.NewPrinter(tag)

	abs := n
	if abs < 0 {
		abs = -abs
	}

	for i, step := range compactSteps {
		if abs >= step.limit {
			scaled := float64(n) / float64(step.limit)
			// Rounding to one fraction digit can carry the mantissa past
			// the step boundary (999999 would render as "1,000K"); promote
			// to the next step when it does.
			if rounded := math.Round(scaled*10) / 10; i > 0 && math.Abs(rounded) >= 1000 {
				step = compactSteps[i-1]
				scaled = float64(n) / float64(step.limit)
			}
			return printer.Sprint(number.Decimal(scaled, number.MaxFractionDigits(1))) + step.suffix
		}
	}

	return printer.Sprint(number.Decimal(n))
}
