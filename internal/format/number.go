// Package format renders dashboard numbers for display.
package format

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Number groups the integer part by thousands using the English convention
// (1234567 -> "1,234,567"). Fractional values keep up to three decimals,
// trailing zeros trimmed.
func Number(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return printer.Sprint(v)
	}
	if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
		return printer.Sprintf("%d", int64(v))
	}
	s := trimZeros(printer.Sprintf("%.3f", v))
	if s == "-0" {
		// Negative values that round to zero.
		return "0"
	}
	return s
}

// Int is Number for integer counters.
func Int(v int64) string {
	return printer.Sprintf("%d", v)
}

func trimZeros(s string) string {
	end := len(s)
	for end > 0 && s[end-1] == '0' {
		end--
	}
	if end > 0 && s[end-1] == '.' {
		end--
	}
	return s[:end]
}
