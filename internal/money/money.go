// Package money converts heterogeneous price inputs into integer cents and
// formats cents for display. Upstream callers feed it anything that came out
// of a JSON document or an HTTP request body, so every conversion is total:
// unusable input yields 0, never an error.
package money

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

// Normalize coerces a raw price value into integer cents.
//
// A string containing a decimal comma is treated as a copy-pasted formatted
// amount: every non-digit is stripped and the remaining digits are read as
// cents ("49,90" -> 4990). A numeric value strictly between 0 and 10 is
// assumed to be in whole currency units and is scaled to cents (9.5 -> 950).
// Any other finite numeric value is rounded and taken as already-in-cents.
// Everything else yields 0.
//
// The result may be negative; callers that require a non-negative amount
// (item price, fee) enforce that themselves.
func Normalize(v any) int64 {
	if s, ok := v.(string); ok && strings.Contains(s, ",") {
		return digitsToCents(s)
	}

	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}

	if f > 0 && f < 10 {
		// Assume the value was given in BRL (e.g. 49.9) and scale to cents.
		return int64(math.Round(f * 100))
	}

	return int64(math.Round(f))
}

// Format renders cents as a pt-BR currency string, e.g. 123456 -> "R$ 1.234,56".
func Format(cents int64) string {
	return printer.Sprintf("R$ %v", number.Decimal(float64(cents)/100, number.Scale(2)))
}

func digitsToCents(s string) int64 {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	cents, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0
	}
	return cents
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
