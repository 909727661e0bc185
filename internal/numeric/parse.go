// Package numeric normalizes free-text numeric fields from extractor output
// into canonical float values. Listing screenshots and scanned documents mix
// Turkish and English digit grouping, currency symbols, and stray annotations,
// so everything is treated as text until it survives Parse.
package numeric

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// currencyRunes are symbols stripped before locating the digit run.
var currencyRunes = map[rune]bool{
	'₺': true,
	'$': true,
	'€': true,
	'£': true,
}

// Parse converts a raw field value to a float.
//
// Numeric input passes through unchanged. Nil and empty input yield nil.
// Textual input is cleaned (currency symbols, whitespace including
// non-breaking variants), then the first run of digits with embedded
// separators is located and the separator convention disambiguated:
//
//   - both "," and ".": the rightmost one is the decimal point, the other
//     is a thousands separator and is removed
//   - only ",": decimal point
//   - only ".", more than once: all but the last are thousands separators
//
// A nil result means "unknown", never an error: unparseable input is a
// recoverable gap, and zero is a valid value that must stay distinct from it.
func Parse(v any) *float64 {
	switch n := v.(type) {
	case nil:
		return nil
	case *float64:
		if n == nil {
			return nil
		}
		f := *n
		return &f
	case float64:
		f := n
		return &f
	case float32:
		f := float64(n)
		return &f
	case int:
		f := float64(n)
		return &f
	case int32:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	case json.Number:
		return parseText(n.String())
	case string:
		return parseText(n)
	default:
		return parseText(fmt.Sprintf("%v", v))
	}
}

// parseText runs the strip -> locate -> disambiguate -> convert sequence.
func parseText(s string) *float64 {
	run := digitRun(stripNoise(s))
	if run == "" {
		return nil
	}

	normalized := normalizeSeparators(run)
	f, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return nil
	}
	return &f
}

// stripNoise removes currency symbols and every whitespace variant, so
// grouped digits like "1 500 000" form a single run.
func stripNoise(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || currencyRunes[r] {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// digitRun returns the first maximal run of digits with embedded "." and ","
// separators. Letters such as "TL" or "m2" terminate the run.
func digitRun(s string) string {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}

	end := len(s)
	for i, r := range s[start:] {
		if (r < '0' || r > '9') && r != '.' && r != ',' {
			end = start + i
			break
		}
	}
	return s[start:end]
}

// normalizeSeparators applies the disambiguation rules and returns a string
// acceptable to strconv.ParseFloat. Inputs that violate the convention (for
// example several commas and no dot) survive as malformed text and fail the
// final conversion, which callers see as nil.
func normalizeSeparators(run string) string {
	hasComma := strings.Contains(run, ",")
	hasDot := strings.Contains(run, ".")

	switch {
	case hasComma && hasDot:
		last := strings.LastIndexAny(run, ".,")
		var b strings.Builder
		b.Grow(len(run))
		for i, r := range run {
			switch {
			case i == last:
				b.WriteByte('.')
			case r == '.' || r == ',':
				// thousands separator, dropped
			default:
				b.WriteRune(r)
			}
		}
		return b.String()

	case hasComma:
		return strings.ReplaceAll(run, ",", ".")

	case strings.Count(run, ".") > 1:
		last := strings.LastIndex(run, ".")
		return strings.ReplaceAll(run[:last], ".", "") + run[last:]

	default:
		return run
	}
}
