package numeric

// First returns the parsed value of the first key in priority order whose
// value is present and numerically parseable. Keys that are missing, nil, or
// unparseable are skipped so a malformed preferred field never masks a clean
// fallback. Zero is a valid result: an explicit 0 price is not "unknown".
func First(fields map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		v, ok := fields[key]
		if !ok || v == nil {
			continue
		}
		if f := Parse(v); f != nil {
			return f
		}
	}
	return nil
}

// FirstPositive is First restricted to strictly positive values. Area
// resolution uses it: a zero or negative area can never size a valuation.
func FirstPositive(fields map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		v, ok := fields[key]
		if !ok || v == nil {
			continue
		}
		if f := Parse(v); f != nil && *f > 0 {
			return f
		}
	}
	return nil
}
