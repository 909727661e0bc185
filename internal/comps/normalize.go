// Package comps normalizes raw comparable-sale records and resolves the
// subject property's area. Both walk fixed priority lists through the
// numeric package so the fallback order is defined in exactly one place.
package comps

import "github.com/dmryasin/compval/internal/numeric"

// Field priority lists, most specific first. An adjusted unit price from the
// narrative pass outranks whatever the listing printed; the "_value" variants
// are the extractor's already-numeric companions to the free-text fields.
var (
	unitPriceFields  = []string{"adjusted_unit_price", "unit_price_value", "unit_price"}
	areaFields       = []string{"area_m2_value", "area_m2"}
	totalPriceFields = []string{"price_value", "price"}
)

// Normalized holds the canonical numbers derived from one raw record.
type Normalized struct {
	Area       *float64
	UnitPrice  *float64
	TotalPrice *float64
}

// Normalize derives canonical unit price, area, and total price from a raw
// field mapping, and writes resolved values back into it under the canonical
// keys. Unresolved fields stay nil and are never written: zero is a valid
// price and must not be confused with "unknown". Pure aside from the
// write-back; never errors.
func Normalize(fields map[string]any) Normalized {
	var n Normalized
	if fields == nil {
		return n
	}

	n.UnitPrice = numeric.First(fields, unitPriceFields...)
	n.Area = numeric.First(fields, areaFields...)
	n.TotalPrice = numeric.First(fields, totalPriceFields...)

	// Fill the gap when exactly the unit price is missing.
	if n.UnitPrice == nil && n.TotalPrice != nil && n.Area != nil && *n.Area > 0 {
		unit := *n.TotalPrice / *n.Area
		n.UnitPrice = &unit
	}

	if n.UnitPrice != nil {
		fields["unit_price_value"] = *n.UnitPrice
		fields["unit_price"] = *n.UnitPrice
	}
	if n.Area != nil {
		fields["area_m2_value"] = *n.Area
		fields["area_m2"] = *n.Area
	}
	if n.TotalPrice != nil {
		fields["price_value"] = *n.TotalPrice
	}

	return n
}
