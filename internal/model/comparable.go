// Package model defines the core types of the comparable valuation pipeline:
// comparables, the subject property, narrative and statistical valuation
// results, and persisted appraisal runs.
package model

// Comparable is one candidate sale used as a pricing reference. It is created
// when a source is submitted, normalized once, and never mutated afterward
// except to attach Error.
type Comparable struct {
	// SourceID is the 1-based ordinal position in the batch, assigned at
	// ingestion and independent of success or failure.
	SourceID   int    `json:"source_id"`
	SourcePath string `json:"source_path"`

	// Fields holds the raw extractor output plus canonical numeric values
	// written back by normalization.
	Fields map[string]any `json:"fields,omitempty"`

	// Canonical numbers. Nil means unresolved, which is never the same as
	// zero: a free listing still has a price of 0, an unreadable one has none.
	Area       *float64 `json:"area,omitempty"`
	UnitPrice  *float64 `json:"unit_price,omitempty"`
	TotalPrice *float64 `json:"total_price,omitempty"`

	// Error is set when extraction or normalization failed for this item.
	// Failed comparables are excluded from aggregation but retained in the
	// output list for the report appendix.
	Error string `json:"error,omitempty"`
}

// Failed reports whether this comparable carries an item-level error.
func (c Comparable) Failed() bool {
	return c.Error != ""
}

// Usable reports whether this comparable contributes to aggregation: no
// error, and both area and unit price resolved.
func (c Comparable) Usable() bool {
	return !c.Failed() && c.Area != nil && c.UnitPrice != nil
}

// Field returns a raw field value, or nil if absent.
func (c Comparable) Field(key string) any {
	if c.Fields == nil {
		return nil
	}
	return c.Fields[key]
}

// FieldString returns a raw field rendered as a string, or "" if absent.
func (c Comparable) FieldString(key string) string {
	v := c.Field(key)
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
