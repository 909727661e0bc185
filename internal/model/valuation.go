package model

// Valuation method tags identifying which computation path produced the
// final numbers.
const (
	// MethodStatistical marks numbers produced solely by the deterministic
	// mean/min/max aggregation.
	MethodStatistical = "statistical-fallback"

	// MethodNarrative marks numbers passed through unchanged from the
	// upstream narrative valuation because no comparable was usable.
	MethodNarrative = "external-narrative"

	// MethodMerged marks a narrative valuation whose summary statistics were
	// overwritten by the deterministic aggregation.
	MethodMerged = "narrative+statistical"
)

// Adjustment is one per-comparable note from the narrative valuation: a
// qualitative similarity judgement with an adjustment factor.
type Adjustment struct {
	ComparableNo      int      `json:"comparable_no"`
	Address           string   `json:"address,omitempty"`
	UnitPrice         *float64 `json:"unit_price,omitempty"`
	SimilarityScore   *float64 `json:"similarity_score,omitempty"`
	AdjustmentFactor  *float64 `json:"adjustment_factor,omitempty"`
	AdjustedUnitPrice *float64 `json:"adjusted_unit_price,omitempty"`
	Note              string   `json:"note,omitempty"`
}

// NarrativeValuation is the weighted, qualitative comparison produced
// upstream by the reasoning step. Its summary numbers are advisory: the
// deterministic aggregation overrides them whenever it has data.
type NarrativeValuation struct {
	MeanUnitPrice  *float64     `json:"mean_unit_price,omitempty"`
	MinUnitPrice   *float64     `json:"min_unit_price,omitempty"`
	MaxUnitPrice   *float64     `json:"max_unit_price,omitempty"`
	EstimatedValue *float64     `json:"estimated_value,omitempty"`
	ValueRangeLow  *float64     `json:"value_range_low,omitempty"`
	ValueRangeHigh *float64     `json:"value_range_high,omitempty"`
	Confidence     string       `json:"confidence,omitempty"`
	Commentary     string       `json:"commentary,omitempty"`
	Adjustments    []Adjustment `json:"adjustments,omitempty"`
}

// ValuationEstimate is the reconciled output consumed by the report
// renderer. Computed once per batch, then immutable.
//
// Invariant: ValueRangeLow <= EstimatedValue <= ValueRangeHigh whenever all
// three are non-nil, because they derive from min <= mean <= max of the same
// unit-price sample.
type ValuationEstimate struct {
	TotalComparables int `json:"comparable_count_total"`
	UsedComparables  int `json:"comparable_count_used"`

	MeanUnitPrice *float64 `json:"mean_unit_price,omitempty"`
	MinUnitPrice  *float64 `json:"min_unit_price,omitempty"`
	MaxUnitPrice  *float64 `json:"max_unit_price,omitempty"`

	// SubjectArea is the area figure the resolver selected, nil when the
	// subject cannot be sized. Nil area degrades the money fields to nil.
	SubjectArea *float64 `json:"subject_area_used,omitempty"`

	EstimatedValue *float64 `json:"estimated_value,omitempty"`
	ValueRangeLow  *float64 `json:"value_range_low,omitempty"`
	ValueRangeHigh *float64 `json:"value_range_high,omitempty"`

	Method string `json:"method"`

	// Narrative prose and per-comparable adjustments are preserved for the
	// report narrative even when the statistical numbers win.
	Confidence  string       `json:"confidence,omitempty"`
	Commentary  string       `json:"commentary,omitempty"`
	Adjustments []Adjustment `json:"adjustments,omitempty"`
}

// Degraded reports whether the estimate completed without a single usable
// comparable. A degraded result is low-confidence, not an error.
func (e ValuationEstimate) Degraded() bool {
	return e.UsedComparables == 0
}

// AppraisalResult bundles everything a batch run produces: the full
// comparable list (failed items included, for audit), the reconciled
// estimate, and batch-level markers.
type AppraisalResult struct {
	Comparables []Comparable      `json:"comparables"`
	Estimate    ValuationEstimate `json:"estimate"`

	// Dropped counts sources beyond the batch cap that were not processed.
	Dropped int `json:"dropped,omitempty"`

	// TimedOut is set when the overall batch budget expired before every
	// item was processed. The result still carries whatever completed;
	// unprocessed items have Error set so the outcome is never mistaken for
	// a clean empty batch.
	TimedOut bool `json:"timed_out,omitempty"`
}
