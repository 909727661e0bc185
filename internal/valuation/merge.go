package valuation

import "github.com/dmryasin/compval/internal/model"

// Merge reconciles the narrative valuation with the statistical aggregation.
//
// Precedence: whenever the statistical pass had at least one usable
// comparable, its numbers overwrite the narrative's summary statistics. The
// narrative's qualitative output (per-comparable adjustments, confidence,
// commentary) is always preserved. With zero usable comparables the
// narrative's own numbers pass through unchanged, as the only estimate
// available. The Method tag records which path produced the final numbers.
func Merge(narrative *model.NarrativeValuation, stat model.ValuationEstimate) model.ValuationEstimate {
	if narrative == nil {
		return stat
	}

	est := stat
	est.Confidence = narrative.Confidence
	est.Commentary = narrative.Commentary
	est.Adjustments = narrative.Adjustments

	if stat.UsedComparables > 0 {
		est.Method = model.MethodMerged
		return est
	}

	est.MeanUnitPrice = narrative.MeanUnitPrice
	est.MinUnitPrice = narrative.MinUnitPrice
	est.MaxUnitPrice = narrative.MaxUnitPrice
	est.EstimatedValue = narrative.EstimatedValue
	est.ValueRangeLow = narrative.ValueRangeLow
	est.ValueRangeHigh = narrative.ValueRangeHigh
	est.Method = model.MethodNarrative
	return est
}
