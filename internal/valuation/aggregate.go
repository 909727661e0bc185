package valuation

import "github.com/dmryasin/compval/internal/model"

// Aggregate computes the deterministic summary statistics over the usable
// comparables: unweighted population mean, min, and max of the unit price,
// scaled by the subject area into an estimated value and range.
//
// Zero usable comparables is a degraded result, not an error: every money
// field stays nil and the counts tell the story. A nil subject area likewise
// degrades only the value fields; the unit-price statistics still stand on
// their own.
func Aggregate(items []model.Comparable, subjectArea *float64) model.ValuationEstimate {
	est := model.ValuationEstimate{
		TotalComparables: len(items),
		SubjectArea:      subjectArea,
		Method:           model.MethodStatistical,
	}

	var sum, min, max float64
	for _, c := range items {
		if !c.Usable() {
			continue
		}
		u := *c.UnitPrice
		if est.UsedComparables == 0 {
			min, max = u, u
		} else {
			if u < min {
				min = u
			}
			if u > max {
				max = u
			}
		}
		sum += u
		est.UsedComparables++
	}

	if est.UsedComparables == 0 {
		return est
	}

	mean := sum / float64(est.UsedComparables)
	est.MeanUnitPrice = &mean
	est.MinUnitPrice = &min
	est.MaxUnitPrice = &max

	if subjectArea != nil {
		value := mean * *subjectArea
		low := min * *subjectArea
		high := max * *subjectArea
		est.EstimatedValue = &value
		est.ValueRangeLow = &low
		est.ValueRangeHigh = &high
	}

	return est
}
