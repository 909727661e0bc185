// Package valuation turns a batch of comparable sources into a reconciled
// appraisal: per-item extraction and normalization, deterministic
// aggregation, and the merge with the upstream narrative valuation.
package valuation

import (
	"context"

	"go.uber.org/zap"

	"github.com/dmryasin/compval/internal/comps"
	"github.com/dmryasin/compval/internal/config"
	"github.com/dmryasin/compval/internal/extract"
	"github.com/dmryasin/compval/internal/model"
)

// Progress is called after each comparable is processed, successful or not.
// done counts processed items, total the batch size after the cap.
type Progress func(done, total int, item model.Comparable)

// Engine orchestrates one appraisal batch. Items are processed sequentially
// in input order; the engine is the single owner of the result slice until
// Appraise returns.
type Engine struct {
	extractor extract.Extractor
	narrative extract.NarrativeProvider
	batch     config.BatchConfig
}

// NewEngine builds an engine. narrative may be nil, in which case the result
// is statistical-only.
func NewEngine(extractor extract.Extractor, narrative extract.NarrativeProvider, batch config.BatchConfig) *Engine {
	return &Engine{extractor: extractor, narrative: narrative, batch: batch}
}

// timedOutMarker is the error recorded on items the batch budget never
// reached, so a truncated run is never mistaken for a clean one.
const timedOutMarker = "not processed: batch time budget exhausted"

// Appraise runs the full batch: extract and normalize every source, obtain
// the narrative comparison over the usable subset, then aggregate and merge.
//
// Failures are isolated per item: a source that cannot be read, extracted,
// or parsed becomes a Comparable with Error set and the batch continues. The
// returned error is non-nil only when the caller's context is canceled;
// expiry of the batch's own time budget yields a partial result flagged
// TimedOut instead.
func (e *Engine) Appraise(ctx context.Context, subject model.Subject, sources []string, progress Progress) (*model.AppraisalResult, error) {
	result := &model.AppraisalResult{}

	if max := e.batch.MaxComparables; max > 0 && len(sources) > max {
		result.Dropped = len(sources) - max
		sources = sources[:max]
		zap.L().Warn("valuation: batch over cap, dropping overflow",
			zap.Int("cap", max),
			zap.Int("dropped", result.Dropped),
		)
	}

	batchCtx, cancel := context.WithTimeout(ctx, e.batch.TotalTimeout())
	defer cancel()

	result.Comparables = make([]model.Comparable, 0, len(sources))
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		item := model.Comparable{SourceID: i + 1, SourcePath: src}
		if batchCtx.Err() != nil {
			item.Error = timedOutMarker
		} else {
			item = e.processItem(batchCtx, item)
		}

		result.Comparables = append(result.Comparables, item)
		if progress != nil {
			progress(i+1, len(sources), item)
		}
	}

	// The budget can expire while the final item is in flight, after its
	// pre-check passed, so the flag is derived from the context rather than
	// the loop. Caller cancellation also expires batchCtx; it is not a
	// budget timeout.
	if batchCtx.Err() != nil && ctx.Err() == nil {
		result.TimedOut = true
	}

	nv := e.runNarrative(batchCtx, subject, result.Comparables)
	if nv != nil {
		applyAdjustments(nv, result.Comparables)
	}

	stat := Aggregate(result.Comparables, comps.ResolveSubjectArea(subject))
	result.Estimate = Merge(nv, stat)

	zap.L().Info("valuation: batch complete",
		zap.Int("total", result.Estimate.TotalComparables),
		zap.Int("used", result.Estimate.UsedComparables),
		zap.Int("dropped", result.Dropped),
		zap.Bool("timed_out", result.TimedOut),
		zap.String("method", result.Estimate.Method),
	)
	return result, nil
}

// processItem extracts and normalizes one source under the per-item timeout.
func (e *Engine) processItem(ctx context.Context, item model.Comparable) model.Comparable {
	itemCtx, cancel := context.WithTimeout(ctx, e.batch.ItemTimeout())
	defer cancel()

	fields, err := e.extractor.ExtractComparable(itemCtx, item.SourcePath)
	if err != nil {
		zap.L().Warn("valuation: comparable failed",
			zap.Int("source_id", item.SourceID),
			zap.String("source", item.SourcePath),
			zap.Error(err),
		)
		item.Error = err.Error()
		return item
	}

	item.Fields = fields
	n := comps.Normalize(item.Fields)
	item.Area = n.Area
	item.UnitPrice = n.UnitPrice
	item.TotalPrice = n.TotalPrice

	zap.L().Debug("valuation: comparable processed",
		zap.Int("source_id", item.SourceID),
		zap.Bool("usable", item.Usable()),
	)
	return item
}

// runNarrative asks the narrative provider for the weighted comparison over
// the usable comparables. A narrative failure degrades the batch to
// statistical-only rather than failing it.
func (e *Engine) runNarrative(ctx context.Context, subject model.Subject, items []model.Comparable) *model.NarrativeValuation {
	if e.narrative == nil {
		return nil
	}

	usable := make([]model.Comparable, 0, len(items))
	for _, c := range items {
		if c.Usable() {
			usable = append(usable, c)
		}
	}
	if len(usable) == 0 {
		return nil
	}

	nv, err := e.narrative.Compare(ctx, subject, usable)
	if err != nil {
		zap.L().Warn("valuation: narrative comparison failed, statistical only", zap.Error(err))
		return nil
	}
	return nv
}

// applyAdjustments writes the narrative's adjusted unit prices back into the
// matching comparables and re-normalizes them, so the aggregation sees the
// adjusted figures. ComparableNo matches SourceID.
func applyAdjustments(nv *model.NarrativeValuation, items []model.Comparable) {
	byNo := make(map[int]*float64, len(nv.Adjustments))
	for _, a := range nv.Adjustments {
		if a.AdjustedUnitPrice != nil {
			byNo[a.ComparableNo] = a.AdjustedUnitPrice
		}
	}
	if len(byNo) == 0 {
		return
	}

	for i := range items {
		c := &items[i]
		adj, ok := byNo[c.SourceID]
		if !ok || c.Failed() || c.Fields == nil {
			continue
		}
		c.Fields["adjusted_unit_price"] = *adj
		n := comps.Normalize(c.Fields)
		c.Area = n.Area
		c.UnitPrice = n.UnitPrice
		c.TotalPrice = n.TotalPrice
	}
}
