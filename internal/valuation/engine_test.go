package valuation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmryasin/compval/internal/config"
	"github.com/dmryasin/compval/internal/model"
)

// fakeExtractor serves scripted field maps keyed by source path. A nil map
// with no scripted error blocks until the context expires.
type fakeExtractor struct {
	fields map[string]map[string]any
	errs   map[string]error
	calls  []string
}

func (f *fakeExtractor) ExtractComparable(ctx context.Context, sourcePath string) (map[string]any, error) {
	f.calls = append(f.calls, sourcePath)
	if err, ok := f.errs[sourcePath]; ok {
		return nil, err
	}
	if fields, ok := f.fields[sourcePath]; ok {
		// Each item owns its map: the engine writes canonical keys back.
		out := make(map[string]any, len(fields))
		for k, v := range fields {
			out[k] = v
		}
		return out, nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

type fakeNarrative struct {
	nv    *model.NarrativeValuation
	err   error
	comps []model.Comparable
	calls int
}

func (f *fakeNarrative) Compare(_ context.Context, _ model.Subject, comps []model.Comparable) (*model.NarrativeValuation, error) {
	f.calls++
	f.comps = comps
	return f.nv, f.err
}

func testBatch() config.BatchConfig {
	return config.BatchConfig{
		MaxComparables:   10,
		ItemTimeoutSecs:  30,
		TotalTimeoutSecs: 60,
	}
}

func subjectFixture() model.Subject {
	return model.Subject{"address": "Bagdat Cd. 1", "net_area": "50"}
}

func TestAppraiseHappyPath(t *testing.T) {
	ex := &fakeExtractor{fields: map[string]map[string]any{
		"a.png": {"area_m2": "100", "price": "1.000.000"},
		"b.png": {"area_m2": "100", "price": "1.200.000"},
		"c.png": {"area_m2": "100", "price": "1.400.000"},
	}}
	eng := NewEngine(ex, nil, testBatch())

	res, err := eng.Appraise(context.Background(), subjectFixture(), []string{"a.png", "b.png", "c.png"}, nil)
	require.NoError(t, err)

	require.Len(t, res.Comparables, 3)
	assert.Equal(t, []string{"a.png", "b.png", "c.png"}, ex.calls)

	// SourceID is positional and 1-based.
	for i, c := range res.Comparables {
		assert.Equal(t, i+1, c.SourceID)
		assert.True(t, c.Usable())
	}

	// Unit prices derive as price/area: 10000, 12000, 14000.
	// mean 12000 × subject area 50 = 600000.
	est := res.Estimate
	assert.Equal(t, 3, est.UsedComparables)
	assert.Equal(t, 12000.0, *est.MeanUnitPrice)
	assert.Equal(t, 600000.0, *est.EstimatedValue)
	assert.Equal(t, 500000.0, *est.ValueRangeLow)
	assert.Equal(t, 700000.0, *est.ValueRangeHigh)
	assert.Equal(t, model.MethodStatistical, est.Method)
	assert.Equal(t, 0, res.Dropped)
	assert.False(t, res.TimedOut)
}

func TestAppraiseFailureIsolation(t *testing.T) {
	ex := &fakeExtractor{
		fields: map[string]map[string]any{
			"ok1.png": {"area_m2": 100, "price": 1000000},
			"ok2.png": {"area_m2": 100, "price": 2000000},
		},
		errs: map[string]error{
			"bad.png": errors.New("extract: unreadable source"),
		},
	}
	eng := NewEngine(ex, nil, testBatch())

	res, err := eng.Appraise(context.Background(), subjectFixture(), []string{"ok1.png", "bad.png", "ok2.png"}, nil)
	require.NoError(t, err)

	// The failed item stays in the list for audit; the batch continues.
	require.Len(t, res.Comparables, 3)
	assert.True(t, res.Comparables[1].Failed())
	assert.Contains(t, res.Comparables[1].Error, "unreadable")
	assert.Equal(t, 2, res.Comparables[1].SourceID)

	assert.Equal(t, 3, res.Estimate.TotalComparables)
	assert.Equal(t, 2, res.Estimate.UsedComparables)
	assert.Equal(t, 15000.0, *res.Estimate.MeanUnitPrice)
}

func TestAppraiseAllFailedIsDegraded(t *testing.T) {
	ex := &fakeExtractor{errs: map[string]error{
		"a.png": errors.New("boom"),
		"b.png": errors.New("boom"),
	}}
	nar := &fakeNarrative{nv: narrativeFixture()}
	eng := NewEngine(ex, nar, testBatch())

	res, err := eng.Appraise(context.Background(), subjectFixture(), []string{"a.png", "b.png"}, nil)
	require.NoError(t, err)

	assert.True(t, res.Estimate.Degraded())
	assert.Nil(t, res.Estimate.EstimatedValue)
	// Narrative never runs without usable comparables.
	assert.Equal(t, 0, nar.calls)
	assert.Equal(t, model.MethodStatistical, res.Estimate.Method)
}

func TestAppraiseEmptySourceList(t *testing.T) {
	eng := NewEngine(&fakeExtractor{}, nil, testBatch())

	res, err := eng.Appraise(context.Background(), subjectFixture(), nil, nil)
	require.NoError(t, err)

	assert.Empty(t, res.Comparables)
	assert.True(t, res.Estimate.Degraded())
	assert.False(t, res.TimedOut)
}

func TestAppraiseBatchCap(t *testing.T) {
	fields := map[string]map[string]any{}
	var sources []string
	for i := 0; i < 12; i++ {
		src := fmt.Sprintf("s%02d.png", i)
		sources = append(sources, src)
		fields[src] = map[string]any{"area_m2": 100, "price": 1000000}
	}
	ex := &fakeExtractor{fields: fields}

	cfg := testBatch()
	cfg.MaxComparables = 10
	eng := NewEngine(ex, nil, cfg)

	res, err := eng.Appraise(context.Background(), subjectFixture(), sources, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Dropped)
	assert.Len(t, res.Comparables, 10)
	assert.Len(t, ex.calls, 10)
	// The first sources in input order survive the cap.
	assert.Equal(t, "s00.png", res.Comparables[0].SourcePath)
	assert.Equal(t, "s09.png", res.Comparables[9].SourcePath)
}

func TestAppraiseProgressCallback(t *testing.T) {
	ex := &fakeExtractor{
		fields: map[string]map[string]any{"a.png": {"area_m2": 100, "price": 1000000}},
		errs:   map[string]error{"b.png": errors.New("boom")},
	}
	eng := NewEngine(ex, nil, testBatch())

	var seen []int
	progress := func(done, total int, item model.Comparable) {
		assert.Equal(t, 2, total)
		assert.Equal(t, done, item.SourceID)
		seen = append(seen, done)
	}

	_, err := eng.Appraise(context.Background(), subjectFixture(), []string{"a.png", "b.png"}, progress)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, seen)
}

func TestAppraiseNarrativeMerge(t *testing.T) {
	ex := &fakeExtractor{fields: map[string]map[string]any{
		"a.png": {"area_m2": 100, "price": 1000000},
		"b.png": {"area_m2": 100, "price": 1400000},
	}}
	nar := &fakeNarrative{nv: &model.NarrativeValuation{
		EstimatedValue: fptr(999), // must lose to the statistical pass
		Confidence:     "high",
		Commentary:     "tight comparable set",
	}}
	eng := NewEngine(ex, nar, testBatch())

	res, err := eng.Appraise(context.Background(), subjectFixture(), []string{"a.png", "b.png"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, nar.calls)
	require.Len(t, nar.comps, 2) // only usable comparables sent

	est := res.Estimate
	assert.Equal(t, model.MethodMerged, est.Method)
	assert.Equal(t, 12000.0, *est.MeanUnitPrice)
	assert.Equal(t, 600000.0, *est.EstimatedValue)
	assert.Equal(t, "high", est.Confidence)
	assert.Equal(t, "tight comparable set", est.Commentary)
}

func TestAppraiseAdjustedUnitPricesFeedAggregation(t *testing.T) {
	ex := &fakeExtractor{fields: map[string]map[string]any{
		"a.png": {"area_m2": 100, "price": 1000000},
		"b.png": {"area_m2": 100, "price": 1000000},
	}}
	// The narrative revises both comparables to 20000/m2; the statistics
	// must reflect the adjusted figures, not the raw 10000.
	nar := &fakeNarrative{nv: &model.NarrativeValuation{
		Adjustments: []model.Adjustment{
			{ComparableNo: 1, AdjustedUnitPrice: fptr(20000)},
			{ComparableNo: 2, AdjustedUnitPrice: fptr(20000)},
		},
	}}
	eng := NewEngine(ex, nar, testBatch())

	res, err := eng.Appraise(context.Background(), subjectFixture(), []string{"a.png", "b.png"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 20000.0, *res.Estimate.MeanUnitPrice)
	assert.Equal(t, 1000000.0, *res.Estimate.EstimatedValue) // 20000 × 50
	assert.Equal(t, 20000.0, *res.Comparables[0].UnitPrice)
}

func TestAppraiseNarrativeFailureDegradesToStatistical(t *testing.T) {
	ex := &fakeExtractor{fields: map[string]map[string]any{
		"a.png": {"area_m2": 100, "price": 1000000},
	}}
	nar := &fakeNarrative{err: errors.New("api down")}
	eng := NewEngine(ex, nar, testBatch())

	res, err := eng.Appraise(context.Background(), subjectFixture(), []string{"a.png"}, nil)
	require.NoError(t, err)

	assert.Equal(t, model.MethodStatistical, res.Estimate.Method)
	assert.Equal(t, 500000.0, *res.Estimate.EstimatedValue)
}

func TestAppraiseTotalBudgetExpiry(t *testing.T) {
	// slow.png has no scripted response, so the extractor blocks until the
	// 1s batch budget expires; the remaining items must carry the marker.
	ex := &fakeExtractor{fields: map[string]map[string]any{
		"a.png": {"area_m2": 100, "price": 1000000},
	}}

	cfg := testBatch()
	cfg.TotalTimeoutSecs = 1
	eng := NewEngine(ex, nil, cfg)

	res, err := eng.Appraise(context.Background(), subjectFixture(), []string{"a.png", "slow.png", "c.png"}, nil)
	require.NoError(t, err)

	assert.True(t, res.TimedOut)
	require.Len(t, res.Comparables, 3)
	assert.True(t, res.Comparables[0].Usable())
	assert.True(t, res.Comparables[1].Failed()) // the item that hit the deadline
	assert.Equal(t, timedOutMarker, res.Comparables[2].Error)

	// Whatever completed still aggregates.
	assert.Equal(t, 1, res.Estimate.UsedComparables)
	assert.Equal(t, 500000.0, *res.Estimate.EstimatedValue)
}

func TestAppraiseBudgetExpiryOnLastItem(t *testing.T) {
	// The budget expires while the final item is still in flight, so no
	// later iteration observes the expired context. The result must still
	// be flagged as timed out, not left looking like a plain item failure.
	ex := &fakeExtractor{fields: map[string]map[string]any{
		"a.png": {"area_m2": 100, "price": 1000000},
	}}

	cfg := testBatch()
	cfg.TotalTimeoutSecs = 1
	eng := NewEngine(ex, nil, cfg)

	res, err := eng.Appraise(context.Background(), subjectFixture(), []string{"a.png", "slow.png"}, nil)
	require.NoError(t, err)

	assert.True(t, res.TimedOut)
	require.Len(t, res.Comparables, 2)
	assert.True(t, res.Comparables[0].Usable())
	assert.True(t, res.Comparables[1].Failed())

	assert.Equal(t, 1, res.Estimate.UsedComparables)
	assert.Equal(t, 500000.0, *res.Estimate.EstimatedValue)
}

func TestAppraiseCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := NewEngine(&fakeExtractor{}, nil, testBatch())
	_, err := eng.Appraise(ctx, subjectFixture(), []string{"a.png"}, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestAppraiseItemTimeoutIsolated(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}

	// slow.png blocks; the 1s item timeout fails it while the 60s batch
	// budget keeps the rest of the batch alive.
	ex := &fakeExtractor{fields: map[string]map[string]any{
		"a.png": {"area_m2": 100, "price": 1000000},
	}}
	cfg := testBatch()
	cfg.ItemTimeoutSecs = 1
	eng := NewEngine(ex, nil, cfg)

	start := time.Now()
	res, err := eng.Appraise(context.Background(), subjectFixture(), []string{"slow.png", "a.png"}, nil)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	assert.False(t, res.TimedOut)
	assert.True(t, res.Comparables[0].Failed())
	assert.True(t, res.Comparables[1].Usable())
	assert.Equal(t, 1, res.Estimate.UsedComparables)
}
