// Package cost tracks what a batch spends on the extraction API,
// cache-aware: cached instruction reads bill at a fraction of input price.
package cost

import "sync"

// Rates holds per-model token pricing (per million tokens).
type Rates map[string]ModelRate

// ModelRate holds token pricing for one model.
type ModelRate struct {
	Input         float64 `yaml:"input" mapstructure:"input"`
	Output        float64 `yaml:"output" mapstructure:"output"`
	CacheWriteMul float64 `yaml:"cache_write_mul" mapstructure:"cache_write_mul"`
	CacheReadMul  float64 `yaml:"cache_read_mul" mapstructure:"cache_read_mul"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Claude computes the cost in USD for one Claude API call. Unknown models
// cost 0.
func (c *Calculator) Claude(model string, input, output, cacheWrite, cacheRead int64) float64 {
	rate, ok := c.rates[model]
	if !ok {
		return 0
	}

	inCost := (float64(input) / 1e6) * rate.Input
	outCost := (float64(output) / 1e6) * rate.Output
	cwCost := (float64(cacheWrite) / 1e6) * rate.Input * rate.CacheWriteMul
	crCost := (float64(cacheRead) / 1e6) * rate.Input * rate.CacheReadMul

	return inCost + outCost + cwCost + crCost
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		"claude-haiku-4-5-20251001": {
			Input: 0.80, Output: 4.00,
			CacheWriteMul: 1.25, CacheReadMul: 0.1,
		},
		"claude-sonnet-4-5-20250929": {
			Input: 3.00, Output: 15.00,
			CacheWriteMul: 1.25, CacheReadMul: 0.1,
		},
		"claude-opus-4-6": {
			Input: 15.00, Output: 75.00,
			CacheWriteMul: 1.25, CacheReadMul: 0.1,
		},
	}
}

// Tracker accumulates spend across the calls of one batch. Safe for
// concurrent use.
type Tracker struct {
	mu    sync.Mutex
	calc  *Calculator
	calls int
	total float64
}

// NewTracker creates a Tracker over the given calculator.
func NewTracker(calc *Calculator) *Tracker {
	return &Tracker{calc: calc}
}

// AddClaude records one Claude call's token usage.
func (t *Tracker) AddClaude(model string, input, output, cacheWrite, cacheRead int64) {
	cost := t.calc.Claude(model, input, output, cacheWrite, cacheRead)
	t.mu.Lock()
	t.calls++
	t.total += cost
	t.mu.Unlock()
}

// Calls returns the number of recorded calls.
func (t *Tracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Total returns the accumulated spend in USD.
func (t *Tracker) Total() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}
