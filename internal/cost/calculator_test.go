package cost

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClaudeCost(t *testing.T) {
	c := NewCalculator(DefaultRates())

	// sonnet: 1M input at $3 + 1M output at $15
	got := c.Claude("claude-sonnet-4-5-20250929", 1_000_000, 1_000_000, 0, 0)
	assert.InDelta(t, 18.0, got, 0.0001)

	// cache read bills at 10% of input price
	got = c.Claude("claude-sonnet-4-5-20250929", 0, 0, 0, 1_000_000)
	assert.InDelta(t, 0.30, got, 0.0001)

	// cache write bills at 125% of input price
	got = c.Claude("claude-sonnet-4-5-20250929", 0, 0, 1_000_000, 0)
	assert.InDelta(t, 3.75, got, 0.0001)
}

func TestClaudeCostUnknownModel(t *testing.T) {
	c := NewCalculator(DefaultRates())
	assert.Equal(t, 0.0, c.Claude("some-future-model", 1000, 1000, 0, 0))
}

func TestTrackerAccumulates(t *testing.T) {
	tr := NewTracker(NewCalculator(DefaultRates()))

	tr.AddClaude("claude-sonnet-4-5-20250929", 1_000_000, 0, 0, 0)
	tr.AddClaude("claude-sonnet-4-5-20250929", 0, 1_000_000, 0, 0)

	assert.Equal(t, 2, tr.Calls())
	assert.InDelta(t, 18.0, tr.Total(), 0.0001)
}

func TestTrackerConcurrent(t *testing.T) {
	tr := NewTracker(NewCalculator(DefaultRates()))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.AddClaude("claude-sonnet-4-5-20250929", 1_000_000, 0, 0, 0)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, tr.Calls())
	assert.InDelta(t, 150.0, tr.Total(), 0.0001)
}
