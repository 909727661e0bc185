package numeric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirst_PriorityOrder(t *testing.T) {
	fields := map[string]any{
		"adjusted_unit_price": "16.500,50 TL",
		"unit_price":          "15000",
	}

	got := First(fields, "adjusted_unit_price", "unit_price_value", "unit_price")
	require.NotNil(t, got)
	assert.InDelta(t, 16500.50, *got, 1e-9)
}

func TestFirst_SkipsMissingAndUnparseable(t *testing.T) {
	fields := map[string]any{
		"adjusted_unit_price": "belirtilmemiş",
		"unit_price_value":    nil,
		"unit_price":          "14.250",
	}

	// The preferred key is present but unparseable; the fallback wins.
	got := First(fields, "adjusted_unit_price", "unit_price_value", "unit_price")
	require.NotNil(t, got)
	assert.InDelta(t, 14250, *got, 1e-9)
}

func TestFirst_ZeroIsAValue(t *testing.T) {
	fields := map[string]any{"price": float64(0)}

	got := First(fields, "price_value", "price")
	require.NotNil(t, got)
	assert.Equal(t, 0.0, *got)
}

func TestFirst_NoneResolve(t *testing.T) {
	assert.Nil(t, First(map[string]any{"other": "x"}, "a", "b"))
	assert.Nil(t, First(nil, "a"))
}

func TestFirstPositive_SkipsZero(t *testing.T) {
	fields := map[string]any{
		"net_area":   "0",
		"gross_area": "145,5",
	}

	got := FirstPositive(fields, "net_area", "gross_area")
	require.NotNil(t, got)
	assert.InDelta(t, 145.5, *got, 1e-9)
}

func TestFirstPositive_NegativeRejected(t *testing.T) {
	fields := map[string]any{"net_area": float64(-5)}
	assert.Nil(t, FirstPositive(fields, "net_area"))
}
