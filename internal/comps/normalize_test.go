package comps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_PriorityOrder(t *testing.T) {
	fields := map[string]any{
		"adjusted_unit_price": "16.800 TL/m2",
		"unit_price":          "15.000",
		"area_m2":             "120",
		"price":               "1.800.000 TL",
	}

	n := Normalize(fields)

	require.NotNil(t, n.UnitPrice)
	assert.InDelta(t, 16800, *n.UnitPrice, 1e-9) // adjusted wins over raw
	require.NotNil(t, n.Area)
	assert.InDelta(t, 120, *n.Area, 1e-9)
	require.NotNil(t, n.TotalPrice)
	assert.InDelta(t, 1800000, *n.TotalPrice, 1e-9)
}

func TestNormalize_DerivesUnitPrice(t *testing.T) {
	fields := map[string]any{
		"price":   "2.500.000 TL",
		"area_m2": "125",
	}

	n := Normalize(fields)

	require.NotNil(t, n.UnitPrice)
	assert.InDelta(t, 2500000.0/125, *n.UnitPrice, 1e-9)

	// Derived value is written back under the canonical keys.
	assert.InDelta(t, 20000, fields["unit_price_value"].(float64), 1e-9)
	assert.InDelta(t, 20000, fields["unit_price"].(float64), 1e-9)
}

func TestNormalize_NoDerivationWithZeroArea(t *testing.T) {
	fields := map[string]any{
		"price":   "1.000.000",
		"area_m2": "0",
	}

	n := Normalize(fields)

	assert.Nil(t, n.UnitPrice)
	require.NotNil(t, n.Area)
	assert.Equal(t, 0.0, *n.Area)
	_, written := fields["unit_price_value"]
	assert.False(t, written)
}

func TestNormalize_UnresolvedStaysNil(t *testing.T) {
	fields := map[string]any{
		"area_m2": "yaklaşık yüzyirmi", // no digits at all
		"price":   nil,
	}

	n := Normalize(fields)

	assert.Nil(t, n.Area)
	assert.Nil(t, n.UnitPrice)
	assert.Nil(t, n.TotalPrice)

	// Nothing is defaulted to zero.
	_, ok := fields["area_m2_value"]
	assert.False(t, ok)
	_, ok = fields["price_value"]
	assert.False(t, ok)
}

func TestNormalize_ZeroPricePreserved(t *testing.T) {
	fields := map[string]any{"price": float64(0), "area_m2": "100"}

	n := Normalize(fields)

	require.NotNil(t, n.TotalPrice)
	assert.Equal(t, 0.0, *n.TotalPrice)
	// Zero total over positive area derives a zero unit price, a real value.
	require.NotNil(t, n.UnitPrice)
	assert.Equal(t, 0.0, *n.UnitPrice)
}

func TestNormalize_NilFields(t *testing.T) {
	n := Normalize(nil)
	assert.Nil(t, n.Area)
	assert.Nil(t, n.UnitPrice)
	assert.Nil(t, n.TotalPrice)
}

func TestNormalize_WriteBackOverwritesStaleText(t *testing.T) {
	fields := map[string]any{
		"unit_price": "15.750,25 TL",
		"area_m2":    "98,5 m²",
	}

	Normalize(fields)

	assert.InDelta(t, 15750.25, fields["unit_price"].(float64), 1e-9)
	assert.InDelta(t, 98.5, fields["area_m2"].(float64), 1e-9)
}
