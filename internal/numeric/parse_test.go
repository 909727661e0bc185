package numeric

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SeparatorDisambiguation(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"turkish grouping", "1.234.567,89", 1234567.89},
		{"english grouping", "1,234,567.89", 1234567.89},
		{"single dot decimal", "1234.56", 1234.56},
		{"single comma decimal", "1234,56", 1234.56},
		{"dot thousands only", "1.500.000", 1500000},
		{"comma decimal with dot thousands", "2.500,75", 2500.75},
		{"plain integer", "2500000", 2500000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in)
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 1e-9)
		})
	}
}

func TestParse_CurrencyAndNoise(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"TL suffix", "2.500.000 TL", 2500000},
		{"lowercase tl", "1500 tl", 1500},
		{"lira symbol", "₺1.250.000", 1250000},
		{"euro symbol", "€120.000", 120000},
		{"space grouping", "1 500 000", 1500000},
		{"non-breaking space grouping", "1 500 000", 1500000},
		{"narrow no-break space", "1 500", 1500},
		{"area suffix", "120 m2", 120},
		{"leading label", "Fiyat: 950.000 TL", 950000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in)
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 1e-9)
		})
	}
}

func TestParse_Unparseable(t *testing.T) {
	assert.Nil(t, Parse(nil))
	assert.Nil(t, Parse(""))
	assert.Nil(t, Parse("abc"))
	assert.Nil(t, Parse("bilinmiyor"))
	assert.Nil(t, Parse("---"))
	// Several commas and no dot violate the convention and fail conversion.
	assert.Nil(t, Parse("1,234,567"))
}

func TestParse_NumericPassThrough(t *testing.T) {
	for _, v := range []any{float64(1234.56), float32(12), int(120), int32(7), int64(2500000)} {
		got := Parse(v)
		require.NotNil(t, got, "%T", v)
	}

	got := Parse(json.Number("1250.5"))
	require.NotNil(t, got)
	assert.InDelta(t, 1250.5, *got, 1e-9)

	// Zero passes through: it is a value, not a gap.
	zero := Parse(float64(0))
	require.NotNil(t, zero)
	assert.Equal(t, 0.0, *zero)
}

func TestParse_Idempotence(t *testing.T) {
	first := Parse("1.234.567,89")
	require.NotNil(t, first)

	second := Parse(first)
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)

	third := Parse(*second)
	require.NotNil(t, third)
	assert.Equal(t, *first, *third)
}

func TestParse_NilPointer(t *testing.T) {
	var p *float64
	assert.Nil(t, Parse(p))
}
