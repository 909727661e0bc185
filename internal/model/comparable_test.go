package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestComparable_Usable(t *testing.T) {
	tests := []struct {
		name string
		c    Comparable
		want bool
	}{
		{"both resolved", Comparable{Area: f(120), UnitPrice: f(15000)}, true},
		{"missing area", Comparable{UnitPrice: f(15000)}, false},
		{"missing unit price", Comparable{Area: f(120)}, false},
		{"failed", Comparable{Area: f(120), UnitPrice: f(15000), Error: "extraction failed"}, false},
		{"zero unit price still usable", Comparable{Area: f(120), UnitPrice: f(0)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Usable())
		})
	}
}

func TestComparable_FieldAccess(t *testing.T) {
	c := Comparable{Fields: map[string]any{"address": "Kızılay, Ankara", "floor": 5}}

	assert.Equal(t, "Kızılay, Ankara", c.FieldString("address"))
	assert.Equal(t, "", c.FieldString("floor")) // non-string renders empty
	assert.Equal(t, "", c.FieldString("missing"))
	assert.Nil(t, Comparable{}.Field("address"))
}
