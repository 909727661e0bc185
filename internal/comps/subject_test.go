package comps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmryasin/compval/internal/model"
)

func TestResolveSubjectArea_PriorityOrder(t *testing.T) {
	subject := model.Subject{
		"net_area":   "125,5 m2",
		"gross_area": "145",
		"land_area":  "600",
	}

	got := ResolveSubjectArea(subject)
	require.NotNil(t, got)
	assert.InDelta(t, 125.5, *got, 1e-9)
}

func TestResolveSubjectArea_NumericVariantPreferred(t *testing.T) {
	subject := model.Subject{
		"net_area_value": float64(124),
		"net_area":       "125,5 m2 (Tapu)",
	}

	got := ResolveSubjectArea(subject)
	require.NotNil(t, got)
	assert.InDelta(t, 124, *got, 1e-9)
}

func TestResolveSubjectArea_FallsThroughZeroAndGarbage(t *testing.T) {
	subject := model.Subject{
		"net_area":   "0",
		"gross_area": "belirtilmemiş",
		"land_area":  "600 m2",
	}

	got := ResolveSubjectArea(subject)
	require.NotNil(t, got)
	assert.InDelta(t, 600, *got, 1e-9)
}

func TestResolveSubjectArea_NoneResolvable(t *testing.T) {
	assert.Nil(t, ResolveSubjectArea(model.Subject{"address": "Çankaya, Ankara"}))
	assert.Nil(t, ResolveSubjectArea(model.Subject{}))
	assert.Nil(t, ResolveSubjectArea(nil))
}
