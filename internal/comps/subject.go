package comps

import (
	"github.com/dmryasin/compval/internal/model"
	"github.com/dmryasin/compval/internal/numeric"
)

// subjectAreaFields is the trust order for sizing the subject property: net
// usable area, then gross constructed area, then land/parcel area.
var subjectAreaFields = []string{
	"net_area_value", "net_area",
	"gross_area_value", "gross_area",
	"land_area_value", "land_area",
}

// ResolveSubjectArea selects the most trustworthy area figure for the
// subject property: the first candidate that normalizes to a positive
// number. Nil means the subject cannot be sized, which callers must treat
// as "no value computable", never as zero.
func ResolveSubjectArea(subject model.Subject) *float64 {
	return numeric.FirstPositive(subject, subjectAreaFields...)
}
