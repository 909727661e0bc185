// Package extract defines the boundary to the external document-understanding
// collaborator and its Claude-backed implementation. A comparable source
// (listing screenshot, photographed document, scanned PDF) goes in; an open
// field mapping comes back. Everything in that mapping is untrusted text
// until the numeric layer normalizes it.
package extract

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/dmryasin/compval/internal/model"
)

// Extractor converts one comparable source into a raw field mapping. Keys
// are drawn from the agreed vocabulary: address, city, district,
// neighborhood, area_m2, price, room_count, floor, building_age, features,
// source, listing_date. Values are free text; missing information is null.
type Extractor interface {
	ExtractComparable(ctx context.Context, sourcePath string) (map[string]any, error)
}

// NarrativeProvider produces the upstream qualitative valuation: a weighted
// comparison of the subject against the usable comparables, with
// per-comparable adjustment notes. Its numbers are advisory; the
// deterministic aggregation downstream takes precedence.
type NarrativeProvider interface {
	Compare(ctx context.Context, subject model.Subject, comps []model.Comparable) (*model.NarrativeValuation, error)
}

// extractJSON locates the outermost JSON object in a model response. The
// collaborator is instructed to return bare JSON but occasionally wraps it
// in prose or a code fence.
func extractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", eris.New("extract: no JSON object in response")
	}
	return text[start : end+1], nil
}
