package model

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Subject is the property being valued: an open mapping of named fields
// (area variants, location, classification) supplied by the caller. The
// valuation core only reads it.
type Subject map[string]any

// LoadSubject reads a subject property description from a YAML file. All
// fields are optional; values stay untyped because every number is treated
// as text until normalized.
func LoadSubject(path string) (Subject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "model: read subject file %s", path)
	}

	var s Subject
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrapf(err, "model: parse subject file %s", path)
	}
	if s == nil {
		s = Subject{}
	}
	return s, nil
}

// String returns a subject field rendered as a string, or "" if absent.
func (s Subject) String(key string) string {
	v, ok := s[key]
	if !ok || v == nil {
		return ""
	}
	if str, ok := v.(string); ok {
		return str
	}
	return ""
}
