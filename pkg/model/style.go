package model

import "maps"

// Style is a free-form set of drawing attributes (fill, stroke, font
// size, ...). The engine copies styles but never interprets them.
type Style map[string]any

// Clone returns an independent copy of s.
func (s Style) Clone() Style {
	if s == nil {
		return nil
	}
	return maps.Clone(s)
}

// Merge returns a copy of s overlaid with o.
func (s Style) Merge(o Style) Style {
	out := make(Style, len(s)+len(o))
	maps.Copy(out, s)
	maps.Copy(out, o)
	return out
}

// String returns the attribute as a string, or "".
func (s Style) String(key string) string {
	v, _ := s[key].(string)
	return v
}

// Float returns the attribute as a float, or def.
func (s Style) Float(key string, def float64) float64 {
	switch v := s[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}
