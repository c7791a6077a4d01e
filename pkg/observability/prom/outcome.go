package prom

import (
	"github.com/matzehuels/structview/pkg/errors"
	"github.com/matzehuels/structview/pkg/observability"
)

// Outcome names the result of a render pass for metric labels.
func Outcome(s observability.RenderStats, err error) string {
	switch {
	case err == nil && s.Skipped:
		return "skipped"
	case err == nil:
		return "ok"
	case errors.Is(err, errors.ErrCodeValidation):
		return "invalid"
	case errors.Is(err, errors.ErrCodeLayout):
		return "layout_failed"
	default:
		return "error"
	}
}
