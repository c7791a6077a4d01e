package sink

import (
	"encoding/json"

	"github.com/matzehuels/structview/pkg/render"
)

// JSONOption configures [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	indent bool
	patch  bool
}

// WithIndent pretty-prints the output.
func WithIndent() JSONOption { return func(r *jsonRenderer) { r.indent = true } }

// WithoutPatch drops the patch descriptor, leaving only the final layout.
func WithoutPatch() JSONOption { return func(r *jsonRenderer) { r.patch = false } }

// RenderJSON serializes s. Items keep scene order.
func RenderJSON(s *render.Scene, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{patch: true}
	for _, opt := range opts {
		opt(&r)
	}

	out := *s
	if !r.patch {
		out.Patch = render.Patch{}
	}
	if out.Items == nil {
		out.Items = []render.Item{}
	}
	if r.indent {
		return json.MarshalIndent(out, "", "  ")
	}
	return json.Marshal(out)
}
