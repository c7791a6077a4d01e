package sink

import "github.com/matzehuels/structview/pkg/render"

// PNGOption configures [RenderPNG].
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	scale float64
	svg   []SVGOption
}

// WithScale sets the raster scale factor. 2 suits high-DPI displays.
func WithScale(scale float64) PNGOption { return func(r *pngRenderer) { r.scale = scale } }

// WithSVGOptions forwards options to the intermediate SVG rendering.
func WithSVGOptions(opts ...SVGOption) PNGOption {
	return func(r *pngRenderer) { r.svg = append(r.svg, opts...) }
}

// RenderPNG rasterizes s via its SVG rendering.
// Requires rsvg-convert (librsvg).
func RenderPNG(s *render.Scene, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 1}
	for _, opt := range opts {
		opt(&r)
	}
	return render.ToPNG(RenderSVG(s, r.svg...), r.scale)
}

// RenderPDF converts the SVG rendering of s to PDF.
// Requires rsvg-convert (librsvg).
func RenderPDF(s *render.Scene, opts ...SVGOption) ([]byte, error) {
	return render.ToPDF(RenderSVG(s, opts...))
}
