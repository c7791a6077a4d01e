package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"

	"github.com/matzehuels/structview/pkg/model"
	"github.com/matzehuels/structview/pkg/render"
)

const sceneCSS = `
    .element rect { stroke-width: 1.5; }
    .element.freed rect { stroke-dasharray: 4 3; opacity: 0.6; }
    .leaked rect { stroke: #c0392b; }
    .label { font-family: monospace; text-anchor: middle; dominant-baseline: central; }
    .appendage.freed { fill: #7f8c8d; }
    .appendage.address { fill: #c0392b; }
    .leak-area { fill: #fdf2f2; stroke: #c0392b; stroke-dasharray: 6 4; }`

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	leakArea   bool
	background string
}

// WithoutLeakArea omits the leak strip background.
func WithoutLeakArea() SVGOption { return func(r *svgRenderer) { r.leakArea = false } }

// WithBackground fills the canvas with color.
func WithBackground(color string) SVGOption { return func(r *svgRenderer) { r.background = color } }

// RenderSVG draws s as a standalone SVG document.
func RenderSVG(s *render.Scene, opts ...SVGOption) []byte {
	r := svgRenderer{leakArea: true}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		s.Width, s.Height, s.Width, s.Height)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", sceneCSS)
	buf.WriteString(`  <defs><marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="6" markerHeight="6" orient="auto-start-reverse"><path d="M 0 0 L 10 5 L 0 10 z" fill="#333"/></marker></defs>` + "\n")

	if r.background != "" {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", escape(r.background))
	}
	if r.leakArea && s.HasLeak {
		fmt.Fprintf(&buf, `  <rect class="leak-area" x="0" y="%.1f" width="%.1f" height="%.1f"/>`+"\n",
			s.LeakAreaY, s.Width, s.Height-s.LeakAreaY)
	}

	byID := make(map[string]render.Item, len(s.Items))
	for _, it := range s.Items {
		byID[it.ID] = it
	}

	// Links under nodes, labels on top.
	for _, it := range s.Items {
		if it.Kind == model.KindLink {
			renderLink(&buf, it, byID)
		}
	}
	for _, it := range s.Items {
		switch it.Kind {
		case model.KindElement:
			renderElement(&buf, it)
		case model.KindMarker:
			renderMarker(&buf, it)
		}
	}
	for _, it := range s.Items {
		if it.Kind == model.KindAppendage {
			renderAppendage(&buf, it)
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderElement(buf *bytes.Buffer, it render.Item) {
	class := "element"
	if it.Freed {
		class += " freed"
	}
	if it.Leaked {
		class += " leaked"
	}
	fill := styleOr(it.Style, "fill", "#ffffff")
	stroke := styleOr(it.Style, "stroke", "#333333")

	fmt.Fprintf(buf, `  <g id="%s" class="%s"%s>`, escape(it.ID), class, rotate(it))
	fmt.Fprintf(buf, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="2" fill="%s" stroke="%s"/>`,
		it.X-it.Width/2, it.Y-it.Height/2, it.Width, it.Height, escape(fill), escape(stroke))
	if it.Label != "" {
		fmt.Fprintf(buf, `<text class="label" x="%.1f" y="%.1f" font-size="%.0f">%s</text>`,
			it.X, it.Y, fontSize(it), escape(it.Label))
	}
	buf.WriteString("</g>\n")
}

func renderLink(buf *bytes.Buffer, it render.Item, byID map[string]render.Item) {
	src, ok1 := byID[it.Source]
	dst, ok2 := byID[it.Target]
	if !ok1 || !ok2 {
		return
	}
	x1, y1 := anchor(src, it.SourceAnchor)
	x2, y2 := anchor(dst, it.TargetAnchor)
	stroke := styleOr(it.Style, "stroke", "#333333")

	class := "link"
	if it.Leaked {
		class += " leaked"
	}
	if it.CurveOffset != 0 {
		// Control point offset perpendicular to the chord.
		mx, my := (x1+x2)/2, (y1+y2)/2
		dx, dy := x2-x1, y2-y1
		n := math.Hypot(dx, dy)
		cx, cy := mx, my+it.CurveOffset
		if n > 0 {
			cx, cy = mx-dy/n*it.CurveOffset, my+dx/n*it.CurveOffset
		}
		fmt.Fprintf(buf, `  <path id="%s" class="%s" d="M %.1f %.1f Q %.1f %.1f %.1f %.1f" fill="none" stroke="%s" marker-end="url(#arrow)"/>`+"\n",
			escape(it.ID), class, x1, y1, cx, cy, x2, y2, escape(stroke))
		return
	}
	fmt.Fprintf(buf, `  <line id="%s" class="%s" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" marker-end="url(#arrow)"/>`+"\n",
		escape(it.ID), class, x1, y1, x2, y2, escape(stroke))
}

func renderMarker(buf *bytes.Buffer, it render.Item) {
	fill := styleOr(it.Style, "fill", "#f08a5d")
	fmt.Fprintf(buf, `  <g id="%s" class="marker %s">`, escape(it.ID), escape(it.Shape))
	// Markers point down at their target before rotation.
	fmt.Fprintf(buf, `<g transform="rotate(%.2f %.1f %.1f)">`, it.Rotation*180/math.Pi, it.X, it.Y)
	if it.Shape == string(model.MarkerCursor) {
		fmt.Fprintf(buf, `<path d="M %.1f %.1f L %.1f %.1f L %.1f %.1f z" fill="%s"/>`,
			it.X-it.Width/2, it.Y-it.Height/2, it.X+it.Width/2, it.Y-it.Height/2, it.X, it.Y+it.Height/2, escape(fill))
	} else {
		fmt.Fprintf(buf, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="%.1f" marker-end="url(#arrow)"/>`,
			it.X, it.Y-it.Height/2, it.X, it.Y+it.Height/2, escape(fill), math.Max(1, it.Width/4))
	}
	buf.WriteString("</g>")
	if it.Label != "" {
		fmt.Fprintf(buf, `<text class="label" x="%.1f" y="%.1f" font-size="%.0f">%s</text>`,
			it.X+it.LabelDX, it.Y+it.LabelDY, fontSize(it), escape(it.Label))
	}
	buf.WriteString("</g>\n")
}

func renderAppendage(buf *bytes.Buffer, it render.Item) {
	fmt.Fprintf(buf, `  <text id="%s" class="label appendage %s" x="%.1f" y="%.1f" font-size="12">%s</text>`+"\n",
		escape(it.ID), escape(it.Type), it.X, it.Y, escape(it.Label))
}

// anchor returns the absolute position of anchor point i of it, ignoring
// rotation. A missing anchor resolves to the item's center.
func anchor(it render.Item, i int) (float64, float64) {
	if i < 0 || i >= len(it.AnchorPoints) {
		return it.X, it.Y
	}
	p := it.AnchorPoints[i]
	return it.X - it.Width/2 + p[0]*it.Width, it.Y - it.Height/2 + p[1]*it.Height
}

func rotate(it render.Item) string {
	if it.Rotation == 0 {
		return ""
	}
	return fmt.Sprintf(` transform="rotate(%.2f %.1f %.1f)"`, it.Rotation*180/math.Pi, it.X, it.Y)
}

func fontSize(it render.Item) float64 {
	if it.FontSize > 0 {
		return it.FontSize
	}
	return model.DefaultFontSize
}

func styleOr(s model.Style, key, def string) string {
	if v := s.String(key); v != "" {
		return v
	}
	return def
}

func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
