package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/structview/pkg/model"
	"github.com/matzehuels/structview/pkg/render"
)

// pointsPerPixel converts scene units to Graphviz points (1/72 inch).
const pointsPerPixel = 1.0

// Options configures DOT generation.
type Options struct {
	// Detailed appends the element id and type to each label.
	Detailed bool
	// Markers draws markers as plaintext nodes pointing at their target.
	Markers bool
}

// ToDOT converts a scene to Graphviz DOT. Every node is pinned to its
// scene position so neato reproduces the composed layout exactly.
// Graphviz's y axis points up, so y is flipped against the scene height.
func ToDOT(s *render.Scene, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fixedsize=true];\n")
	buf.WriteString("\n")

	for _, it := range s.Items {
		if it.Kind != model.KindElement {
			continue
		}
		attrs := []string{
			fmt.Sprintf("label=%q", fmtLabel(it, opts.Detailed)),
			fmt.Sprintf("pos=%q", pos(s, it.X, it.Y)),
			fmt.Sprintf("width=%s", inches(it.Width)),
			fmt.Sprintf("height=%s", inches(it.Height)),
			fmt.Sprintf("fontsize=%s", fmtFloat(fontSize(it))),
		}
		attrs = append(attrs, fmtStyle(it)...)
		fmt.Fprintf(&buf, "  %q [%s];\n", it.ID, strings.Join(attrs, ", "))
	}

	if opts.Markers {
		buf.WriteString("\n")
		for _, it := range s.Items {
			if it.Kind != model.KindMarker || it.Owner == "" {
				continue
			}
			fmt.Fprintf(&buf, "  %q [shape=plaintext, style=\"\", label=%q, pos=%q];\n",
				it.ID, it.Label, pos(s, it.X+it.LabelDX, it.Y+it.LabelDY))
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", it.ID, it.Owner)
		}
	}

	buf.WriteString("\n")
	for _, it := range s.Items {
		if it.Kind != model.KindLink || it.Source == "" || it.Target == "" {
			continue
		}
		attrs := []string{}
		if it.Label != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", it.Label))
		}
		if it.Leaked {
			attrs = append(attrs, "color=\"#c0392b\"")
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", it.Source, it.Target)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", it.Source, it.Target, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(it render.Item, detailed bool) string {
	if !detailed {
		return it.Label
	}
	parts := []string{it.Label, it.ID}
	if it.Type != "" {
		parts = append(parts, "type: "+it.Type)
	}
	return strings.Join(parts, "\n")
}

func fmtStyle(it render.Item) []string {
	var attrs []string
	if fill := it.Style.String("fill"); fill != "" {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", fill))
	}
	if stroke := it.Style.String("stroke"); stroke != "" {
		attrs = append(attrs, fmt.Sprintf("color=%q", stroke))
	}
	switch {
	case it.Leaked:
		attrs = append(attrs, "color=\"#c0392b\"", "penwidth=2")
	case it.Freed:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fontcolor=grey40")
	}
	return attrs
}

func pos(s *render.Scene, x, y float64) string {
	return fmtFloat(x*pointsPerPixel) + "," + fmtFloat((s.Height-y)*pointsPerPixel) + "!"
}

func inches(px float64) string { return fmtFloat(px * pointsPerPixel / 72) }

func fmtFloat(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func fontSize(it render.Item) float64 {
	if it.FontSize > 0 {
		return it.FontSize
	}
	return model.DefaultFontSize
}

// RenderSVG renders DOT to SVG with Graphviz's neato engine.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders DOT as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders DOT as PNG via SVG conversion at the given scale.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
