package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/structview/pkg/observability"
	"github.com/matzehuels/structview/pkg/render"
	"github.com/matzehuels/structview/pkg/render/nodelink"
	"github.com/matzehuels/structview/pkg/render/sink"
)

// Render writes s in one format.
func Render(ctx context.Context, s *render.Scene, format string, opts Options) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Render", trace.WithAttributes(attribute.String("format", format)))
	defer span.End()

	hooks := observability.Pipeline()
	hooks.OnSinkStart(ctx, format)
	start := time.Now()

	data, err := renderFormat(ctx, s, format, opts)
	hooks.OnSinkComplete(ctx, format, len(data), time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return data, nil
}

func renderFormat(ctx context.Context, s *render.Scene, format string, opts Options) ([]byte, error) {
	if opts.Nodelink {
		dot := nodelink.ToDOT(s, nodelink.Options{Markers: true})
		switch format {
		case FormatSVG:
			return nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			return nodelink.RenderPNG(ctx, dot, opts.Scale)
		case FormatPDF:
			return nodelink.RenderPDF(ctx, dot)
		}
	}

	switch format {
	case FormatSVG:
		return sink.RenderSVG(s), nil
	case FormatPNG:
		return sink.RenderPNG(s, sink.WithScale(opts.Scale), sink.WithSVGOptions(sink.WithBackground("white")))
	case FormatPDF:
		return sink.RenderPDF(s)
	case FormatJSON:
		return sink.RenderJSON(s, sink.WithIndent())
	case FormatDOT:
		return []byte(nodelink.ToDOT(s, nodelink.Options{Detailed: true, Markers: true})), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// RenderFormats writes s in every format of opts concurrently.
// The first failure cancels the others.
func RenderFormats(ctx context.Context, s *render.Scene, opts Options) (map[string][]byte, error) {
	var mu sync.Mutex
	artifacts := make(map[string][]byte, len(opts.Formats))

	g, ctx := errgroup.WithContext(ctx)
	for _, format := range opts.Formats {
		g.Go(func() error {
			data, err := Render(ctx, s, format, opts)
			if err != nil {
				return err
			}
			mu.Lock()
			artifacts[format] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}
