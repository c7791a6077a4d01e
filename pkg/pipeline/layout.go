package pipeline

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/matzehuels/structview/pkg/engine"
	"github.com/matzehuels/structview/pkg/render"
	"github.com/matzehuels/structview/pkg/source"
)

// Replay renders frames[0..step] through a fresh engine and returns the
// scene after step. A frame that fails to render aborts the replay.
func Replay(ctx context.Context, frames []source.Frame, step int, opts engine.Options) (*render.Scene, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Replay", trace.WithAttributes(
		attribute.Int("frames", len(frames)),
		attribute.Int("step", step),
	))
	defer span.End()

	if step < 0 || step >= len(frames) {
		return nil, fmt.Errorf("step %d out of range (have %d frames)", step, len(frames))
	}
	eng, err := engine.New(opts)
	if err != nil {
		return nil, err
	}

	var scene *render.Scene
	for i, f := range frames[:step+1] {
		scene, err = eng.Render(ctx, f)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return scene, nil
}
