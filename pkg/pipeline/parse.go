package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/matzehuels/structview/pkg/errors"
	"github.com/matzehuels/structview/pkg/observability"
	"github.com/matzehuels/structview/pkg/source"
)

// Decode reads a frame sequence from r and validates group names.
func Decode(ctx context.Context, r io.Reader) ([]source.Frame, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Decode")
	defer span.End()

	start := time.Now()
	frames, err := source.DecodeAll(r)
	if err == nil {
		err = validateFrames(frames)
	}
	observability.Pipeline().OnDecodeComplete(ctx, len(frames), time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return frames, nil
}

// DecodeFile reads a frame sequence from path. "-" reads stdin.
func DecodeFile(ctx context.Context, path string) ([]source.Frame, error) {
	if path == "-" {
		return Decode(ctx, os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frames: %w", err)
	}
	defer f.Close()
	return Decode(ctx, f)
}

func validateFrames(frames []source.Frame) error {
	for i, f := range frames {
		for _, g := range f.Groups {
			if err := errors.ValidateGroupName(g.Name); err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
		}
	}
	return nil
}
