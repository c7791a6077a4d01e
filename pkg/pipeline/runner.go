package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/matzehuels/structview/pkg/cache"
	"github.com/matzehuels/structview/pkg/engine"
	"github.com/matzehuels/structview/pkg/model"
	"github.com/matzehuels/structview/pkg/observability"
	"github.com/matzehuels/structview/pkg/render"
	"github.com/matzehuels/structview/pkg/source"
)

var tracer = otel.Tracer("github.com/matzehuels/structview/pkg/pipeline")

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger; it does not
// keep engines between runs. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute replays frames up to the selected step and renders the
// resulting scene, reusing cached scenes and artifacts when possible.
func (r *Runner) Execute(ctx context.Context, frames []source.Frame, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	step, err := opts.ResolveStep(len(frames))
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "pipeline.Execute", trace.WithAttributes(
		attribute.Int("frames", len(frames)),
		attribute.StringSlice("formats", opts.Formats),
	))
	defer span.End()

	result := &Result{Step: step, Stats: Stats{Frames: step + 1}}

	replayStart := time.Now()
	scene, key, hit, err := r.SceneWithCacheInfo(ctx, frames[:step+1], opts)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("replay: %w", err)
	}
	result.Scene = scene
	result.SceneKey = key
	result.Stats.ReplayTime = time.Since(replayStart)
	result.Stats.Items = len(scene.Items)
	result.Stats.Leaked = countLeaked(scene)
	result.CacheInfo.SceneHit = hit

	r.Logger.Info("replayed frames",
		"frames", step+1,
		"items", result.Stats.Items,
		"leaked", result.Stats.Leaked,
		"cached", hit,
		"duration", result.Stats.ReplayTime)

	renderStart := time.Now()
	artifacts, hit, err := r.RenderWithCacheInfo(ctx, scene, key, step, opts)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = hit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// SceneWithCacheInfo returns the scene after the last of frames, its
// cache key, and whether it came from cache.
func (r *Runner) SceneWithCacheInfo(ctx context.Context, frames []source.Frame, opts Options) (*render.Scene, string, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, "", false, err
	}
	key := opts.SceneKey(r.Keyer, frames)
	hooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var scene render.Scene
			if err := json.Unmarshal(data, &scene); err == nil {
				hooks.OnCacheHit(ctx, "scene")
				return &scene, key, true, nil
			}
			// A corrupt entry is recomputed and overwritten.
		} else if err != nil {
			r.Logger.Warn("scene cache read failed", "err", err)
		}
		hooks.OnCacheMiss(ctx, "scene")
	}

	scene, err := Replay(ctx, frames, len(frames)-1, engine.Options{
		Config: opts.Config.Engine(),
		Logger: opts.Logger,
	})
	if err != nil {
		return nil, "", false, err
	}

	if data, err := json.Marshal(scene); err == nil {
		if err := r.Cache.Set(ctx, key, data, opts.Config.Cache.TTL); err != nil {
			r.Logger.Warn("scene cache write failed", "err", err)
		} else {
			hooks.OnCacheSet(ctx, "scene", len(data))
		}
	}
	return scene, key, false, nil
}

// RenderWithCacheInfo renders every requested format of scene, reporting
// whether all of them came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, scene *render.Scene, sceneKey string, step int, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	hooks := observability.Cache()

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(sceneKey, opts.ArtifactKeyOpts(format, step))
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				hooks.OnCacheHit(ctx, "artifact")
				artifacts[format] = data
				continue
			}
			hooks.OnCacheMiss(ctx, "artifact")
		}
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	sub := opts
	sub.Formats = missing
	rendered, err := RenderFormats(ctx, scene, sub)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		artifacts[format] = data
		key := r.Keyer.ArtifactKey(sceneKey, opts.ArtifactKeyOpts(format, step))
		if err := r.Cache.Set(ctx, key, data, opts.Config.Cache.TTL); err != nil {
			r.Logger.Warn("artifact cache write failed", "format", format, "err", err)
			continue
		}
		hooks.OnCacheSet(ctx, "artifact", len(data))
	}
	return artifacts, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func countLeaked(s *render.Scene) int {
	n := 0
	for _, it := range s.Items {
		if it.Leaked && it.Kind == model.KindElement {
			n++
		}
	}
	return n
}
