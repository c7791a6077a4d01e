package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/structview/pkg/cache"
	"github.com/matzehuels/structview/pkg/config"
	"github.com/matzehuels/structview/pkg/engine"
	"github.com/matzehuels/structview/pkg/errors"
	"github.com/matzehuels/structview/pkg/render"
	"github.com/matzehuels/structview/pkg/source"
)

const traceFrames = `[
  {"list": {"layout": "linklist", "data": [{"id": 1, "next": 2}, {"id": 2, "next": 3}, {"id": 3}]}},
  {"list": {"layout": "linklist", "data": [{"id": 1, "next": 3}, {"id": 3}]}},
  {"list": {"layout": "linklist", "data": [{"id": 1}]}}
]`

func decode(t *testing.T, s string) []source.Frame {
	t.Helper()
	frames, err := Decode(context.Background(), strings.NewReader(s))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return frames
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"dot", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.Config == nil {
		t.Error("Config not defaulted")
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", opts.Formats)
	}
	if opts.Scale != DefaultScale {
		t.Errorf("Scale = %v, want %v", opts.Scale, DefaultScale)
	}
	if opts.Logger == nil {
		t.Error("Logger not defaulted")
	}

	dup := Options{Formats: []string{"svg", "json", "svg"}}
	if err := dup.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if len(dup.Formats) != 2 {
		t.Errorf("Formats = %v, want deduplicated", dup.Formats)
	}

	bad := Options{Formats: []string{"gif"}}
	if err := bad.ValidateAndSetDefaults(); err == nil {
		t.Error("expected error for unknown format")
	}

	negative := Options{Frame: -1}
	if err := negative.ValidateAndSetDefaults(); err == nil {
		t.Error("expected error for negative frame")
	}
}

func TestResolveStep(t *testing.T) {
	tests := []struct {
		frame, n int
		want     int
		wantErr  bool
	}{
		{0, 3, 2, false},
		{1, 3, 0, false},
		{3, 3, 2, false},
		{4, 3, 0, true},
		{0, 0, 0, true},
	}
	for _, tt := range tests {
		opts := Options{Frame: tt.frame}
		got, err := opts.ResolveStep(tt.n)
		if (err != nil) != tt.wantErr {
			t.Errorf("ResolveStep(%d) with frame %d: error = %v, wantErr %v", tt.n, tt.frame, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ResolveStep(%d) with frame %d = %d, want %d", tt.n, tt.frame, got, tt.want)
		}
	}
}

func TestDecodeRejectsReservedGroupNames(t *testing.T) {
	_, err := Decode(context.Background(), strings.NewReader(`{"a#b": {"layout": "linklist", "data": []}}`))
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Decode() error = %v, want INVALID_INPUT", err)
	}
}

func TestReplay(t *testing.T) {
	frames := decode(t, traceFrames)

	scene, err := Replay(context.Background(), frames, 2, engineOptions())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if !scene.HasLeak {
		t.Error("expected leaks after the last frame")
	}
	for _, id := range []string{"list(2)", "list(3)"} {
		it, ok := scene.Item(id)
		if !ok || !it.Leaked {
			t.Errorf("%s should be a leaked item", id)
		}
	}

	first, err := Replay(context.Background(), frames, 0, engineOptions())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if first.HasLeak {
		t.Error("first frame has no leaks")
	}

	if _, err := Replay(context.Background(), frames, 5, engineOptions()); err == nil {
		t.Error("expected error for out-of-range step")
	}
}

func TestReplayFailingFrame(t *testing.T) {
	frames := decode(t, `[
	  {"list": {"layout": "linklist", "data": [{"id": 1}]}},
	  {"list": {"layout": "linklist", "data": [{"id": 1, "next": 9}]}}
	]`)
	_, err := Replay(context.Background(), frames, 1, engineOptions())
	if !errors.Is(err, errors.ErrCodeValidation) {
		t.Fatalf("Replay() error = %v, want INVALID_RECORD", err)
	}
	if !strings.Contains(err.Error(), "frame 1") {
		t.Errorf("error should name the frame: %v", err)
	}
}

func TestRenderFormats(t *testing.T) {
	frames := decode(t, traceFrames)
	scene, err := Replay(context.Background(), frames, 2, engineOptions())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}

	opts := Options{Formats: []string{FormatSVG, FormatJSON, FormatDOT}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	artifacts, err := RenderFormats(context.Background(), scene, opts)
	if err != nil {
		t.Fatalf("RenderFormats: %v", err)
	}
	if len(artifacts) != 3 {
		t.Fatalf("got %d artifacts, want 3", len(artifacts))
	}
	if !strings.HasPrefix(string(artifacts[FormatSVG]), "<svg") {
		t.Error("svg artifact is not SVG")
	}
	if !strings.HasPrefix(string(artifacts[FormatDOT]), "digraph") {
		t.Error("dot artifact is not DOT")
	}

	var decoded render.Scene
	if err := json.Unmarshal(artifacts[FormatJSON], &decoded); err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if len(decoded.Items) != len(scene.Items) {
		t.Errorf("json items = %d, want %d", len(decoded.Items), len(scene.Items))
	}
}

func TestRunnerExecuteCaches(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, log.New(io.Discard))
	defer r.Close()

	frames := decode(t, traceFrames)
	opts := Options{Formats: []string{FormatSVG, FormatJSON}}

	first, err := r.Execute(context.Background(), frames, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if first.CacheInfo.SceneHit || first.CacheInfo.RenderHit {
		t.Errorf("first run should miss: %+v", first.CacheInfo)
	}
	if first.Step != 2 || first.Stats.Frames != 3 {
		t.Errorf("step = %d, frames = %d", first.Step, first.Stats.Frames)
	}
	if first.Stats.Leaked != 2 {
		t.Errorf("Stats.Leaked = %d, want 2", first.Stats.Leaked)
	}

	second, err := r.Execute(context.Background(), frames, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !second.CacheInfo.SceneHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run should hit: %+v", second.CacheInfo)
	}
	if second.SceneKey != first.SceneKey {
		t.Error("scene key changed between runs")
	}
	if string(second.Artifacts[FormatSVG]) != string(first.Artifacts[FormatSVG]) {
		t.Error("cached svg differs")
	}

	refresh := opts
	refresh.Refresh = true
	third, err := r.Execute(context.Background(), frames, refresh)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if third.CacheInfo.SceneHit || third.CacheInfo.RenderHit {
		t.Errorf("refresh should bypass cache: %+v", third.CacheInfo)
	}
}

func TestRunnerSceneKeyDependsOnConfig(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	frames := decode(t, traceFrames)

	narrow, err := config.Parse("[canvas]\nwidth = 400\n")
	if err != nil {
		t.Fatal(err)
	}

	a, err := r.Execute(context.Background(), frames, Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	b, err := r.Execute(context.Background(), frames, Options{Config: narrow})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if a.SceneKey == b.SceneKey {
		t.Error("scene key should change with canvas width")
	}

	c, err := r.Execute(context.Background(), frames, Options{Frame: 2})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if c.SceneKey == a.SceneKey {
		t.Error("scene key should change with step")
	}

	for _, doc := range []string{"[marker]\noffset = 200.0\n", "[marker]\nlabel_offset = 30.0\n"} {
		cfg, err := config.Parse(doc)
		if err != nil {
			t.Fatal(err)
		}
		d, err := r.Execute(context.Background(), frames, Options{Config: cfg})
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if d.SceneKey == a.SceneKey {
			t.Errorf("scene key should change with %q", doc)
		}
	}
}

func TestRunnerMarkerOffsetMissesCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, log.New(io.Discard))
	defer r.Close()

	frames := decode(t, `[{"list": {"layout": "linklist", "data": [{"id": 1, "cursor": "cur"}]}}]`)
	cursorY := func(res *Result) float64 {
		t.Helper()
		for _, it := range res.Scene.Items {
			if it.Kind == "marker" {
				return it.Y
			}
		}
		t.Fatal("scene has no marker")
		return 0
	}

	near, err := config.Parse("[marker]\noffset = 8.0\n")
	if err != nil {
		t.Fatal(err)
	}
	far, err := config.Parse("[marker]\noffset = 200.0\n")
	if err != nil {
		t.Fatal(err)
	}

	first, err := r.Execute(context.Background(), frames, Options{Config: near})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	second, err := r.Execute(context.Background(), frames, Options{Config: far})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if second.CacheInfo.SceneHit {
		t.Fatal("changed marker offset served a cached scene")
	}

	fresh, err := NewRunner(nil, nil, nil).Execute(context.Background(), frames, Options{Config: far})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got, want := cursorY(second), cursorY(fresh); got != want {
		t.Errorf("cursor y = %v, want %v", got, want)
	}
	if cursorY(first) == cursorY(second) {
		t.Error("cursor did not move with the marker offset")
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{Scale: 3, Nodelink: true}
	if got := opts.ArtifactKeyOpts(FormatPNG, 1); got.Format != "nodelink-png" || got.Scale != 3 || got.Step != 1 {
		t.Errorf("png key opts = %+v", got)
	}
	if got := opts.ArtifactKeyOpts(FormatJSON, 0); got.Format != FormatJSON || got.Scale != 0 {
		t.Errorf("json key opts = %+v", got)
	}
}

func engineOptions() engine.Options {
	return engine.Options{Config: config.Default().Engine()}
}

func TestExampleFrames(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "examples", "*.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no example frame files")
	}
	cfg, err := config.Load(filepath.Join("..", "..", "examples", "structview.toml"))
	if err != nil {
		t.Fatalf("load example config: %v", err)
	}

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			frames, err := DecodeFile(context.Background(), path)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			scene, err := Replay(context.Background(), frames, len(frames)-1, engine.Options{Config: cfg.Engine()})
			if err != nil {
				t.Fatalf("replay: %v", err)
			}
			if !scene.HasLeak {
				t.Error("every example ends with a leak")
			}
		})
	}
}
