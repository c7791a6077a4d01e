// Package pipeline turns frame files into rendered artifacts.
//
// The same decode → replay → render sequence backs the CLI, the HTTP
// server and the watcher:
//
//  1. Decode: read a frame sequence (JSON array or concatenated objects)
//  2. Replay: feed every frame through one [engine.Engine] in order, so
//     leaks accumulate exactly as they would live
//  3. Render: write the scene of the selected step in each requested
//     format (SVG, PNG, PDF, JSON, DOT)
//
// A [Runner] adds caching: scenes are keyed by the hashes of the frames
// that produced them and the composition settings, artifacts by scene
// key, format and scale.
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	frames, err := pipeline.DecodeFile(ctx, "trace.json")
//	result, err := runner.Execute(ctx, frames, pipeline.Options{
//	    Config:  cfg,
//	    Formats: []string{"svg", "json"},
//	})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/structview/pkg/cache"
	"github.com/matzehuels/structview/pkg/config"
	"github.com/matzehuels/structview/pkg/render"
	"github.com/matzehuels/structview/pkg/source"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
	FormatDOT:  true,
}

// DefaultScale is the PNG scale factor when none is set.
const DefaultScale = 2.0

// Options configures one pipeline run.
type Options struct {
	// Config supplies engine and cache settings. Nil selects config.Default().
	Config *config.Config `json:"-"`

	Formats []string `json:"formats,omitempty"`
	// Frame is the 1-based number of the frame whose scene is rendered.
	// Zero selects the final frame.
	Frame int `json:"frame,omitempty"`
	// Scale applies to PNG output.
	Scale float64 `json:"scale,omitempty"`
	// Nodelink renders SVG, PNG and PDF through Graphviz instead of the
	// built-in SVG sink.
	Nodelink bool `json:"nodelink,omitempty"`
	// Refresh bypasses cache reads. Results are still written.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Scene is the scene at the selected step.
	Scene *render.Scene
	// Step is the 0-based index of the rendered frame.
	Step int
	// SceneKey identifies Scene in the cache.
	SceneKey string
	// Artifacts holds rendered outputs keyed by format.
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Frames     int
	Items      int
	Leaked     int
	ReplayTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	SceneHit  bool // Whether the scene came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, png, pdf, json, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks the options and applies defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Config == nil {
		o.Config = config.Default()
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.Formats = dedupe(o.Formats)
	if o.Frame < 0 {
		return fmt.Errorf("invalid frame: %d", o.Frame)
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ResolveStep returns the 0-based index Frame selects in a sequence of
// n frames.
func (o *Options) ResolveStep(n int) (int, error) {
	if n == 0 {
		return 0, fmt.Errorf("no frames")
	}
	if o.Frame == 0 {
		return n - 1, nil
	}
	if o.Frame > n {
		return 0, fmt.Errorf("frame %d out of range (have %d frames)", o.Frame, n)
	}
	return o.Frame - 1, nil
}

// SceneKey returns the cache key of the scene after frames.
func (o *Options) SceneKey(k cache.Keyer, frames []source.Frame) string {
	hashes := make([]string, len(frames))
	for i, f := range frames {
		hashes[i] = f.Hash()
	}
	return k.SceneKey(hashes, o.Config.SceneKeyOpts())
}

// ArtifactKeyOpts returns cache key options for one format.
func (o *Options) ArtifactKeyOpts(format string, step int) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format, Step: step}
	if format == FormatPNG {
		opts.Scale = o.Scale
	}
	if o.Nodelink && format != FormatJSON && format != FormatDOT {
		opts.Format = "nodelink-" + format
	}
	return opts
}

func dedupe(formats []string) []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}
