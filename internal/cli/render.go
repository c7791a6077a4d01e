package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/structview/pkg/config"
	"github.com/matzehuels/structview/pkg/errors"
	"github.com/matzehuels/structview/pkg/pipeline"
)

// renderFlags holds the flags shared by render and watch.
type renderFlags struct {
	output   string  // output file (single format) or base path
	formats  string  // comma-separated output formats
	frame    int     // 1-based frame to render, 0 for the last
	scale    float64 // PNG scale factor
	nodelink bool    // render through Graphviz
	width    float64 // canvas width override
	height   float64 // canvas height override
	noCache  bool
	refresh  bool
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output format(s): svg (default), png, pdf, json, dot (comma-separated)")
	cmd.Flags().IntVar(&f.frame, "frame", 0, "render the scene after this frame (1-based, default: last)")
	cmd.Flags().Float64Var(&f.scale, "scale", pipeline.DefaultScale, "PNG scale factor")
	cmd.Flags().BoolVar(&f.nodelink, "nodelink", false, "render through Graphviz with pinned positions")
	cmd.Flags().Float64Var(&f.width, "width", 0, "canvas width (default from config)")
	cmd.Flags().Float64Var(&f.height, "height", 0, "canvas height (default from config)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached results")
}

// options builds pipeline options from the flags on top of cfg.
func (f *renderFlags) options(cfg *config.Config) (pipeline.Options, error) {
	if f.width > 0 || f.height > 0 {
		override := *cfg
		if f.width > 0 {
			override.Canvas.Width = f.width
		}
		if f.height > 0 {
			override.Canvas.Height = f.height
		}
		if err := override.Validate(); err != nil {
			return pipeline.Options{}, err
		}
		cfg = &override
	}
	opts := pipeline.Options{
		Config:   cfg,
		Formats:  parseFormats(f.formats),
		Frame:    f.frame,
		Scale:    f.scale,
		Nodelink: f.nodelink,
		Refresh:  f.refresh,
	}
	return opts, opts.ValidateAndSetDefaults()
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render [frames.json]",
		Short: "Render a frame sequence to SVG, PNG, PDF, JSON or DOT",
		Long: `Render a frame sequence.

Every frame is replayed through one engine so leaked elements accumulate
exactly as they would live; the scene after the selected frame (the last by
default) is written in each requested format.

Use "-" to read frames from stdin. Results are cached by frame content.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], &flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, flags *renderFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	opts, err := flags.options(cfg)
	if err != nil {
		return err
	}
	opts.Logger = c.Logger

	runner, err := c.newRunner(ctx, cfg, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spin := newSpinner(ctx, os.Stderr, fmt.Sprintf("Rendering %s...", input))
	spin.Start()
	out, err := renderFile(ctx, runner, input, flags.output, opts)
	if err != nil {
		spin.StopWithError(errors.UserMessage(err))
		return err
	}
	spin.Stop()
	if spin.Cancelled() {
		return ctx.Err()
	}

	printSuccess("Rendered %s", input)
	for _, p := range out.paths {
		printFile(p)
	}
	printSceneStats(out.result.Stats, out.result.Step, out.cached())
	return nil
}

// rendered is the outcome of renderFile.
type rendered struct {
	result *pipeline.Result
	paths  []string // written files in format order
}

func (r rendered) cached() bool {
	return r.result.CacheInfo.SceneHit && r.result.CacheInfo.RenderHit
}

// renderFile replays input and writes one file per format.
func renderFile(ctx context.Context, runner *pipeline.Runner, input, output string, opts pipeline.Options) (rendered, error) {
	prog := newProgress(opts.Logger)

	frames, err := pipeline.DecodeFile(ctx, input)
	if err != nil {
		return rendered{}, err
	}
	if len(frames) == 0 {
		return rendered{}, errors.New(errors.ErrCodeInvalidInput, "%s contains no frames", input)
	}

	result, err := runner.Execute(ctx, frames, opts)
	if err != nil {
		return rendered{}, err
	}

	out := rendered{result: result}
	paths := outputPaths(output, input, opts.Formats)
	for _, format := range opts.Formats {
		path := paths[format]
		if err := writeOutput(path, result.Artifacts[format]); err != nil {
			return out, err
		}
		out.paths = append(out.paths, path)
	}

	prog.done(fmt.Sprintf("Rendered %s", input))
	return out, nil
}

// outputPaths maps each format to its output file. A single format with an
// explicit output writes exactly there; otherwise output (or the input
// without its extension) is a base path that gets one extension per format.
func outputPaths(output, input string, formats []string) map[string]string {
	out := make(map[string]string, len(formats))
	if output != "" && len(formats) == 1 {
		out[formats[0]] = output
		return out
	}
	base := basePath(output, input)
	for _, f := range formats {
		out[f] = base + "." + f
	}
	return out
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input ("frames" for stdin).
// If output has a format extension (.svg, .pdf, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		if input == "-" {
			return "frames"
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func writeOutput(path string, data []byte) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
