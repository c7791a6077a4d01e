package cli

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/structview/internal/watch"
	"github.com/matzehuels/structview/pkg/errors"
)

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "watch [path...]",
		Short: "Re-render frame files whenever they change",
		Long: `Watch frame files or directories and re-render on change.

Directories are watched recursively; files are filtered by the include and
exclude patterns of the [watch] config section (default: *.json). With
--output, artifacts are written into that directory instead of next to the
frame file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd.Context(), args, &flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *CLI) runWatch(ctx context.Context, paths []string, flags *renderFlags) error {
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
		return err
	}
	defer runner.Close()

	outDir := flags.output
	renderOne := func(path string) {
		out := ""
		if outDir != "" {
			out = filepath.Join(outDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		}
		res, err := renderFile(ctx, runner, path, out, opts)
		if err != nil {
			// A broken frame file is expected while editing; keep watching.
			printError("%s: %s", path, errors.UserMessage(err))
			return
		}
		printSuccess("Rendered %s", path)
		for _, p := range res.paths {
			printFile(p)
		}
		printSceneStats(res.result.Stats, res.result.Step, res.cached())
	}

	w, err := watch.New(watch.Options{
		Debounce: cfg.Watch.Debounce,
		Include:  cfg.Watch.Include,
		Exclude:  cfg.Watch.Exclude,
		Logger:   c.Logger,
	}, func(changed []string) {
		for _, p := range changed {
			renderOne(p)
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()

	var initial []string
	for _, p := range paths {
		if err := w.Add(p); err != nil {
			return err
		}
		found, err := matchingFiles(w, p)
		if err != nil {
			return err
		}
		initial = append(initial, found...)
	}
	for _, p := range initial {
		renderOne(p)
	}

	printInfo("Watching %d path(s), press Ctrl+C to stop", len(paths))
	if err := w.Run(ctx); err != nil && !stderrors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// matchingFiles lists the frame files below root that the watcher would
// react to. A file root is returned as is.
func matchingFiles(w *watch.Watcher, root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	var out []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && w.Matches(path) {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}
