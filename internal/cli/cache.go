package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/structview/pkg/cache"
	"github.com/matzehuels/structview/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the scene and artifact cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheStatsCommand())

	return cmd
}

// openFileCache opens the configured file cache. Other backends report
// ok == false after printing a warning.
func (c *CLI) openFileCache() (fc *cache.FileCache, ok bool, err error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, false, err
	}
	if cfg.Cache.Backend != config.CacheFile {
		printWarning("Cache backend %q is not managed by this command", cfg.Cache.Backend)
		return nil, false, nil
	}
	dir, err := cacheDir(cfg)
	if err != nil {
		return nil, false, fmt.Errorf("get cache dir: %w", err)
	}
	fc, err = cache.NewFileCache(dir)
	if err != nil {
		return nil, false, fmt.Errorf("open cache: %w", err)
	}
	return fc, true, nil
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var (
		expired bool
		kind    string
	)
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cached scenes and artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind != "" && kind != cache.KindScene && kind != cache.KindArtifact {
				return fmt.Errorf("unknown kind %q (want %s or %s)", kind, cache.KindScene, cache.KindArtifact)
			}
			fc, ok, err := c.openFileCache()
			if err != nil || !ok {
				return err
			}

			var count int
			if expired {
				count, err = fc.Prune(cmd.Context())
			} else {
				count, err = fc.Clear(cmd.Context(), kind)
			}
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo("Nothing to clear")
				return nil
			}
			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
	cmd.Flags().BoolVar(&expired, "expired", false, "only remove expired or unreadable entries")
	cmd.Flags().StringVar(&kind, "kind", "", "only remove entries of this kind (scene, artifact)")
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			dir, err := cacheDir(cfg)
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}

// cacheStatsCommand creates the "cache stats" subcommand.
func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count cached scenes and artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, ok, err := c.openFileCache()
			if err != nil || !ok {
				return err
			}
			stats, err := fc.Stats(cmd.Context())
			if err != nil {
				return err
			}
			printInfo("%s", cacheStatsLine(stats))
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
}

// cacheStatsLine formats stats as "2 scenes · 5 artifacts · 1 expired · 14.2 KiB".
func cacheStatsLine(s cache.FileStats) string {
	parts := []string{
		plural(s.Entries[cache.KindScene], "scene"),
		plural(s.Entries[cache.KindArtifact], "artifact"),
	}
	if s.Expired > 0 {
		parts = append(parts, fmt.Sprintf("%d expired", s.Expired))
	}
	parts = append(parts, formatBytes(s.Bytes))
	return strings.Join(parts, " · ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	v, suffix := float64(n)/unit, "KiB"
	if v >= unit {
		v, suffix = v/unit, "MiB"
	}
	return fmt.Sprintf("%.1f %s", v, suffix)
}

// cacheDir returns the file cache directory. An unset directory falls
// back to the XDG location (~/.cache/structview/).
func cacheDir(cfg *config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
