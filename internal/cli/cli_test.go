package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/structview/pkg/cache"
	"github.com/matzehuels/structview/pkg/config"
	"github.com/matzehuels/structview/pkg/errors"
)

func TestRootCommand(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	root := c.RootCommand()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	require.Subset(t, names, []string{"render", "watch", "step", "serve", "layouts", "cache", "completion"})
	require.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sv.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[canvas]
width = 1024

[compose]
policy = "flow-centered"
`), 0o644))

	c := New(&bytes.Buffer{}, LogDebug)
	c.configPath = path
	cfg, err := c.loadConfig()
	require.NoError(t, err)
	require.Equal(t, 1024.0, cfg.Canvas.Width)
	require.Equal(t, "flow-centered", cfg.Compose.Policy)

	again, err := c.loadConfig()
	require.NoError(t, err)
	require.Same(t, cfg, again)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte(`[compose]
policy = "diagonal"
`), 0o644))

	c := New(&bytes.Buffer{}, LogInfo)
	c.configPath = path
	_, err := c.loadConfig()
	require.True(t, errors.Is(err, errors.ErrCodeInvalidConf), "err = %v", err)
}

func TestLoadConfigDefault(t *testing.T) {
	t.Chdir(t.TempDir())

	c := New(&bytes.Buffer{}, LogInfo)
	cfg, err := c.loadConfig()
	require.NoError(t, err)
	require.Equal(t, config.Default().Canvas, cfg.Canvas)
}

func TestNewCache(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	cfg.Cache.Dir = t.TempDir()

	cfg.Cache.Backend = config.CacheFile
	c, err := newCache(ctx, cfg, false)
	require.NoError(t, err)
	require.IsType(t, &cache.FileCache{}, c)

	c, err = newCache(ctx, cfg, true)
	require.NoError(t, err)
	require.IsType(t, &cache.NullCache{}, c)

	cfg.Cache.Backend = config.CacheNone
	c, err = newCache(ctx, cfg, false)
	require.NoError(t, err)
	require.IsType(t, &cache.NullCache{}, c)
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	c.Logger.Debug("hidden")
	require.Zero(t, buf.Len())

	c.SetLogLevel(log.DebugLevel)
	c.Logger.Debug("shown")
	require.Contains(t, buf.String(), "shown")
}
