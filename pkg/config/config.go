// Package config loads structview settings from TOML.
//
// A configuration file is optional; every field has a default. Values
// omitted from the file keep their defaults, and CLI flags override both.
//
//	[canvas]
//	width = 1024
//	height = 768
//
//	[compose]
//	policy = "flow-centered"
//
//	[layouts.linklist.layout]
//	xInterval = 80
package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/structview/pkg/cache"
	"github.com/matzehuels/structview/pkg/compose"
	"github.com/matzehuels/structview/pkg/engine"
	"github.com/matzehuels/structview/pkg/errors"
	"github.com/matzehuels/structview/pkg/model"
	"github.com/matzehuels/structview/pkg/render"
)

// Config is the root of a configuration file.
type Config struct {
	Canvas    Canvas                   `toml:"canvas"`
	Compose   Compose                  `toml:"compose"`
	Marker    Marker                   `toml:"marker"`
	Animation Animation                `toml:"animation"`
	Cache     Cache                    `toml:"cache"`
	Server    Server                   `toml:"server"`
	Watch     Watch                    `toml:"watch"`
	Layouts   map[string]model.Options `toml:"layouts"`
}

type Canvas struct {
	Width     float64 `toml:"width"`
	Height    float64 `toml:"height"`
	FitCenter *bool   `toml:"fit_center"`
}

type Compose struct {
	Policy         string   `toml:"policy"`
	GroupPadding   *float64 `toml:"group_padding"`
	LeakAreaHeight *float64 `toml:"leak_area_height"`
	LeakGap        *float64 `toml:"leak_gap"`
}

type Marker struct {
	Offset      *float64 `toml:"offset"`
	LabelOffset *float64 `toml:"label_offset"`
}

type Animation struct {
	Enable   *bool         `toml:"enable"`
	Duration time.Duration `toml:"duration"`
	Timing   string        `toml:"timing"`
}

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

type Cache struct {
	Backend   string        `toml:"backend"`
	Dir       string        `toml:"dir"`
	RedisAddr string        `toml:"redis_addr"`
	RedisDB   int           `toml:"redis_db"`
	Prefix    string        `toml:"prefix"`
	TTL       time.Duration `toml:"ttl"`
}

type Server struct {
	Addr        string        `toml:"addr"`
	SessionTTL  time.Duration `toml:"session_ttl"`
	MaxSessions int           `toml:"max_sessions"`
	MaxBody     int64         `toml:"max_body"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	Include  []string      `toml:"include"`
	Exclude  []string      `toml:"exclude"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the TOML file at path, applies defaults and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConf, err, "read config")
	}
	return Parse(string(data))
}

// Parse decodes TOML text, applies defaults and validates.
func Parse(text string) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConf, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		if !allUnderLayouts(keys) {
			return nil, errors.New(errors.ErrCodeInvalidConf, "unknown config keys: %s", strings.Join(keys, ", "))
		}
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Layout style maps are free-form and never count as unknown keys.
func allUnderLayouts(keys []string) bool {
	for _, k := range keys {
		if !strings.HasPrefix(k, "layouts.") {
			return false
		}
	}
	return true
}

func applyDefaults(cfg *Config) {
	if cfg.Canvas.Width == 0 {
		cfg.Canvas.Width = compose.DefaultWidth
	}
	if cfg.Canvas.Height == 0 {
		cfg.Canvas.Height = compose.DefaultHeight
	}
	if cfg.Canvas.FitCenter == nil {
		cfg.Canvas.FitCenter = ptr(true)
	}

	if strings.TrimSpace(cfg.Compose.Policy) == "" {
		cfg.Compose.Policy = string(compose.PolicyFlow)
	}
	if cfg.Compose.GroupPadding == nil {
		cfg.Compose.GroupPadding = ptr(compose.DefaultGroupPadding)
	}
	if cfg.Compose.LeakAreaHeight == nil {
		cfg.Compose.LeakAreaHeight = ptr(compose.DefaultLeakAreaHeight)
	}
	if cfg.Compose.LeakGap == nil {
		cfg.Compose.LeakGap = ptr(compose.DefaultLeakGap)
	}

	if cfg.Marker.Offset == nil {
		cfg.Marker.Offset = ptr(compose.DefaultMarkerOffset)
	}
	if cfg.Marker.LabelOffset == nil {
		cfg.Marker.LabelOffset = ptr(compose.DefaultLabelOffset)
	}

	if cfg.Animation.Enable == nil {
		cfg.Animation.Enable = ptr(render.DefaultAnimation.Enable)
	}
	if cfg.Animation.Duration == 0 {
		cfg.Animation.Duration = render.DefaultAnimation.Duration
	}
	if strings.TrimSpace(cfg.Animation.Timing) == "" {
		cfg.Animation.Timing = render.DefaultAnimation.Timing
	}

	if strings.TrimSpace(cfg.Cache.Backend) == "" {
		cfg.Cache.Backend = CacheFile
	}
	if strings.TrimSpace(cfg.Cache.Dir) == "" {
		cfg.Cache.Dir = defaultCacheDir()
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 24 * time.Hour
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.SessionTTL == 0 {
		cfg.Server.SessionTTL = 30 * time.Minute
	}
	if cfg.Server.MaxSessions == 0 {
		cfg.Server.MaxSessions = 256
	}
	if cfg.Server.MaxBody == 0 {
		cfg.Server.MaxBody = 4 << 20
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 200 * time.Millisecond
	}
	if len(cfg.Watch.Include) == 0 {
		cfg.Watch.Include = []string{"*.json"}
	}
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir + string(os.PathSeparator) + "structview"
	}
	return ".structview-cache"
}

// Validate checks values no default can repair.
func (c *Config) Validate() error {
	if err := c.Engine().Validate(); err != nil {
		return err
	}
	if *c.Marker.Offset < 0 || *c.Marker.LabelOffset < 0 {
		return errors.New(errors.ErrCodeInvalidConf, "marker offsets cannot be negative")
	}
	if c.Animation.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConf, "animation duration cannot be negative")
	}
	switch c.Cache.Backend {
	case CacheNone, CacheFile:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConf, "cache backend redis needs redis_addr")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConf, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Server.MaxSessions < 0 || c.Server.MaxBody < 0 {
		return errors.New(errors.ErrCodeInvalidConf, "server limits cannot be negative")
	}
	return nil
}

// ComposeConfig returns the composition settings.
func (c *Config) ComposeConfig() compose.Config {
	return compose.Config{
		GroupPadding:   *c.Compose.GroupPadding,
		LeakAreaHeight: *c.Compose.LeakAreaHeight,
		LeakGap:        *c.Compose.LeakGap,
		Policy:         compose.Policy(c.Compose.Policy),
		MarkerOffset:   *c.Marker.Offset,
		LabelOffset:    *c.Marker.LabelOffset,
		Width:          c.Canvas.Width,
		Height:         c.Canvas.Height,
		FitCenter:      *c.Canvas.FitCenter,
	}
}

// Engine converts the configuration to engine settings.
func (c *Config) Engine() engine.Config {
	return engine.Config{
		Compose: c.ComposeConfig(),
		Animation: render.Animation{
			Enable:   *c.Animation.Enable,
			Duration: c.Animation.Duration,
			Timing:   c.Animation.Timing,
		},
		Layouts: c.Layouts,
	}
}

// SceneKeyOpts returns the cache key options for scenes rendered with c.
func (c *Config) SceneKeyOpts() cache.SceneKeyOpts {
	cc := c.ComposeConfig()
	opts := cache.SceneKeyOpts{
		Width:          cc.Width,
		Height:         cc.Height,
		Policy:         string(cc.Policy),
		GroupPadding:   cc.GroupPadding,
		LeakAreaHeight: cc.LeakAreaHeight,
		LeakGap:        cc.LeakGap,
		MarkerOffset:   cc.MarkerOffset,
		LabelOffset:    cc.LabelOffset,
		FitCenter:      cc.FitCenter,
	}
	if len(c.Layouts) > 0 {
		var b strings.Builder
		if err := toml.NewEncoder(&b).Encode(c.Layouts); err == nil {
			opts.Layouts = cache.Hash([]byte(b.String()))
		}
	}
	return opts
}

func ptr[T any](v T) *T { return &v }
