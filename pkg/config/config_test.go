package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/structview/pkg/compose"
	"github.com/matzehuels/structview/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if diff := cmp.Diff(compose.DefaultConfig(), cfg.ComposeConfig()); diff != "" {
		t.Errorf("compose config (-want +got):\n%s", diff)
	}
	eng := cfg.Engine()
	if !eng.Animation.Enable || eng.Animation.Duration != 750*time.Millisecond {
		t.Errorf("animation = %+v", eng.Animation)
	}
	if cfg.Cache.Backend != CacheFile || cfg.Server.Addr != ":8080" {
		t.Errorf("cache %q, server %q", cfg.Cache.Backend, cfg.Server.Addr)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse(`
[canvas]
width = 1024
height = 768
fit_center = false

[compose]
policy = "flow-centered"
group_padding = 0

[animation]
enable = false
duration = "1.5s"

[cache]
backend = "redis"
redis_addr = "localhost:6379"
ttl = "1h"

[watch]
debounce = "50ms"
include = ["*.json", "*.ndjson"]

[layouts.linklist.layout]
xInterval = 80

[layouts.linklist.node.default]
size = [80, 40]
style = { fill = "#fff" }
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cc := cfg.ComposeConfig()
	if cc.Width != 1024 || cc.Height != 768 || cc.FitCenter {
		t.Errorf("canvas = %vx%v fit %v", cc.Width, cc.Height, cc.FitCenter)
	}
	if cc.Policy != compose.PolicyFlowCentered {
		t.Errorf("policy = %q", cc.Policy)
	}
	if cc.GroupPadding != 0 {
		t.Errorf("explicit zero padding overridden: %v", cc.GroupPadding)
	}
	if cc.LeakAreaHeight != compose.DefaultLeakAreaHeight {
		t.Errorf("leak area default not applied: %v", cc.LeakAreaHeight)
	}

	eng := cfg.Engine()
	if eng.Animation.Enable || eng.Animation.Duration != 1500*time.Millisecond {
		t.Errorf("animation = %+v", eng.Animation)
	}
	if eng.Animation.Timing != "easePolyOut" {
		t.Errorf("timing default not applied: %q", eng.Animation.Timing)
	}

	ll, ok := eng.Layouts["linklist"]
	if !ok {
		t.Fatal("layout override missing")
	}
	if got := ll.Layout.Float("xInterval", 0); got != 80 {
		t.Errorf("xInterval = %v, want 80", got)
	}
	if got := ll.Node["default"].Size; got != [2]float64{80, 40} {
		t.Errorf("node size = %v", got)
	}
	if got := ll.Node["default"].Style.String("fill"); got != "#fff" {
		t.Errorf("node fill = %q", got)
	}

	if cfg.Cache.TTL != time.Hour || cfg.Watch.Debounce != 50*time.Millisecond {
		t.Errorf("durations: ttl %v debounce %v", cfg.Cache.TTL, cfg.Watch.Debounce)
	}
	if diff := cmp.Diff([]string{"*.json", "*.ndjson"}, cfg.Watch.Include); diff != "" {
		t.Errorf("include (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"syntax", `[canvas`},
		{"unknown key", "[canvas]\ndepth = 3"},
		{"unknown policy", "[compose]\npolicy = \"grid\""},
		{"negative size", "[canvas]\nwidth = -1"},
		{"leak area too tall", "[canvas]\nheight = 100\n[compose]\nleak_area_height = 200"},
		{"negative offset", "[marker]\noffset = -1"},
		{"redis without addr", "[cache]\nbackend = \"redis\""},
		{"unknown backend", "[cache]\nbackend = \"memcached\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if !errors.Is(err, errors.ErrCodeInvalidConf) {
				t.Errorf("Parse err = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "structview.toml")
	if err := os.WriteFile(path, []byte("[canvas]\nwidth = 640\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Canvas.Width != 640 || cfg.Canvas.Height != compose.DefaultHeight {
		t.Errorf("canvas = %vx%v", cfg.Canvas.Width, cfg.Canvas.Height)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, errors.ErrCodeInvalidConf) {
		t.Errorf("Load missing err = %v", err)
	}
}

func TestSceneKeyOpts(t *testing.T) {
	a := Default().SceneKeyOpts()
	if a.Layouts != "" {
		t.Errorf("no overrides should leave Layouts empty: %q", a.Layouts)
	}

	cfg, err := Parse("[layouts.bintree.layout]\nyInterval = 10\n")
	if err != nil {
		t.Fatal(err)
	}
	b := cfg.SceneKeyOpts()
	if b.Layouts == "" {
		t.Error("overrides should be hashed into the key")
	}
	if b.Width != a.Width || b.Policy != a.Policy {
		t.Errorf("unexpected key options: %+v vs %+v", a, b)
	}
}
