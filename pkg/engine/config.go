package engine

import (
	"maps"

	"github.com/matzehuels/structview/pkg/compose"
	"github.com/matzehuels/structview/pkg/model"
	"github.com/matzehuels/structview/pkg/render"
)

// Config holds engine settings. A zero Compose or Animation selects the
// defaults.
type Config struct {
	Compose   compose.Config
	Animation render.Animation
	// Layouts overrides the options a layout algorithm defines, keyed by
	// layout name.
	Layouts map[string]model.Options
}

// DefaultConfig returns the default engine settings.
func DefaultConfig() Config {
	return Config{
		Compose:   compose.DefaultConfig(),
		Animation: render.DefaultAnimation,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	return c.Compose.Validate()
}

func (c Config) clone() Config {
	out := c
	out.Layouts = maps.Clone(c.Layouts)
	for k, o := range out.Layouts {
		out.Layouts[k] = o.Clone()
	}
	return out
}
