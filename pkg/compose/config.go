package compose

import (
	"github.com/matzehuels/structview/pkg/errors"
)

// Policy selects how groups are placed vertically.
type Policy string

const (
	// PolicyFlow keeps each group's own vertical position.
	PolicyFlow Policy = "flow"
	// PolicyFlowCentered moves every group's padded box center to the
	// tallest group's center.
	PolicyFlowCentered Policy = "flow-centered"
)

// Default configuration values.
const (
	DefaultGroupPadding   = 20.0
	DefaultLeakAreaHeight = 150.0
	DefaultLeakGap        = 50.0
	DefaultMarkerOffset   = 8.0
	DefaultLabelOffset    = 2.0
	DefaultWidth          = 800.0
	DefaultHeight         = 600.0
)

// Config controls scene composition.
type Config struct {
	GroupPadding   float64
	LeakAreaHeight float64
	LeakGap        float64
	Policy         Policy
	MarkerOffset   float64
	LabelOffset    float64
	Width          float64
	Height         float64
	FitCenter      bool
}

// DefaultConfig returns the default composition settings.
func DefaultConfig() Config {
	return Config{
		GroupPadding:   DefaultGroupPadding,
		LeakAreaHeight: DefaultLeakAreaHeight,
		LeakGap:        DefaultLeakGap,
		Policy:         PolicyFlow,
		MarkerOffset:   DefaultMarkerOffset,
		LabelOffset:    DefaultLabelOffset,
		Width:          DefaultWidth,
		Height:         DefaultHeight,
		FitCenter:      true,
	}
}

// LeakAreaY returns the y coordinate of the leak strip's top edge.
func (c Config) LeakAreaY() float64 {
	return c.Height - c.LeakAreaHeight
}

// Validate checks the configuration for values composition cannot use.
func (c Config) Validate() error {
	switch c.Policy {
	case PolicyFlow, PolicyFlowCentered:
	default:
		return errors.New(errors.ErrCodeInvalidConf, "unknown composition policy %q", c.Policy)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidConf, "canvas size must be positive, got %vx%v", c.Width, c.Height)
	}
	if c.LeakAreaHeight < 0 || c.LeakAreaHeight > c.Height {
		return errors.New(errors.ErrCodeInvalidConf, "leak area height %v outside [0, %v]", c.LeakAreaHeight, c.Height)
	}
	if c.GroupPadding < 0 || c.LeakGap < 0 {
		return errors.New(errors.ErrCodeInvalidConf, "padding and leak gap cannot be negative")
	}
	return nil
}
