package render

import (
	"time"

	"github.com/matzehuels/structview/pkg/model"
)

// Item is a drawable snapshot of one model.
type Item struct {
	ID       string      `json:"id"`
	Kind     model.Kind  `json:"kind"`
	Type     string      `json:"type,omitempty"`
	Shape    string      `json:"shape,omitempty"`
	Group    string      `json:"group,omitempty"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Rotation float64     `json:"rotation,omitempty"`
	Width    float64     `json:"width"`
	Height   float64     `json:"height"`
	Style    model.Style `json:"style,omitempty"`
	Label    string      `json:"label,omitempty"`
	FontSize float64     `json:"font_size,omitempty"`

	// Links only.
	Source       string  `json:"source,omitempty"`
	Target       string  `json:"target,omitempty"`
	SourceAnchor int     `json:"source_anchor,omitempty"`
	TargetAnchor int     `json:"target_anchor,omitempty"`
	CurveOffset  float64 `json:"curve_offset,omitempty"`

	// Markers and appendages: the element they belong to.
	Owner string `json:"owner,omitempty"`
	// Markers only: label position relative to (X, Y).
	LabelDX float64 `json:"label_dx,omitempty"`
	LabelDY float64 `json:"label_dy,omitempty"`

	AnchorPoints [][2]float64 `json:"anchor_points,omitempty"`

	Freed  bool `json:"freed,omitempty"`
	Leaked bool `json:"leaked,omitempty"`
}

// ItemOf snapshots m.
func ItemOf(m model.Model) Item {
	switch v := m.(type) {
	case *model.Element:
		return Item{
			ID: v.ID, Kind: model.KindElement, Type: v.Type, Shape: v.Shape, Group: v.Group,
			X: v.X, Y: v.Y, Rotation: v.Rotation, Width: v.Width, Height: v.Height,
			Style: v.Style.Clone(), Label: v.Label, FontSize: v.FontSize,
			AnchorPoints: v.AnchorPoints,
			Freed:        v.Freed, Leaked: v.Leaked,
		}
	case *model.Link:
		return Item{
			ID: v.ID, Kind: model.KindLink, Type: v.Name, Shape: v.Shape, Group: v.Group,
			Style: v.Style.Clone(), Label: v.Label,
			Source: v.Source, Target: v.Target,
			SourceAnchor: v.SourceAnchor, TargetAnchor: v.TargetAnchor, CurveOffset: v.CurveOffset,
			Leaked: v.Leaked,
		}
	case *model.Marker:
		return Item{
			ID: v.ID, Kind: model.KindMarker, Type: v.Name, Shape: string(v.Type), Group: v.Group,
			X: v.X, Y: v.Y, Rotation: v.Rotation, Width: v.Width, Height: v.Height,
			Style: v.Style.Clone(), Label: v.Label, FontSize: v.FontSize,
			Owner: v.Target, LabelDX: v.LabelEnd.X, LabelDY: v.LabelEnd.Y,
		}
	case *model.Appendage:
		return Item{
			ID: v.ID, Kind: model.KindAppendage, Type: string(v.Type), Group: v.Group,
			X: v.X, Y: v.Y, Width: v.Width, Label: v.Text, Owner: v.Element,
			Leaked: v.Leaked,
		}
	default:
		return Item{ID: m.ModelID(), Kind: m.Kind()}
	}
}

// Patch lists model ids per reconciliation bucket.
type Patch struct {
	Add            []string `json:"add"`
	Remove         []string `json:"remove"`
	Leaked         []string `json:"leaked"`
	AccumulateLeak []string `json:"accumulate_leak"`
}

// Empty reports whether the patch changes nothing on screen.
// Accumulated leaks are always present and do not count.
func (p Patch) Empty() bool {
	return len(p.Add) == 0 && len(p.Remove) == 0 && len(p.Leaked) == 0
}

// Scene is the complete output of one render pass.
type Scene struct {
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	LeakAreaY float64 `json:"leak_area_y"`
	HasLeak   bool    `json:"has_leak"`
	Items     []Item  `json:"items"`
	Patch     Patch   `json:"patch"`
}

// Item returns the item with the given id.
func (s *Scene) Item(id string) (Item, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Op is the kind of change an instruction asks a backend to animate.
type Op string

const (
	OpEnter  Op = "enter"
	OpExit   Op = "exit"
	OpRetain Op = "retain"
	OpLeak   Op = "leak"
)

// Animation carries the animation settings backends should apply.
type Animation struct {
	Enable   bool          `json:"enable" toml:"enable"`
	Duration time.Duration `json:"duration" toml:"duration"`
	Timing   string        `json:"timing" toml:"timing"`
}

// DefaultAnimation is used when none is configured.
var DefaultAnimation = Animation{Enable: true, Duration: 750 * time.Millisecond, Timing: "easePolyOut"}

// Instruction tells a backend what to do with one item.
type Instruction struct {
	Op        Op
	Item      Item
	Animation Animation
}

// Backend draws instructions. Apply must not block on animation; items
// are snapshots and stay valid after Apply returns.
type Backend interface {
	Apply(ins Instruction)
}
