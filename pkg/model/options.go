package model

import (
	"maps"
	"slices"
)

// DefaultNodeType is the node option key used when a record has no type
// or its type has no entry of its own.
const DefaultNodeType = "default"

// Default element and marker sizes.
var (
	DefaultNodeSize    = [2]float64{60, 30}
	DefaultPointerSize = [2]float64{8, 30}
	DefaultCursorSize  = [2]float64{12, 12}
)

// DefaultAnchorPoints are the top, right, bottom and left edge midpoints,
// relative to the element's bounding box.
var DefaultAnchorPoints = [][2]float64{{0.5, 0}, {1, 0.5}, {0.5, 1}, {0, 0.5}}

// DefaultFontSize is the label font size when no option sets one.
const DefaultFontSize = 16

// MarkerKind distinguishes marker shapes.
type MarkerKind string

const (
	MarkerPointer MarkerKind = "pointer"
	MarkerCursor  MarkerKind = "cursor"
)

// NodeOption configures the elements built for one record type.
type NodeOption struct {
	Shape        string       `json:"shape,omitempty" toml:"shape"`
	Size         [2]float64   `json:"size,omitempty" toml:"size"`
	Rotation     float64      `json:"rotation,omitempty" toml:"rotation"`
	Label        string       `json:"label,omitempty" toml:"label"`
	FontSize     float64      `json:"font_size,omitempty" toml:"font_size"`
	AnchorPoints [][2]float64 `json:"anchor_points,omitempty" toml:"anchor_points"`
	Style        Style        `json:"style,omitempty" toml:"style"`
}

// LinkOption configures the links built from one record field.
type LinkOption struct {
	Shape        string  `json:"shape,omitempty" toml:"shape"`
	SourceAnchor int     `json:"source_anchor" toml:"source_anchor"`
	TargetAnchor int     `json:"target_anchor" toml:"target_anchor"`
	CurveOffset  float64 `json:"curve_offset,omitempty" toml:"curve_offset"`
	Label        string  `json:"label,omitempty" toml:"label"`
	Style        Style   `json:"style,omitempty" toml:"style"`
}

// MarkerOption configures the markers built from one record field.
// Nil Offset and LabelOffset fall back to the composer's defaults.
type MarkerOption struct {
	Kind        MarkerKind `json:"kind" toml:"kind"`
	Anchor      int        `json:"anchor" toml:"anchor"`
	Offset      *float64   `json:"offset,omitempty" toml:"offset"`
	LabelOffset *float64   `json:"label_offset,omitempty" toml:"label_offset"`
	Size        [2]float64 `json:"size,omitempty" toml:"size"`
	FontSize    float64    `json:"font_size,omitempty" toml:"font_size"`
	Style       Style      `json:"style,omitempty" toml:"style"`
}

// Options describes how one group's records become models. Link and
// Marker are keyed by the record field that declares them.
type Options struct {
	Node   map[string]NodeOption   `json:"node" toml:"node"`
	Link   map[string]LinkOption   `json:"link,omitempty" toml:"link"`
	Marker map[string]MarkerOption `json:"marker,omitempty" toml:"marker"`
	Layout Params                  `json:"layout,omitempty" toml:"layout"`
}

// NodeFor returns the node option for a record type, falling back to the
// default entry and then to the built-in defaults.
func (o Options) NodeFor(typ string) NodeOption {
	opt, ok := o.Node[typ]
	if !ok {
		opt, ok = o.Node[DefaultNodeType]
	}
	if !ok {
		opt = NodeOption{}
	}
	if opt.Size == [2]float64{} {
		opt.Size = DefaultNodeSize
	}
	if len(opt.AnchorPoints) == 0 {
		opt.AnchorPoints = DefaultAnchorPoints
	}
	if opt.FontSize == 0 {
		opt.FontSize = DefaultFontSize
	}
	return opt
}

// LinkFields returns the declared link field names in sorted order.
func (o Options) LinkFields() []string {
	return slices.Sorted(maps.Keys(o.Link))
}

// MarkerFields returns the declared marker field names in sorted order.
func (o Options) MarkerFields() []string {
	return slices.Sorted(maps.Keys(o.Marker))
}

// Clone returns a deep copy of o.
func (o Options) Clone() Options {
	c := Options{
		Node:   make(map[string]NodeOption, len(o.Node)),
		Link:   make(map[string]LinkOption, len(o.Link)),
		Marker: make(map[string]MarkerOption, len(o.Marker)),
		Layout: o.Layout.Clone(),
	}
	for k, v := range o.Node {
		v.AnchorPoints = slices.Clone(v.AnchorPoints)
		v.Style = v.Style.Clone()
		c.Node[k] = v
	}
	for k, v := range o.Link {
		v.Style = v.Style.Clone()
		c.Link[k] = v
	}
	for k, v := range o.Marker {
		v.Offset = clonePtr(v.Offset)
		v.LabelOffset = clonePtr(v.LabelOffset)
		v.Style = v.Style.Clone()
		c.Marker[k] = v
	}
	return c
}

// Merge returns a copy of o with the entries of override laid on top.
// Node, link and marker entries are replaced whole; layout parameters are
// merged key by key.
func (o Options) Merge(override Options) Options {
	c := o.Clone()
	oc := override.Clone()
	if c.Node == nil && len(oc.Node) > 0 {
		c.Node = map[string]NodeOption{}
	}
	if c.Link == nil && len(oc.Link) > 0 {
		c.Link = map[string]LinkOption{}
	}
	if c.Marker == nil && len(oc.Marker) > 0 {
		c.Marker = map[string]MarkerOption{}
	}
	if c.Layout == nil && len(oc.Layout) > 0 {
		c.Layout = Params{}
	}
	maps.Copy(c.Node, oc.Node)
	maps.Copy(c.Link, oc.Link)
	maps.Copy(c.Marker, oc.Marker)
	maps.Copy(c.Layout, oc.Layout)
	return c
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Float returns a pointer to v, for optional option fields.
func Float(v float64) *float64 { return &v }
