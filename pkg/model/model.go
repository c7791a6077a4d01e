package model

import (
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/structview/pkg/geom"
	"gonum.org/v1/gonum/spatial/r2"
)

// Kind names the concrete type behind a [Model].
type Kind string

const (
	KindElement   Kind = "element"
	KindLink      Kind = "link"
	KindMarker    Kind = "marker"
	KindAppendage Kind = "appendage"
)

// Model is the common view of every diagram model the reconciler and
// composer handle.
type Model interface {
	// ModelID returns the frame-stable id.
	ModelID() string
	// Kind returns the concrete model type.
	Kind() Kind
	// Bounds returns the model's bounding box. ok is false for models
	// without geometry of their own, such as links.
	Bounds() (r geom.Rect, ok bool)
	// Translate moves the model by (dx, dy).
	Translate(dx, dy float64)
	// Reset zeroes the position and reapplies the configured rotation.
	Reset()
	// Settle records the current position as the layout position.
	Settle()
	// Restore moves the model back to its last settled position.
	Restore()
	// Clone returns a deep copy.
	Clone() Model
}

// Element is a diagram node bound to one source record.
type Element struct {
	ID       string
	SourceID string
	Group    string
	Type     string
	Shape    string

	X, Y          float64
	Rotation      float64
	BaseRotation  float64
	Width, Height float64

	Style        Style
	AnchorPoints [][2]float64
	Label        string
	FontSize     float64

	Freed  bool
	Root   bool
	Leaked bool

	// Payload carries the record's fields for layouts and backends.
	Payload map[string]any

	// In and Out hold the ids of inbound and outbound links.
	In, Out []string

	// Markers maps marker field names to marker ids.
	Markers map[string]string

	LayoutX, LayoutY float64
}

func (e *Element) ModelID() string { return e.ID }
func (e *Element) Kind() Kind { return KindElement }

// Bounds returns the box centered on (X, Y), grown to cover the rotation.
func (e *Element) Bounds() (geom.Rect, bool) {
	r := geom.Rect{X: e.X - e.Width/2, Y: e.Y - e.Height/2, Width: e.Width, Height: e.Height}
	return r.Rotate(e.Rotation), true
}

// Box returns Bounds without the ok flag.
func (e *Element) Box() geom.Rect {
	r, _ := e.Bounds()
	return r
}

// Anchor returns the absolute position of anchor point i. ok is false
// when the element defines no such anchor.
func (e *Element) Anchor(i int) (r2.Vec, bool) {
	if i < 0 || i >= len(e.AnchorPoints) {
		return r2.Vec{}, false
	}
	a := e.AnchorPoints[i]
	return e.Box().At(a[0], a[1]), true
}

func (e *Element) Translate(dx, dy float64) {
	e.X += dx
	e.Y += dy
}

func (e *Element) Reset() {
	e.Rotation = e.BaseRotation
	e.X, e.Y = 0, 0
}

func (e *Element) Settle() { e.LayoutX, e.LayoutY = e.X, e.Y }
func (e *Element) Restore() { e.X, e.Y = e.LayoutX, e.LayoutY }

// SetPosition places the element's center at (x, y).
func (e *Element) SetPosition(x, y float64) { e.X, e.Y = x, y }

// Isolate detaches the element from every link and marker.
func (e *Element) Isolate() {
	e.In = nil
	e.Out = nil
	e.Markers = nil
}

func (e *Element) Clone() Model { return e.CloneElement() }

// CloneElement is Clone with the concrete type.
func (e *Element) CloneElement() *Element {
	c := *e
	c.Style = e.Style.Clone()
	c.AnchorPoints = slices.Clone(e.AnchorPoints)
	c.Payload = maps.Clone(e.Payload)
	c.In = slices.Clone(e.In)
	c.Out = slices.Clone(e.Out)
	c.Markers = maps.Clone(e.Markers)
	return &c
}

// Link is a directed edge between two elements of one group. Source and
// Target are element ids; either is "" once its element is isolated.
type Link struct {
	ID     string
	Name   string
	Group  string
	Source string
	Target string
	// Index is the position inside a multi-valued field, or -1.
	Index int

	Shape        string
	SourceAnchor int
	TargetAnchor int
	CurveOffset  float64
	Label        string
	Style        Style

	Leaked bool
}

func (l *Link) ModelID() string { return l.ID }
func (l *Link) Kind() Kind { return KindLink }
func (l *Link) Bounds() (geom.Rect, bool) { return geom.Rect{}, false }
func (l *Link) Translate(dx, dy float64) {}
func (l *Link) Reset() {}
func (l *Link) Settle() {}
func (l *Link) Restore() {}

func (l *Link) Clone() Model {
	c := *l
	c.Style = l.Style.Clone()
	return &c
}

// Marker is a pointer or cursor annotation bound to one target element.
type Marker struct {
	ID     string
	Name   string
	Type   MarkerKind
	Group  string
	Target string
	Anchor int
	Label  string

	X, Y          float64
	Rotation      float64
	Width, Height float64
	FontSize      float64
	Style         Style

	// Offset and LabelOffset override the composer defaults when set.
	Offset      *float64
	LabelOffset *float64

	// LabelEnd is the label position relative to (X, Y).
	LabelEnd r2.Vec

	LayoutX, LayoutY float64
}

func (m *Marker) ModelID() string { return m.ID }
func (m *Marker) Kind() Kind { return KindMarker }

func (m *Marker) Bounds() (geom.Rect, bool) {
	r := geom.Rect{X: m.X - m.Width/2, Y: m.Y - m.Height/2, Width: m.Width, Height: m.Height}
	return r.Rotate(m.Rotation), true
}

func (m *Marker) Translate(dx, dy float64) {
	m.X += dx
	m.Y += dy
}

func (m *Marker) Reset() {
	m.Rotation = 0
	m.X, m.Y = 0, 0
	m.LabelEnd = r2.Vec{}
}

func (m *Marker) Settle() { m.LayoutX, m.LayoutY = m.X, m.Y }
func (m *Marker) Restore() { m.X, m.Y = m.LayoutX, m.LayoutY }

func (m *Marker) Clone() Model {
	c := *m
	c.Style = m.Style.Clone()
	c.Offset = clonePtr(m.Offset)
	c.LabelOffset = clonePtr(m.LabelOffset)
	return &c
}

// JoinLabels renders a multi-label marker field the way it is displayed.
func JoinLabels(labels []string) string {
	return strings.Join(labels, ", ")
}

// AppendageKind names the text labels attached to elements.
type AppendageKind string

const (
	// AppendageFreed marks an element whose record was freed.
	AppendageFreed AppendageKind = "freed"
	// AppendageAddress shows the source id above a leaked element.
	AppendageAddress AppendageKind = "address"
)

// Appendage is a text label that follows one element.
type Appendage struct {
	ID      string
	Type    AppendageKind
	Group   string
	Element string
	Text    string

	X, Y  float64
	Width float64

	LayoutX, LayoutY float64
	Leaked           bool
}

func (a *Appendage) ModelID() string { return a.ID }
func (a *Appendage) Kind() Kind { return KindAppendage }

func (a *Appendage) Bounds() (geom.Rect, bool) {
	return geom.Rect{X: a.X - a.Width/2, Y: a.Y, Width: a.Width}, true
}

func (a *Appendage) Translate(dx, dy float64) {
	a.X += dx
	a.Y += dy
}

func (a *Appendage) Reset() { a.X, a.Y = 0, 0 }
func (a *Appendage) Settle() { a.LayoutX, a.LayoutY = a.X, a.Y }
func (a *Appendage) Restore() { a.X, a.Y = a.LayoutX, a.LayoutY }

func (a *Appendage) Clone() Model {
	c := *a
	return &c
}

// Place positions the appendage relative to its element's bounding box.
// Freed labels sit below the element, address labels above it.
func (a *Appendage) Place(box geom.Rect) {
	a.Width = box.Width
	a.X = box.CenterX()
	switch a.Type {
	case AppendageFreed:
		a.Y = box.Y + box.Height*1.5
	case AppendageAddress:
		a.Y = box.Y - 16
	}
}

var (
	_ Model = (*Element)(nil)
	_ Model = (*Link)(nil)
	_ Model = (*Marker)(nil)
	_ Model = (*Appendage)(nil)
)
