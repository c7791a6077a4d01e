package model

import (
	"github.com/matzehuels/structview/pkg/geom"
)

// Group is one named bucket of models sharing a layout algorithm.
type Group struct {
	Name   string
	Layout string
	Hidden bool

	Elements   []*Element
	Links      []*Link
	Markers    []*Marker
	Appendages []*Appendage

	options  Options
	elements map[string]*Element
	links    map[string]*Link
}

// NewGroup returns an empty group holding its own copy of opts.
func NewGroup(name, layout string, opts Options) *Group {
	return &Group{
		Name:     name,
		Layout:   layout,
		options:  opts.Clone(),
		elements: make(map[string]*Element),
		links:    make(map[string]*Link),
	}
}

// Options returns a copy of the group's options.
func (g *Group) Options() Options { return g.options.Clone() }

// Params returns the layout parameters. Callers must not modify them.
func (g *Group) Params() Params { return g.options.Layout }

// MarkerOption returns the option a marker field was declared with.
func (g *Group) MarkerOption(name string) (MarkerOption, bool) {
	opt, ok := g.options.Marker[name]
	return opt, ok
}

// AddElement appends e. It reports false when the id is already taken.
func (g *Group) AddElement(e *Element) bool {
	if _, dup := g.elements[e.ID]; dup {
		return false
	}
	g.Elements = append(g.Elements, e)
	g.elements[e.ID] = e
	return true
}

// AddLink appends l and wires it into its endpoints' link lists.
func (g *Group) AddLink(l *Link) {
	g.Links = append(g.Links, l)
	g.links[l.ID] = l
	if src := g.elements[l.Source]; src != nil {
		src.Out = append(src.Out, l.ID)
	}
	if dst := g.elements[l.Target]; dst != nil {
		dst.In = append(dst.In, l.ID)
	}
}

// AddMarker appends m and registers it on its target.
func (g *Group) AddMarker(m *Marker) {
	g.Markers = append(g.Markers, m)
	if t := g.elements[m.Target]; t != nil {
		if t.Markers == nil {
			t.Markers = make(map[string]string)
		}
		t.Markers[m.Name] = m.ID
	}
}

// AddAppendage appends a.
func (g *Group) AddAppendage(a *Appendage) {
	g.Appendages = append(g.Appendages, a)
}

// Element returns the element with the given id, or nil.
func (g *Group) Element(id string) *Element { return g.elements[id] }

// Link returns the link with the given id, or nil.
func (g *Group) Link(id string) *Link { return g.links[id] }

// Follow returns the targets of e's outbound links named name, in field
// order.
func (g *Group) Follow(e *Element, name string) []*Element {
	var out []*Element
	for _, id := range e.Out {
		l := g.links[id]
		if l == nil || l.Name != name {
			continue
		}
		if t := g.elements[l.Target]; t != nil {
			out = append(out, t)
		}
	}
	return out
}

// Next returns the first target of e's outbound links named name.
func (g *Group) Next(e *Element, name string) *Element {
	if t := g.Follow(e, name); len(t) > 0 {
		return t[0]
	}
	return nil
}

// Child returns the target of e's link named name at multi-edge index i.
func (g *Group) Child(e *Element, name string, i int) *Element {
	for _, id := range e.Out {
		if l := g.links[id]; l != nil && l.Name == name && l.Index == i {
			return g.elements[l.Target]
		}
	}
	return nil
}

// Referrers returns the sources of e's inbound links named name.
// An empty name matches every link.
func (g *Group) Referrers(e *Element, name string) []*Element {
	var out []*Element
	for _, id := range e.In {
		l := g.links[id]
		if l == nil || (name != "" && l.Name != name) {
			continue
		}
		if s := g.elements[l.Source]; s != nil {
			out = append(out, s)
		}
	}
	return out
}

// OfType returns the elements whose record type is typ.
func (g *Group) OfType(typ string) []*Element {
	var out []*Element
	for _, e := range g.Elements {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// Roots returns the elements flagged as roots, or the elements without
// inbound links when none is flagged.
func (g *Group) Roots() []*Element {
	var flagged, orphans []*Element
	for _, e := range g.Elements {
		if e.Root {
			flagged = append(flagged, e)
		}
		if len(e.In) == 0 {
			orphans = append(orphans, e)
		}
	}
	if len(flagged) > 0 {
		return flagged
	}
	return orphans
}

// Models returns every model of the group: elements, links, markers and
// appendages, each in construction order.
func (g *Group) Models() []Model {
	out := make([]Model, 0, len(g.Elements)+len(g.Links)+len(g.Markers)+len(g.Appendages))
	for _, e := range g.Elements {
		out = append(out, e)
	}
	for _, l := range g.Links {
		out = append(out, l)
	}
	for _, m := range g.Markers {
		out = append(out, m)
	}
	for _, a := range g.Appendages {
		out = append(out, a)
	}
	return out
}

// Bounds returns the union bounding box of the group's models. ok is
// false for a group without geometry.
func (g *Group) Bounds() (geom.Rect, bool) {
	return Bounds(g.Models())
}

// Translate moves every model of the group.
func (g *Group) Translate(dx, dy float64) {
	for _, m := range g.Models() {
		m.Translate(dx, dy)
	}
}

// Bounds returns the union bounding box of models. ok is false when no
// model has geometry.
func Bounds(models []Model) (geom.Rect, bool) {
	var rects []geom.Rect
	for _, m := range models {
		if r, ok := m.Bounds(); ok {
			rects = append(rects, r)
		}
	}
	if len(rects) == 0 {
		return geom.Rect{}, false
	}
	return geom.Union(rects...), true
}
