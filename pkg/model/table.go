package model

// Table is the ordered set of groups built for one frame. It also acts
// as the id-keyed arena for cross references.
type Table struct {
	groups []*Group
	byName map[string]*Group
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{byName: make(map[string]*Group)}
}

// Add appends g. It reports false when a group of that name exists.
func (t *Table) Add(g *Group) bool {
	if _, dup := t.byName[g.Name]; dup {
		return false
	}
	t.groups = append(t.groups, g)
	t.byName[g.Name] = g
	return true
}

// Groups returns the groups in composition order.
func (t *Table) Groups() []*Group { return t.groups }

// Visible returns the groups that are not hidden.
func (t *Table) Visible() []*Group {
	var out []*Group
	for _, g := range t.groups {
		if !g.Hidden {
			out = append(out, g)
		}
	}
	return out
}

// Group returns the named group, or nil.
func (t *Table) Group(name string) *Group { return t.byName[name] }

// Element resolves an element id across all groups.
func (t *Table) Element(id string) *Element {
	if group, _, ok := SplitElementID(id); ok {
		if g := t.byName[group]; g != nil {
			return g.Element(id)
		}
	}
	return nil
}

// Models flattens the table in group order.
func (t *Table) Models() []Model {
	var out []Model
	for _, g := range t.groups {
		out = append(out, g.Models()...)
	}
	return out
}

// Len returns the total element count.
func (t *Table) Len() int {
	n := 0
	for _, g := range t.groups {
		n += len(g.Elements)
	}
	return n
}
