package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ElementID derives the element id for a record of group.
func ElementID(group, sourceID string) string {
	return group + "(" + sourceID + ")"
}

// LinkID derives the id of the link named name from source to target.
// index is the position inside a multi-valued link field, or -1.
func LinkID(name, source, target string, index int) string {
	if index < 0 {
		return fmt.Sprintf("%s(%s->%s)", name, source, target)
	}
	return fmt.Sprintf("%s(%s->%s)#%d", name, source, target, index)
}

// MarkerID derives the id of the marker name labelled label in group.
// Markers are identified by label, not by target, so a pointer that
// moves to another element keeps its id.
func MarkerID(group, name, label string) string {
	return group + "#" + name + ":" + label
}

// AppendageID derives the id of an appendage of kind attached to element.
func AppendageID(element string, kind AppendageKind) string {
	return element + "#" + string(kind)
}

// Reincarnate returns the id used for an element whose base id has
// already leaked generation times. Generation 0 returns id unchanged.
func Reincarnate(id string, generation int) string {
	if generation <= 0 {
		return id
	}
	return id + "~" + strconv.Itoa(generation)
}

// BaseID strips a generation suffix added by [Reincarnate].
func BaseID(id string) string {
	i := strings.LastIndexByte(id, '~')
	if i < 0 || !strings.HasSuffix(id[:i], ")") {
		return id
	}
	if _, err := strconv.Atoi(id[i+1:]); err != nil {
		return id
	}
	return id[:i]
}

// SplitElementID returns the group and source id encoded in an element
// id, ignoring any generation suffix.
func SplitElementID(id string) (group, sourceID string, ok bool) {
	id = BaseID(id)
	open := strings.IndexByte(id, '(')
	if open <= 0 || !strings.HasSuffix(id, ")") {
		return "", "", false
	}
	return id[:open], id[open+1 : len(id)-1], true
}
