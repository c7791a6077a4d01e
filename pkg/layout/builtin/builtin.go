// Package builtin provides the reference layout algorithms.
//
//   - linklist: singly linked lists, one row per head
//   - bintree: binary trees, in-order columns and depth rows
//   - hashtable: a bucket column with chains running right
//   - pctree: parent-child trees with a head table, split by Preprocess
//
// Use [Registry] to get a registry holding all of them, or [Register] to
// add them to an existing one.
package builtin

import (
	"github.com/matzehuels/structview/pkg/layout"
	"github.com/matzehuels/structview/pkg/model"
)

// Algorithm names.
const (
	LinkList  = "linklist"
	BinTree   = "bintree"
	HashTable = "hashtable"
	PCTree    = "pctree"
)

// Register adds every builtin algorithm to r.
func Register(r *layout.Registry) error {
	for name, alg := range map[string]layout.Algorithm{
		LinkList:  linkList{},
		BinTree:   binTree{},
		HashTable: hashTable{},
		PCTree:    pcTree{},
	} {
		if err := r.Register(name, alg); err != nil {
			return err
		}
	}
	return nil
}

// Registry returns a new registry holding the builtin algorithms.
func Registry() *layout.Registry {
	r := layout.NewRegistry()
	if err := Register(r); err != nil {
		panic(err)
	}
	return r
}

// Shared styles and options.
var (
	pointerStyle = model.Style{"fill": "#f08a5d"}
	edgeStyle    = model.Style{"stroke": "#333", "endArrow": "default"}

	externalMarker = model.MarkerOption{Kind: model.MarkerPointer, Anchor: 0, Offset: model.Float(8), Style: pointerStyle}
	cursorMarker   = model.MarkerOption{Kind: model.MarkerCursor, Anchor: 0, Style: pointerStyle}
)

// walk lays out the chain starting at start along links named name,
// one element after the other to the right of prev. Elements already in
// visited stop the walk.
func walk(g *model.Group, start, prev *model.Element, name string, gap float64, visited map[string]bool) {
	for e := start; e != nil && !visited[e.ID]; e = g.Next(e, name) {
		visited[e.ID] = true
		if prev != nil {
			e.SetPosition(prev.X+prev.Width/2+gap+e.Width/2, prev.Y)
		}
		prev = e
	}
}
