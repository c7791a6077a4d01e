package builtin

import (
	"testing"

	"github.com/matzehuels/structview/pkg/layout"
	"github.com/matzehuels/structview/pkg/model"
	"github.com/matzehuels/structview/pkg/source"
)

// node describes one element of a hand-built test group.
type node struct {
	id, typ string
	root    bool
}

// edge describes one link of a hand-built test group.
type edge struct {
	name     string
	from, to string
	index    int
}

func build(t *testing.T, alg layout.Algorithm, name string, nodes []node, edges []edge) *model.Group {
	t.Helper()
	opts := alg.DefineOptions()
	g := model.NewGroup(name, "", opts)
	for _, n := range nodes {
		opt := opts.NodeFor(n.typ)
		e := &model.Element{
			ID:       model.ElementID(name, n.id),
			SourceID: n.id,
			Group:    name,
			Type:     n.typ,
			Width:    opt.Size[0],
			Height:   opt.Size[1],
			Root:     n.root,
		}
		if !g.AddElement(e) {
			t.Fatalf("duplicate node %q", n.id)
		}
	}
	for _, e := range edges {
		src, dst := model.ElementID(name, e.from), model.ElementID(name, e.to)
		g.AddLink(&model.Link{ID: model.LinkID(e.name, src, dst, e.index), Name: e.name, Source: src, Target: dst, Index: e.index})
	}
	return g
}

func pos(g *model.Group, id string) (float64, float64) {
	e := g.Element(model.ElementID(g.Name, id))
	return e.X, e.Y
}

func TestRegistry(t *testing.T) {
	r := Registry()
	for _, name := range []string{LinkList, BinTree, HashTable, PCTree} {
		if _, ok := r.Get(name); !ok {
			t.Errorf("builtin %q not registered", name)
		}
	}
	if err := Register(r); err == nil {
		t.Error("registering builtins twice should fail")
	}
}

func TestLinkList(t *testing.T) {
	alg := linkList{}
	g := build(t, alg, "list",
		[]node{{id: "1"}, {id: "2"}, {id: "3"}, {id: "9"}},
		[]edge{{"next", "1", "2", -1}, {"next", "2", "3", -1}},
	)
	if err := alg.Layout(g, g.Params()); err != nil {
		t.Fatalf("Layout: %v", err)
	}

	tests := []struct {
		id   string
		x, y float64
	}{
		{"1", 0, 0},
		{"2", 110, 0},
		{"3", 220, 0},
		{"9", 0, 80},
	}
	for _, tt := range tests {
		if x, y := pos(g, tt.id); x != tt.x || y != tt.y {
			t.Errorf("node %s at (%v, %v), want (%v, %v)", tt.id, x, y, tt.x, tt.y)
		}
	}
}

func TestLinkListCycle(t *testing.T) {
	alg := linkList{}
	g := build(t, alg, "ring",
		[]node{{id: "a"}, {id: "b"}},
		[]edge{{"next", "a", "b", -1}, {"next", "b", "a", -1}},
	)
	if err := alg.Layout(g, g.Params()); err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if x, _ := pos(g, "b"); x != 110 {
		t.Errorf("b.x = %v, want 110", x)
	}
}

func TestLinkListPreprocess(t *testing.T) {
	records := []source.Record{
		{ID: "1", Fields: map[string]any{"external": "head"}},
		{ID: "2", Fields: map[string]any{"external": "tail"}},
	}
	out, err := linkList{}.Preprocess(records, model.Options{})
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if _, ok := out[0].Fields["external"]; ok {
		t.Error("head keeps its external field")
	}
	if out[0].Fields["rootExternal"] != "head" {
		t.Errorf("rootExternal = %v, want head", out[0].Fields["rootExternal"])
	}
	if out[1].Fields["external"] != "tail" {
		t.Error("non-head record was rewritten")
	}
}

func TestBinTree(t *testing.T) {
	alg := binTree{}
	//      2
	//     / \
	//    1   3
	//         \
	//          4
	g := build(t, alg, "tree",
		[]node{{id: "2", root: true}, {id: "1"}, {id: "3"}, {id: "4"}},
		[]edge{{"child", "2", "1", 0}, {"child", "2", "3", 1}, {"child", "3", "4", 1}},
	)
	if err := alg.Layout(g, g.Params()); err != nil {
		t.Fatalf("Layout: %v", err)
	}

	tests := []struct {
		id   string
		x, y float64
	}{
		{"1", 30, 70},
		{"2", 110, 0},
		{"3", 190, 70},
		{"4", 270, 140},
	}
	for _, tt := range tests {
		if x, y := pos(g, tt.id); x != tt.x || y != tt.y {
			t.Errorf("node %s at (%v, %v), want (%v, %v)", tt.id, x, y, tt.x, tt.y)
		}
	}
}

func TestHashTable(t *testing.T) {
	alg := hashTable{}
	g := build(t, alg, "ht",
		[]node{{id: "b0", typ: BucketType}, {id: "b1", typ: BucketType}, {id: "x"}, {id: "y"}, {id: "z"}},
		[]edge{{"head", "b0", "x", -1}, {"next", "x", "y", -1}},
	)
	if err := alg.Layout(g, g.Params()); err != nil {
		t.Fatalf("Layout: %v", err)
	}

	tests := []struct {
		id   string
		x, y float64
	}{
		{"b0", 0, 20},
		{"b1", 0, 60},
		{"x", 90, 20},
		{"y", 190, 20},
		{"z", 0, 125},
	}
	for _, tt := range tests {
		if x, y := pos(g, tt.id); x != tt.x || y != tt.y {
			t.Errorf("node %s at (%v, %v), want (%v, %v)", tt.id, x, y, tt.x, tt.y)
		}
	}
}

func TestPCTreePreprocess(t *testing.T) {
	records := []source.Record{
		{ID: "h0", Type: PCHeadType, Root: true, Fields: map[string]any{"preData": "A", "index": 0}},
		{ID: "n1", Type: PCNodeType, Fields: map[string]any{}},
	}
	out, err := pcTree{}.Preprocess(records, model.Options{})
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d records, want 3", len(out))
	}
	data := out[2]
	if data.ID != "h0_0" || data.Type != PCPreHeadType || !data.Root {
		t.Errorf("data sub-record = %+v", data)
	}
	if data.Fields["data"] != "A" || data.Fields["index"] != 0 {
		t.Errorf("data fields = %v", data.Fields)
	}
	if _, ok := out[0].Fields["preData"]; ok {
		t.Error("head keeps preData")
	}
}

func TestPCTreeLayout(t *testing.T) {
	alg := pcTree{}
	g := build(t, alg, "pc",
		[]node{
			{id: "h0", typ: PCHeadType}, {id: "h0_0", typ: PCPreHeadType},
			{id: "h1", typ: PCHeadType}, {id: "h1_0", typ: PCPreHeadType},
			{id: "c1", typ: PCNodeType}, {id: "c2", typ: PCNodeType},
			{id: "r", typ: PCNodeType, root: true},
		},
		[]edge{{"headNext", "h0", "c1", -1}, {"next", "c1", "c2", -1}},
	)
	if err := alg.Layout(g, g.Params()); err != nil {
		t.Fatalf("Layout: %v", err)
	}

	if _, y := pos(g, "h1"); y != 68 {
		t.Errorf("h1.y = %v, want 68", y)
	}
	if x, y := pos(g, "h0_0"); x != -30 || y != 34 {
		t.Errorf("h0_0 at (%v, %v), want (-30, 34)", x, y)
	}
	c1x, c1y := pos(g, "c1")
	if c1x != 190 || c1y != 3.5 {
		t.Errorf("c1 at (%v, %v), want (190, 3.5)", c1x, c1y)
	}
	if x, y := pos(g, "c2"); x != c1x+110 || y != c1y {
		t.Errorf("c2 at (%v, %v), want (%v, %v)", x, y, c1x+110, c1y)
	}
	if x, y := pos(g, "r"); x != 190 || y != -86 {
		t.Errorf("root at (%v, %v), want (190, -86)", x, y)
	}
}
