package builtin

import (
	"github.com/matzehuels/structview/pkg/model"
)

// binTree places nodes in in-order columns and depth rows. The "child"
// field holds [left, right]; null keeps a side empty.
type binTree struct{}

func (binTree) DefineOptions() model.Options {
	return model.Options{
		Node: map[string]model.NodeOption{
			model.DefaultNodeType: {
				Shape: "binary-tree-node",
				Label: "[data]",
				Size:  [2]float64{60, 30},
				Style: model.Style{"stroke": "#333", "fill": "#b1d6f5"},
			},
		},
		Link: map[string]model.LinkOption{
			"child": {Shape: "line", SourceAnchor: 2, TargetAnchor: 0, Style: edgeStyle},
		},
		Marker: map[string]model.MarkerOption{
			"external": externalMarker,
			"cursor":   cursorMarker,
		},
		Layout: model.Params{"xInterval": 20.0, "yInterval": 40.0},
	}
}

func (binTree) Layout(g *model.Group, params model.Params) error {
	var (
		xGap    = params.Float("xInterval", 20)
		yGap    = params.Float("yInterval", 40)
		visited = make(map[string]bool)
		x       float64
	)

	var inorder func(n *model.Element, depth int)
	inorder = func(n *model.Element, depth int) {
		if n == nil || visited[n.ID] {
			return
		}
		visited[n.ID] = true
		inorder(g.Child(n, "child", 0), depth+1)
		n.SetPosition(x+n.Width/2, float64(depth)*(n.Height+yGap))
		x += n.Width + xGap
		inorder(g.Child(n, "child", 1), depth+1)
	}

	for _, root := range g.Roots() {
		inorder(root, 0)
	}
	for _, e := range g.Elements {
		inorder(e, 0)
	}
	return nil
}
