package builtin

import (
	"github.com/matzehuels/structview/pkg/model"
)

// BucketType is the record type of hash table slots.
const BucketType = "bucket"

// hashTable stacks buckets in a column and runs each chain to the right.
type hashTable struct{}

func (hashTable) DefineOptions() model.Options {
	return model.Options{
		Node: map[string]model.NodeOption{
			BucketType: {
				Shape: "rect",
				Label: "[index]",
				Size:  [2]float64{40, 40},
				Style: model.Style{"stroke": "#333", "fill": "#ffd3b6"},
			},
			model.DefaultNodeType: {
				Shape: "link-list-node",
				Label: "[data]",
				Size:  [2]float64{60, 30},
				Style: model.Style{"stroke": "#333", "fill": "#eaffd0"},
			},
		},
		Link: map[string]model.LinkOption{
			"head": {Shape: "line", SourceAnchor: 1, TargetAnchor: 3, Style: edgeStyle},
			"next": {Shape: "line", SourceAnchor: 1, TargetAnchor: 3, Style: edgeStyle},
		},
		Marker: map[string]model.MarkerOption{
			"external": externalMarker,
			"cursor":   cursorMarker,
		},
		Layout: model.Params{"xInterval": 40.0, "yInterval": 30.0},
	}
}

func (hashTable) Layout(g *model.Group, params model.Params) error {
	var (
		xGap    = params.Float("xInterval", 40)
		yGap    = params.Float("yInterval", 30)
		visited = make(map[string]bool)
		y       float64
	)

	for _, b := range g.OfType(BucketType) {
		visited[b.ID] = true
		b.SetPosition(0, y+b.Height/2)
		y += b.Height
		walk(g, g.Next(b, "head"), b, "next", xGap, visited)
	}

	// Nodes no bucket reaches go in rows under the table.
	y += yGap
	for _, e := range g.Elements {
		if visited[e.ID] {
			continue
		}
		e.SetPosition(0, y+e.Height/2)
		walk(g, e, nil, "next", xGap, visited)
		y += e.Height + yGap
	}
	return nil
}
