package builtin

import (
	"github.com/matzehuels/structview/pkg/model"
	"github.com/matzehuels/structview/pkg/source"
)

// linkList lays out each list on its own row, heads at x = 0.
type linkList struct{}

func (linkList) DefineOptions() model.Options {
	return model.Options{
		Node: map[string]model.NodeOption{
			model.DefaultNodeType: {
				Shape: "link-list-node",
				Label: "[data]",
				Size:  [2]float64{60, 30},
				Style: model.Style{"stroke": "#333", "fill": "#eaffd0"},
			},
		},
		Link: map[string]model.LinkOption{
			"next":     {Shape: "line", SourceAnchor: 1, TargetAnchor: 3, Style: edgeStyle},
			"loopNext": {Shape: "quadratic", SourceAnchor: 2, TargetAnchor: 2, CurveOffset: -100, Style: edgeStyle},
		},
		Marker: map[string]model.MarkerOption{
			"external":     externalMarker,
			"rootExternal": {Kind: model.MarkerPointer, Anchor: 3, Offset: model.Float(8), Style: pointerStyle},
			"cursor":       cursorMarker,
		},
		Layout: model.Params{"xInterval": 50.0, "yInterval": 50.0},
	}
}

// Preprocess moves the head record's external pointer to the left side of
// the node so it does not collide with pointers to later nodes.
func (linkList) Preprocess(records []source.Record, _ model.Options) ([]source.Record, error) {
	if len(records) == 0 {
		return records, nil
	}
	head := records[0]
	if v, ok := head.Field("external"); ok {
		head.Fields["rootExternal"] = v
		delete(head.Fields, "external")
	}
	return records, nil
}

func (linkList) Layout(g *model.Group, params model.Params) error {
	var (
		xGap    = params.Float("xInterval", 50)
		yGap    = params.Float("yInterval", 50)
		visited = make(map[string]bool)
		y       float64
	)

	row := func(start *model.Element) {
		start.SetPosition(0, y)
		walk(g, start, nil, "next", xGap, visited)
		y += start.Height + yGap
	}

	for _, root := range g.Roots() {
		if !visited[root.ID] {
			row(root)
		}
	}
	// Cycles without a head and nodes only reachable through loopNext.
	for _, e := range g.Elements {
		if !visited[e.ID] {
			row(e)
		}
	}
	return nil
}
