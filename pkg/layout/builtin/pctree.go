package builtin

import (
	"github.com/matzehuels/structview/pkg/model"
	"github.com/matzehuels/structview/pkg/source"
)

// Parent-child tree record types.
const (
	PCHeadType    = "PCTreeHead"
	PCPreHeadType = "PCTreePreHead"
	PCNodeType    = "PCTreeNode"
)

// pcTree draws the head table of a parent-child tree representation: one
// row per tree node holding its data cell and a child list running right.
type pcTree struct{}

func (pcTree) DefineOptions() model.Options {
	return model.Options{
		Node: map[string]model.NodeOption{
			PCPreHeadType: {
				Shape: "rect",
				Label: "[data]",
				Size:  [2]float64{60, 34},
				Style: model.Style{"stroke": "#333", "fill": "#95e1d3"},
			},
			PCHeadType: {
				Shape: "two-cell-node",
				Label: "[data]",
				Size:  [2]float64{120, 34},
				Style: model.Style{"stroke": "#333", "fill": "#95e1d3"},
			},
			PCNodeType: {
				Shape: "link-list-node",
				Label: "[data]",
				Size:  [2]float64{60, 27},
				Style: model.Style{"stroke": "#333", "fill": "#00af92"},
			},
		},
		Link: map[string]model.LinkOption{
			"headNext": {Shape: "line", SourceAnchor: 1, TargetAnchor: 3, Style: edgeStyle},
			"next":     {Shape: "line", SourceAnchor: 1, TargetAnchor: 3, Style: edgeStyle},
		},
		Marker: map[string]model.MarkerOption{
			"external": externalMarker,
			"cursor":   cursorMarker,
		},
		Layout: model.Params{"xInterval": 50.0, "yInterval": 86.0},
	}
}

// Preprocess splits every head record into the head itself and a data
// sub-record ("<id>_0") carrying the head's preData field.
func (pcTree) Preprocess(records []source.Record, _ model.Options) ([]source.Record, error) {
	out := records
	for _, r := range records {
		if r.Type != PCHeadType {
			continue
		}
		data := source.Record{
			ID:     r.ID + "_0",
			Type:   PCPreHeadType,
			Root:   r.Root,
			Fields: map[string]any{},
		}
		if v, ok := r.Field("preData"); ok {
			data.Fields["data"] = v
			delete(r.Fields, "preData")
		}
		if v, ok := r.Field("index"); ok {
			data.Fields["index"] = v
		}
		out = append(out, data)
	}
	return out, nil
}

func (pcTree) Layout(g *model.Group, params model.Params) error {
	var (
		xGap    = params.Float("xInterval", 50)
		yGap    = params.Float("yInterval", 86)
		visited = make(map[string]bool)
		heads   = g.OfType(PCHeadType)
	)
	if len(heads) == 0 {
		return nil
	}

	width, height := heads[0].Width, heads[0].Height
	for i, h := range heads {
		visited[h.ID] = true
		h.SetPosition(0, float64(2*i)*height)

		if pre := g.Element(model.ElementID(g.Name, h.SourceID+"_0")); pre != nil {
			visited[pre.ID] = true
			pre.SetPosition(-width/4, h.Y+height)
		}

		if first := g.Next(h, "headNext"); first != nil && !visited[first.ID] {
			first.SetPosition(width/2+2*xGap+first.Width/2, h.Y+height/2-first.Height/2)
			walk(g, first, nil, "next", xGap, visited)
		}
	}

	// Tree roots sit in a row above the head table.
	x := width/2 + 2*xGap
	for _, r := range g.OfType(PCNodeType) {
		if !r.Root || visited[r.ID] {
			continue
		}
		r.SetPosition(x+r.Width/2, heads[0].Y-yGap)
		walk(g, r, nil, "next", xGap, visited)
		x += r.Width + xGap
	}

	// Anything else lines up under the table.
	y := float64(2*len(heads))*height + yGap
	for _, e := range g.Elements {
		if visited[e.ID] {
			continue
		}
		e.SetPosition(0, y)
		walk(g, e, nil, "next", xGap, visited)
		y += e.Height + yGap
	}
	return nil
}
