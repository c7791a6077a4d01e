// Package nodelink renders scenes as Graphviz node-link diagrams.
//
// [ToDOT] emits DOT with every element pinned to its composed position
// (neato `pos="x,y!"`), so external Graphviz tooling sees exactly the
// layout the engine produced. [RenderSVG] runs neato in-process through
// [github.com/goccy/go-graphviz]; PDF and PNG conversion requires librsvg
// (rsvg-convert).
//
//	dot := nodelink.ToDOT(scene, nodelink.Options{Markers: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
package nodelink
