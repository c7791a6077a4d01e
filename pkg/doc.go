// Package pkg provides the core libraries for structview data-structure
// visualization.
//
// # Overview
//
// structview renders a sequence of snapshots of pointer-based data
// structures as diagrams that keep element identity from frame to frame.
// Nodes that vanish without being freed are leaks: they move to a strip at
// the bottom of the canvas and stay there for the rest of the sequence.
// The pkg directory is organized into four areas:
//
//  1. Core - [source], [model], [construct], [reconcile], [compose],
//     [engine]: frames in, composed scenes and lifecycle events out
//  2. Layouts - [layout] (plugin interface) and [layout/builtin]
//     (linklist, bintree, hashtable, pctree)
//  3. Output - [render] (scene, backend interface), [render/sink]
//     (SVG, PNG, PDF, JSON) and [render/nodelink] (Graphviz DOT)
//  4. Infrastructure - [pipeline], [cache], [config], [session],
//     [observability], [errors], [buildinfo]
//
// # Architecture
//
// One render pass, run by [engine.Engine.Render]:
//
//	source.Frame
//	     ↓
//	[construct] build the model table (elements, links, markers)
//	     ↓
//	[reconcile] diff against the previous frame: add / remove / leaked
//	     ↓
//	[compose]   per-group layout, markers, groups side by side, leak zone
//	     ↓
//	[reconcile] patch the backend and notify observers
//	     ↓
//	render.Scene (items + patch)
//
// # Quick Start
//
//	eng, _ := engine.New(engine.Options{})
//	for _, f := range frames {
//	    scene, err := eng.Render(ctx, f)
//	    if err != nil {
//	        // the previous scene stays current
//	        continue
//	    }
//	    svg := sink.RenderSVG(scene)
//	    _ = svg
//	}
//
// For batch rendering with caching, use [pipeline.Runner].
package pkg
