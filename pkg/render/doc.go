// Package render defines what the engine hands to a drawing backend.
//
// Every successful render pass produces a [Scene]: the ordered list of
// [Item]s to draw, with final positions, plus the [Patch] naming which
// items entered, exited, leaked or are kept in the leak strip. Live
// backends receive the same information as a stream of [Instruction]s
// through the [Backend] interface.
//
// Static output formats live in subpackages:
//
//   - [sink]: SVG and JSON renderings of a scene
//   - [nodelink]: Graphviz DOT with pinned positions, rendered to SVG
//
// [ToPDF] and [ToPNG] convert any SVG using the external rsvg-convert
// tool (from librsvg).
//
// [sink]: github.com/matzehuels/structview/pkg/render/sink
// [nodelink]: github.com/matzehuels/structview/pkg/render/nodelink
package render
