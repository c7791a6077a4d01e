// Package sink writes composed scenes to static formats.
//
// [RenderSVG] draws a scene the way an interactive backend would show it
// after its animations settle: elements, links, markers, freed and
// address labels, and the leak strip. [RenderJSON] serializes the scene
// for other renderers. [RenderPNG] and [RenderPDF] convert the SVG with
// rsvg-convert.
package sink
