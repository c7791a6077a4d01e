// Package source defines the raw input of a render pass.
//
// A [Frame] is one snapshot of the visualized program state: an ordered
// list of named groups, each holding the [Record]s a layout algorithm
// should arrange. Frames are usually decoded from JSON of the form
//
//	{
//	  "list": {"layout": "linklist", "data": [{"id": 1, "next": 2}, {"id": 2}]},
//	  "table": {"layout": "hashtable", "data": [...]}
//	}
//
// Key order of the top-level object is preserved; it decides the
// left-to-right order in which groups are composed.
//
// Records are read-only to the engine. Layout preprocessors receive
// copies made with [Record.Clone].
package source
