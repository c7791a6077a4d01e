// Package geom provides the bounding-box arithmetic used by the layout
// composer.
//
// Coordinates follow canvas conventions: x grows to the right and y grows
// downward, so a [Rect]'s Y is its top edge. Points and vectors are
// gonum's [r2.Vec].
package geom
