// Package model defines the diagram models built from a frame.
//
// A render pass turns every [source.Record] into an [Element], every
// declared reference field into [Link]s, and every declared pointer or
// cursor field into a [Marker]. Models are bucketed by group into a
// [Table], which doubles as an id-keyed arena: links and markers refer to
// elements by id and are resolved through the table, never through
// pointers.
//
// # Identity
//
// Element ids are a pure function of the group name and the source id:
//
//	ElementID("list", "n1") == "list(n1)"
//
// This lets the reconciler compare frames without retaining objects.
// Once an id has leaked, a record reusing it is reincarnated under a
// generation suffix ("list(n1)~1"), see [Reincarnate].
//
// # Options
//
// Each group carries an immutable [Options] value describing how its
// records become models. Layout algorithms supply the defaults; the
// group receives a deep copy.
package model
