// Package layout defines the plugin interface for layout algorithms.
//
// An [Algorithm] arranges the elements of one group relative to each
// other. It never sees other groups, the leak zone or the canvas; the
// composer translates its output into the final scene. Algorithms are
// looked up by name in a [Registry]; package builtin provides reference
// implementations for linked lists, binary trees, hash tables and
// parent-child trees.
//
// An algorithm may also implement [Preprocessor] to rewrite its group's
// records before models are built, for example to split one record into
// two elements.
package layout
