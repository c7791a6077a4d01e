// Package reconcile diffs consecutive frames by identity and tracks the
// lifecycle of elements that disappear.
//
// [Reconciler.Diff] walks the previous frame's models in order and sorts
// every change into one bucket:
//
//   - Add: ids only in the current frame
//   - Remove: elements that were freed before they disappeared, and every
//     vanished link, marker or label that is not part of a leak
//   - Leaked: elements that disappeared without being freed, plus links
//     whose both endpoints leaked in the same frame
//   - AccumulateLeak: everything that leaked in earlier frames
//
// Nothing vanishes silently: an element with no free evidence is always
// classified as leaked. Leaked models are cloned and isolated, so the
// previous frame's models are never touched.
//
// The [Accumulator] is append-only. It never shrinks, never reorders and
// remembers how often each base id has leaked, which the model
// constructor uses to reincarnate reused ids.
//
// [Reconciler.Patch] turns a diff into backend instructions and observer
// events. It never changes positions.
package reconcile
