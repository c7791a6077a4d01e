// Package compose arranges one frame's model table into a scene.
//
// [Composer.LayoutAll] runs in fixed steps:
//
//  1. Reset every model: position zeroed, configured rotation reapplied.
//  2. Run each group's layout algorithm. An algorithm error, or any
//     element left at a non-finite position, aborts the pass with a
//     LAYOUT_FAILED error.
//  3. Place markers around their targets and freed labels under freed
//     elements.
//  4. Flow groups left to right by padded bounding box, optionally
//     centering them vertically on the tallest group.
//  5. Move the newly leaked cluster into the leak strip, to the right of
//     everything that leaked before.
//  6. Center the live scene on the canvas.
//  7. Settle: remember final positions for the frame in which an element
//     leaks.
//
// Leaked models are never laid out again. They keep the relative
// geometry they had when they leaked and are only ever translated once.
package compose
