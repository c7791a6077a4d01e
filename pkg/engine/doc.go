// Package engine runs render passes over a stream of frames.
//
// An [Engine] owns the state that persists across frames: the last
// successfully composed model table and the leak accumulator. Each call to
// [Engine.Render] constructs models for the new frame, classifies them
// against the previous frame, composes the layout, patches the backend and
// commits. A pass that fails at any step leaves the previous frame current.
//
// # Usage
//
//	eng, err := engine.New(engine.Options{Backend: myBackend})
//	if err != nil {
//	    return err
//	}
//	scene, err := eng.Render(ctx, frame)
//
// Passes are serialized by the engine; a second Render waits for the
// first to finish.
package engine
