package engine

import "github.com/matzehuels/structview/pkg/model"

// LeakArea describes the leak strip at the bottom of the canvas.
type LeakArea struct {
	Y       float64 `json:"leak_area_y"`
	HasLeak bool    `json:"has_leak"`
}

// Observer receives lifecycle events. Calls happen synchronously inside
// the render pass; observers must not call back into the engine.
type Observer interface {
	// OnFreed is called for every freed element removed from the scene.
	OnFreed(e *model.Element)
	// OnLeak is called for every element that leaked this frame.
	OnLeak(e *model.Element)
	// OnLeakAreaUpdate is called when the leak strip moves or its
	// occupancy changes.
	OnLeakAreaUpdate(area LeakArea)
}

// NopObserver implements Observer with no-ops. Embed it to handle a
// subset of the events.
type NopObserver struct{}

func (NopObserver) OnFreed(*model.Element)    {}
func (NopObserver) OnLeak(*model.Element)     {}
func (NopObserver) OnLeakAreaUpdate(LeakArea) {}

// ObserverFuncs adapts functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Freed    func(e *model.Element)
	Leak     func(e *model.Element)
	LeakArea func(area LeakArea)
}

func (o ObserverFuncs) OnFreed(e *model.Element) {
	if o.Freed != nil {
		o.Freed(e)
	}
}

func (o ObserverFuncs) OnLeak(e *model.Element) {
	if o.Leak != nil {
		o.Leak(e)
	}
}

func (o ObserverFuncs) OnLeakAreaUpdate(area LeakArea) {
	if o.LeakArea != nil {
		o.LeakArea(area)
	}
}
