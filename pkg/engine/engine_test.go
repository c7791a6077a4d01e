package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/structview/pkg/compose"
	"github.com/matzehuels/structview/pkg/errors"
	"github.com/matzehuels/structview/pkg/geom"
	"github.com/matzehuels/structview/pkg/layout"
	"github.com/matzehuels/structview/pkg/layout/builtin"
	"github.com/matzehuels/structview/pkg/model"
	"github.com/matzehuels/structview/pkg/render"
	"github.com/matzehuels/structview/pkg/source"
)

func list(data string) source.Frame {
	return frame(fmt.Sprintf(`{"list": {"layout": "linklist", "data": %s}}`, data))
}

func frame(s string) source.Frame {
	f, err := source.Decode(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return f
}

func newEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	e, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func mustRender(t *testing.T, e *Engine, f source.Frame) *render.Scene {
	t.Helper()
	s, err := e.Render(context.Background(), f)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return s
}

func TestScenarioIdenticalFrames(t *testing.T) {
	e := newEngine(t, Options{})
	first := mustRender(t, e, list(`[{"id": 1}, {"id": 2, "next": 1}]`))
	second := mustRender(t, e, list(`[{"id": 1}, {"id": 2, "next": 1}]`))

	if !second.Patch.Empty() {
		t.Errorf("patch = %+v, want empty", second.Patch)
	}
	if diff := cmp.Diff(first.Items, second.Items); diff != "" {
		t.Errorf("items changed (-first +second):\n%s", diff)
	}

	// A full recomposition lands on the same positions.
	again, err := e.Relayout()
	if err != nil {
		t.Fatalf("Relayout: %v", err)
	}
	if diff := cmp.Diff(first.Items, again.Items); diff != "" {
		t.Errorf("relayout moved items (-first +relayout):\n%s", diff)
	}
}

func TestScenarioLeak(t *testing.T) {
	e := newEngine(t, Options{})
	mustRender(t, e, list(`[{"id": 1, "freed": false}]`))

	s := mustRender(t, e, list(`[]`))
	if want := []string{"list(1)", "list(1)#address"}; !cmp.Equal(s.Patch.Leaked, want) {
		t.Errorf("leaked = %v, want %v", s.Patch.Leaked, want)
	}
	if !s.HasLeak {
		t.Error("scene should report a leak")
	}

	s = mustRender(t, e, list(`[]`))
	if want := []string{"list(1)", "list(1)#address"}; !cmp.Equal(s.Patch.AccumulateLeak, want) {
		t.Errorf("accumulate = %v, want %v", s.Patch.AccumulateLeak, want)
	}
	it, ok := s.Item("list(1)")
	if !ok || !it.Leaked {
		t.Errorf("leaked element missing from scene: %+v", it)
	}
	if it.Y-it.Height/2 != 450 {
		t.Errorf("leaked element top = %v, want leak area top 450", it.Y-it.Height/2)
	}
}

func TestScenarioFreed(t *testing.T) {
	e := newEngine(t, Options{})
	mustRender(t, e, list(`[{"id": 1, "freed": false}]`))
	mustRender(t, e, list(`[{"id": 1, "freed": true}]`))
	s := mustRender(t, e, list(`[]`))

	if want := []string{"list(1)", "list(1)#freed"}; !cmp.Equal(s.Patch.Remove, want) {
		t.Errorf("remove = %v, want %v", s.Patch.Remove, want)
	}
	if n := len(e.Leaked()); n != 0 {
		t.Errorf("leaked = %d, want 0", n)
	}
	if s.HasLeak {
		t.Error("scene should not report a leak")
	}
}

func TestReincarnation(t *testing.T) {
	e := newEngine(t, Options{})
	mustRender(t, e, list(`[{"id": 1}]`))
	mustRender(t, e, list(`[]`))
	s := mustRender(t, e, list(`[{"id": 1}]`))

	if want := []string{"list(1)~1"}; !cmp.Equal(s.Patch.Add, want) {
		t.Errorf("add = %v, want %v", s.Patch.Add, want)
	}
	el, ok := e.SelectElement("1")
	if !ok || el.ID != "list(1)~1" {
		t.Errorf("SelectElement(1) = %v, %v", el, ok)
	}
}

func TestLeakClustersDoNotOverlap(t *testing.T) {
	e := newEngine(t, Options{})
	frames := []string{
		`[{"id": 1, "next": 2}, {"id": 2}, {"id": 3, "next": 4}, {"id": 4}]`,
		`[{"id": 3, "next": 4}, {"id": 4}]`,
		`[]`,
		`[{"id": 5}, {"id": 6}, {"id": 7}]`,
		`[{"id": 7}]`,
		`[]`,
	}

	var clusters []geom.Rect
	for _, f := range frames {
		s := mustRender(t, e, list(f))
		var boxes []geom.Rect
		for _, id := range s.Patch.Leaked {
			it, _ := s.Item(id)
			if it.Kind != model.KindElement {
				continue
			}
			boxes = append(boxes, geom.Rect{X: it.X - it.Width/2, Y: it.Y - it.Height/2, Width: it.Width, Height: it.Height})
		}
		if len(boxes) > 0 {
			clusters = append(clusters, geom.Union(boxes...))
		}
	}

	if len(clusters) != 4 {
		t.Fatalf("got %d leak clusters, want 4", len(clusters))
	}
	for k := 1; k < len(clusters); k++ {
		for j := 0; j < k; j++ {
			if geom.Overlaps(clusters[j], clusters[k]) {
				t.Errorf("cluster %d %+v overlaps cluster %d %+v", k, clusters[k], j, clusters[j])
			}
		}
		if got, want := clusters[k].X, clusters[k-1].Right()+compose.DefaultLeakGap; got != want {
			t.Errorf("cluster %d left = %v, want %v", k, got, want)
		}
		if clusters[k].Y != 450 {
			t.Errorf("cluster %d top = %v, want 450", k, clusters[k].Y)
		}
	}
}

func TestObservers(t *testing.T) {
	var (
		freed, leaked []string
		areas         []LeakArea
	)
	obs := ObserverFuncs{
		Freed:    func(e *model.Element) { freed = append(freed, e.ID) },
		Leak:     func(e *model.Element) { leaked = append(leaked, e.ID) },
		LeakArea: func(a LeakArea) { areas = append(areas, a) },
	}
	e := newEngine(t, Options{Observers: []Observer{obs}})

	mustRender(t, e, list(`[{"id": 1}, {"id": 2, "freed": true}, {"id": 3}]`))
	mustRender(t, e, list(`[{"id": 3}]`))
	mustRender(t, e, list(`[]`))

	if want := []string{"list(2)"}; !cmp.Equal(freed, want) {
		t.Errorf("freed = %v, want %v", freed, want)
	}
	if want := []string{"list(1)", "list(3)"}; !cmp.Equal(leaked, want) {
		t.Errorf("leaked = %v, want %v", leaked, want)
	}
	// One update per frame that leaked something.
	if want := []LeakArea{{Y: 450, HasLeak: true}, {Y: 450, HasLeak: true}}; !cmp.Equal(areas, want) {
		t.Errorf("leak area updates = %v, want %v", areas, want)
	}

	// A frame without new leaks stays quiet.
	mustRender(t, e, list(`[{"id": 4}]`))
	if len(areas) != 2 {
		t.Errorf("frame without leaks sent %d leak area updates", len(areas)-2)
	}

	e.Reset()
	if want := []LeakArea{{Y: 450, HasLeak: true}, {Y: 450, HasLeak: true}, {Y: 450, HasLeak: false}}; !cmp.Equal(areas, want) {
		t.Errorf("leak area updates after reset = %v, want %v", areas, want)
	}
	if e.Scene() != nil {
		t.Error("Reset should drop the scene")
	}
}

func TestBackendReceivesPatch(t *testing.T) {
	var rec render.Recorder
	e := newEngine(t, Options{Backend: &rec})
	mustRender(t, e, list(`[{"id": 1}, {"id": 2}]`))
	mustRender(t, e, list(`[{"id": 2}]`))

	if got, want := rec.IDs(render.OpEnter), []string{"list(1)", "list(2)"}; !cmp.Equal(got, want) {
		t.Errorf("enter = %v, want %v", got, want)
	}
	if got, want := rec.IDs(render.OpLeak), []string{"list(1)", "list(1)#address"}; !cmp.Equal(got, want) {
		t.Errorf("leak = %v, want %v", got, want)
	}
	for _, ins := range rec.Instructions() {
		if ins.Animation != render.DefaultAnimation {
			t.Fatalf("instruction %s carries animation %+v", ins.Item.ID, ins.Animation)
		}
	}
}

func failingRegistry() *layout.Registry {
	reg := builtin.Registry()
	reg.MustRegister("broken", layout.Func{Fn: func(*model.Group, model.Params) error {
		return fmt.Errorf("boom")
	}})
	reg.MustRegister("nan", layout.Func{Fn: func(g *model.Group, _ model.Params) error {
		for _, e := range g.Elements {
			e.SetPosition(math.NaN(), 0)
		}
		return nil
	}})
	return reg
}

func TestFailedPassKeepsPreviousFrame(t *testing.T) {
	e := newEngine(t, Options{Registry: failingRegistry()})
	good := mustRender(t, e, list(`[{"id": 1}, {"id": 2, "next": 1}]`))

	tests := []struct {
		name  string
		frame string
		code  errors.Code
		id    string
	}{
		{
			name:  "algorithm error",
			frame: `{"list": {"layout": "linklist", "data": []}, "bad": {"layout": "broken", "data": [{"id": 1}]}}`,
			code:  errors.ErrCodeLayout,
			id:    "bad",
		},
		{
			name:  "non-finite position",
			frame: `{"list": {"layout": "linklist", "data": []}, "bad": {"layout": "nan", "data": [{"id": 7}]}}`,
			code:  errors.ErrCodeLayout,
			id:    "bad(7)",
		},
		{
			name:  "missing link target",
			frame: `{"list": {"layout": "linklist", "data": [{"id": 1, "next": 9}]}}`,
			code:  errors.ErrCodeValidation,
			id:    "list(1)",
		},
		{
			name:  "unknown layout",
			frame: `{"list": {"layout": "nope", "data": []}}`,
			code:  errors.ErrCodeValidation,
			id:    "list",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Render(context.Background(), frame(tt.frame))
			if !errors.Is(err, tt.code) {
				t.Fatalf("err = %v, want code %s", err, tt.code)
			}
			if got := errors.GetID(err); got != tt.id {
				t.Errorf("error id = %q, want %q", got, tt.id)
			}
			if e.Scene() != good {
				t.Error("failed pass replaced the scene")
			}
			if n := len(e.Leaked()); n != 0 {
				t.Errorf("failed pass committed %d leaks", n)
			}
		})
	}

	// The next good frame is diffed against the last good one.
	s := mustRender(t, e, list(`[{"id": 1}]`))
	if want := []string{"list(2)", "list(2)#address"}; !cmp.Equal(s.Patch.Leaked, want) {
		t.Errorf("leaked = %v, want %v", s.Patch.Leaked, want)
	}
}

func TestRenderCanceled(t *testing.T) {
	e := newEngine(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Render(ctx, list(`[]`)); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Compose.Policy = "zigzag"
	_, err := New(Options{Config: cfg})
	if !errors.Is(err, errors.ErrCodeInvalidConf) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestLayoutOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Layouts = map[string]model.Options{
		builtin.LinkList: {Layout: model.Params{"xInterval": 100.0}},
	}
	e := newEngine(t, Options{Config: cfg})
	s := mustRender(t, e, list(`[{"id": 1, "next": 2}, {"id": 2}]`))

	a, _ := s.Item("list(1)")
	b, _ := s.Item("list(2)")
	if got := b.X - a.X; got != 160 {
		t.Errorf("node distance = %v, want 160 (width 60 + gap 100)", got)
	}
}

func TestQueries(t *testing.T) {
	e := newEngine(t, Options{})
	if got := e.Elements(""); got != nil {
		t.Errorf("Elements before first frame = %v", got)
	}

	mustRender(t, e, frame(`{
		"a": {"layout": "linklist", "data": [{"id": 1, "next": 2, "external": "head"}, {"id": 2, "external": "tail"}]},
		"b": {"layout": "bintree", "data": [{"id": 1, "root": true}]}
	}`))

	if got := len(e.Elements("")); got != 3 {
		t.Errorf("Elements() = %d, want 3", got)
	}
	if got := len(e.Elements("a")); got != 2 {
		t.Errorf("Elements(a) = %d, want 2", got)
	}
	if got := e.Elements("missing"); got != nil {
		t.Errorf("Elements(missing) = %v, want nil", got)
	}
	if got := e.Links("a"); len(got) != 1 || got[0].ID != "next(a(1)->a(2))" {
		t.Errorf("Links(a) = %v", got)
	}
	markers := e.Markers("a")
	if len(markers) != 2 {
		t.Fatalf("Markers(a) = %d, want 2", len(markers))
	}
	if markers[0].ID != "a#rootExternal:head" || markers[1].ID != "a#external:tail" {
		t.Errorf("marker ids = %s, %s", markers[0].ID, markers[1].ID)
	}

	el, ok := e.SelectElement("1")
	if !ok || el.ID != "a(1)" {
		t.Errorf("SelectElement(1) = %v, %v; want first group's element", el, ok)
	}
	el.X = 1e9
	if again, _ := e.SelectElement("1"); again.X == 1e9 {
		t.Error("SelectElement returned the live element")
	}
	if _, ok := e.SelectElement("nope"); ok {
		t.Error("SelectElement(nope) should fail")
	}
}

func TestHideGroups(t *testing.T) {
	e := newEngine(t, Options{})
	f := frame(`{
		"alpha": {"layout": "linklist", "data": [{"id": 1}]},
		"beta": {"layout": "bintree", "data": [{"id": 1}]}
	}`)
	mustRender(t, e, f)

	s, err := e.HideGroups("b*")
	if err != nil {
		t.Fatalf("HideGroups: %v", err)
	}
	if _, ok := s.Item("beta(1)"); ok {
		t.Error("hidden group still in scene")
	}
	alpha, ok := s.Item("alpha(1)")
	if !ok {
		t.Fatal("visible group missing from scene")
	}
	if alpha.X != 400 || alpha.Y != 300 {
		t.Errorf("alpha(1) at (%v, %v), want canvas center", alpha.X, alpha.Y)
	}

	// Hidden groups still reconcile and survive later frames.
	s = mustRender(t, e, frame(`{
		"alpha": {"layout": "linklist", "data": [{"id": 1}]},
		"beta": {"layout": "bintree", "data": [{"id": 1}, {"id": 2}]}
	}`))
	if want := []string{"beta(2)"}; !cmp.Equal(s.Patch.Add, want) {
		t.Errorf("add = %v, want %v", s.Patch.Add, want)
	}
	if _, ok := s.Item("beta(2)"); ok {
		t.Error("hidden group model in scene")
	}

	// Matching by layout name.
	s, err = e.HideGroups("linklist")
	if err != nil {
		t.Fatalf("HideGroups: %v", err)
	}
	if _, ok := s.Item("alpha(1)"); ok {
		t.Error("group with hidden layout still in scene")
	}
	if _, ok := s.Item("beta(1)"); !ok {
		t.Error("unhidden group missing from scene")
	}

	if _, err := e.HideGroups("[unterminated"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad pattern err = %v, want INVALID_INPUT", err)
	}
}

func TestResize(t *testing.T) {
	var areas []LeakArea
	e := newEngine(t, Options{Observers: []Observer{ObserverFuncs{LeakArea: func(a LeakArea) { areas = append(areas, a) }}}})
	mustRender(t, e, list(`[{"id": 1}, {"id": 2}]`))
	before := mustRender(t, e, list(`[{"id": 2}]`))

	after, err := e.Resize(1000, 800)
	if err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if after.LeakAreaY != 650 || after.Width != 1000 {
		t.Errorf("scene canvas = %vx%v leak y %v", after.Width, after.Height, after.LeakAreaY)
	}
	for _, id := range []string{"list(1)", "list(2)"} {
		b, _ := before.Item(id)
		a, _ := after.Item(id)
		if a.Y-b.Y != 200 || a.X != b.X {
			t.Errorf("%s moved from (%v, %v) to (%v, %v), want dy 200", id, b.X, b.Y, a.X, a.Y)
		}
	}
	if want := (LeakArea{Y: 650, HasLeak: true}); areas[len(areas)-1] != want {
		t.Errorf("last leak area = %+v, want %+v", areas[len(areas)-1], want)
	}
	if got := e.LeakArea(); got.Y != 650 {
		t.Errorf("LeakArea().Y = %v, want 650", got.Y)
	}

	if _, err := e.Resize(0, 100); !errors.Is(err, errors.ErrCodeInvalidConf) {
		t.Errorf("Resize(0, 100) err = %v, want INVALID_CONFIG", err)
	}
}

func TestRelayoutWithoutFrame(t *testing.T) {
	e := newEngine(t, Options{})
	if _, err := e.Relayout(); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestConcurrentRender(t *testing.T) {
	e := newEngine(t, Options{})
	frames := []source.Frame{
		list(`[{"id": 1}, {"id": 2, "next": 1}]`),
		list(`[{"id": 2}]`),
		list(`[{"id": 3}]`),
	}

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Render(context.Background(), frames[i%len(frames)]); err != nil {
				t.Errorf("Render: %v", err)
			}
			_ = e.Elements("")
		}()
	}
	wg.Wait()

	for _, el := range e.Leaked() {
		if !el.Leaked {
			t.Errorf("%s in accumulator without leak flag", el.ID)
		}
	}
	if e.Scene() == nil {
		t.Error("no scene after concurrent renders")
	}
}
