package engine

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gobwas/glob"
	"github.com/google/uuid"

	"github.com/matzehuels/structview/pkg/compose"
	"github.com/matzehuels/structview/pkg/construct"
	"github.com/matzehuels/structview/pkg/errors"
	"github.com/matzehuels/structview/pkg/layout"
	"github.com/matzehuels/structview/pkg/layout/builtin"
	"github.com/matzehuels/structview/pkg/model"
	"github.com/matzehuels/structview/pkg/observability"
	"github.com/matzehuels/structview/pkg/reconcile"
	"github.com/matzehuels/structview/pkg/render"
	"github.com/matzehuels/structview/pkg/source"
)

// Options configures an Engine.
type Options struct {
	Config Config
	// Registry resolves layout names. Nil selects the built-in layouts.
	Registry *layout.Registry
	// Backend receives patch instructions. Optional.
	Backend render.Backend
	// Measurer sizes marker labels. Nil selects compose.MonoMeasurer.
	Measurer  compose.Measurer
	Observers []Observer
	Logger    *log.Logger
}

// Engine renders frames and keeps the leak accumulator. It is safe for
// concurrent use; render passes are serialized.
type Engine struct {
	mu sync.Mutex

	id          string
	cfg         Config
	constructor *construct.Constructor
	composer    *compose.Composer
	reconciler  *reconcile.Reconciler
	observers   []Observer
	logger      *log.Logger

	acc     *reconcile.Accumulator
	table   *model.Table
	frame   source.Frame
	hash    string
	scene   *render.Scene
	hidden  []glob.Glob
	hasLeak bool
}

// New returns an engine with an empty scene.
func New(opts Options) (*Engine, error) {
	cfg := opts.Config
	if cfg.Compose == (compose.Config{}) {
		cfg.Compose = compose.DefaultConfig()
	}
	if cfg.Animation == (render.Animation{}) {
		cfg.Animation = render.DefaultAnimation
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.clone()

	reg := opts.Registry
	if reg == nil {
		reg = builtin.Registry()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	id := uuid.NewString()
	logger = logger.With("engine", id[:8])

	observers := slices.Clone(opts.Observers)
	reObservers := make([]reconcile.Observer, len(observers))
	for i, o := range observers {
		reObservers[i] = o
	}

	return &Engine{
		id:          id,
		cfg:         cfg,
		constructor: construct.New(reg, cfg.Layouts, logger),
		composer:    compose.New(reg, cfg.Compose, opts.Measurer, logger),
		reconciler: reconcile.New(reconcile.Options{
			Backend:   opts.Backend,
			Animation: cfg.Animation,
			Observers: reObservers,
			Logger:    logger,
		}),
		observers: observers,
		logger:    logger,
		acc:       reconcile.NewAccumulator(),
	}, nil
}

// ID returns the engine's instance id.
func (e *Engine) ID() string { return e.id }

// Config returns the engine's current configuration.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg := e.cfg.clone()
	cfg.Compose = e.composer.Config()
	return cfg
}

// Registry returns the layout registry the engine resolves names in.
func (e *Engine) Registry() *layout.Registry { return e.constructor.Registry() }

// Render runs one render pass over frame and returns the composed scene.
// A frame structurally identical to the previous one returns the previous
// scene with an empty patch. On error the previous frame stays current.
func (e *Engine) Render(ctx context.Context, frame source.Frame) (*render.Scene, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	hooks := observability.Engine()
	hooks.OnRenderStart(ctx, len(frame.Groups))
	start := time.Now()

	scene, stats, err := e.render(frame)
	hooks.OnRenderComplete(ctx, stats, time.Since(start), err)
	if err != nil {
		e.logger.Debug("render pass failed", "err", err)
		return nil, err
	}
	return scene, nil
}

func (e *Engine) render(frame source.Frame) (*render.Scene, observability.RenderStats, error) {
	hash := frame.Hash()
	if e.scene != nil && hash != "" && hash == e.hash {
		scene := *e.scene
		scene.Patch = render.Patch{AccumulateLeak: e.leakIDs()}
		e.logger.Debug("frame unchanged, skipping pass")
		return &scene, observability.RenderStats{
			Groups:      len(frame.Groups),
			Elements:    e.table.Len(),
			Accumulated: e.acc.Len(),
			Skipped:     true,
		}, nil
	}

	table, err := e.constructor.Construct(frame, e.acc)
	if err != nil {
		return nil, observability.RenderStats{Groups: len(frame.Groups)}, err
	}
	e.applyHidden(table)

	var prev []model.Model
	if e.table != nil {
		prev = e.table.Models()
	}
	diff := e.reconciler.Diff(prev, table.Models(), e.acc)

	if err := e.composer.LayoutAll(table, e.acc, diff.Leaked); err != nil {
		return nil, observability.RenderStats{Groups: len(frame.Groups), Elements: table.Len()}, err
	}

	e.reconciler.Patch(diff)

	// Commit.
	e.acc.Append(diff.Leaked...)
	e.table = table
	e.frame = frame.Clone()
	e.hash = hash
	e.scene = e.buildScene(diff.Patch())

	// Every frame that adds to the strip is announced, not only the first.
	leaked := diff.LeakedElements()
	if len(leaked) > 0 {
		e.hasLeak = true
		e.notifyLeakArea()
	}

	removed := 0
	for _, m := range diff.Remove {
		if m.Kind() == model.KindElement {
			removed++
		}
	}
	e.logger.Debug("render pass",
		"groups", len(table.Groups()), "elements", table.Len(),
		"add", len(diff.Add), "remove", len(diff.Remove), "leaked", len(diff.Leaked),
		"accumulated", e.acc.Len())

	return e.scene, observability.RenderStats{
		Groups:      len(table.Groups()),
		Elements:    table.Len(),
		Added:       len(diff.Add),
		Removed:     removed,
		Leaked:      len(leaked),
		Accumulated: e.acc.Len(),
	}, nil
}

// Scene returns the last composed scene, or nil before the first pass.
func (e *Engine) Scene() *render.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scene
}

// Frame returns a copy of the last rendered frame.
func (e *Engine) Frame() source.Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frame.Clone()
}

// LeakArea returns the current leak strip.
func (e *Engine) LeakArea() LeakArea {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.leakArea()
}

func (e *Engine) leakArea() LeakArea {
	return LeakArea{Y: e.composer.Config().LeakAreaY(), HasLeak: e.hasLeak}
}

func (e *Engine) notifyLeakArea() {
	area := e.leakArea()
	for _, o := range e.observers {
		o.OnLeakAreaUpdate(area)
	}
}

// Leaked returns copies of every leaked element in leak order.
func (e *Engine) Leaked() []*model.Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*model.Element
	for _, el := range e.acc.Elements() {
		out = append(out, el.CloneElement())
	}
	return out
}

func (e *Engine) leakIDs() []string {
	models := e.acc.Models()
	ids := make([]string, len(models))
	for i, m := range models {
		ids[i] = m.ModelID()
	}
	return ids
}

// buildScene snapshots the visible groups and the leak accumulator.
func (e *Engine) buildScene(patch render.Patch) *render.Scene {
	cfg := e.composer.Config()
	scene := &render.Scene{
		Width:     cfg.Width,
		Height:    cfg.Height,
		LeakAreaY: cfg.LeakAreaY(),
		HasLeak:   e.acc.Len() > 0,
		Patch:     patch,
	}
	for _, g := range e.table.Visible() {
		for _, m := range g.Models() {
			scene.Items = append(scene.Items, render.ItemOf(m))
		}
	}
	for _, m := range e.acc.Models() {
		scene.Items = append(scene.Items, render.ItemOf(m))
	}
	return scene
}

// Reset drops the current scene and the leak accumulator.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.acc = reconcile.NewAccumulator()
	e.table = nil
	e.frame = source.Frame{}
	e.hash = ""
	e.scene = nil
	if e.hasLeak {
		e.hasLeak = false
		e.notifyLeakArea()
	}
	e.logger.Debug("engine reset")
}

// errNoFrame is returned by operations that need a rendered frame.
func errNoFrame() error {
	return errors.New(errors.ErrCodeNotFound, "no frame has been rendered")
}
