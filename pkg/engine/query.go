package engine

import (
	"github.com/gobwas/glob"

	"github.com/matzehuels/structview/pkg/errors"
	"github.com/matzehuels/structview/pkg/model"
	"github.com/matzehuels/structview/pkg/render"
)

// Elements returns copies of the live elements of group, or of every
// group when group is empty.
func (e *Engine) Elements(group string) []*model.Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*model.Element
	for _, g := range e.groups(group) {
		for _, el := range g.Elements {
			out = append(out, el.CloneElement())
		}
	}
	return out
}

// Links returns copies of the live links of group, or of every group when
// group is empty.
func (e *Engine) Links(group string) []*model.Link {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*model.Link
	for _, g := range e.groups(group) {
		for _, l := range g.Links {
			out = append(out, l.Clone().(*model.Link))
		}
	}
	return out
}

// Markers returns copies of the live markers of group, or of every group
// when group is empty.
func (e *Engine) Markers(group string) []*model.Marker {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*model.Marker
	for _, g := range e.groups(group) {
		for _, m := range g.Markers {
			out = append(out, m.Clone().(*model.Marker))
		}
	}
	return out
}

func (e *Engine) groups(name string) []*model.Group {
	if e.table == nil {
		return nil
	}
	if name == "" {
		return e.table.Groups()
	}
	if g := e.table.Group(name); g != nil {
		return []*model.Group{g}
	}
	return nil
}

// SelectElement returns a copy of the first live element, in group order,
// whose source record id is sourceID.
func (e *Engine) SelectElement(sourceID string) (*model.Element, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, g := range e.groups("") {
		for _, el := range g.Elements {
			if el.SourceID == sourceID {
				return el.CloneElement(), true
			}
		}
	}
	return nil, false
}

// HideGroups hides every group whose name or layout matches one of the
// glob patterns and shows all others. Hidden groups keep their models and
// take part in reconciliation, but are left out of composition and the
// scene. With a rendered frame the scene is recomposed.
func (e *Engine) HideGroups(patterns ...string) (*render.Scene, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid group pattern %q", p)
		}
		globs = append(globs, g)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.hidden = globs
	if e.table == nil {
		return nil, nil
	}
	return e.relayout()
}

func (e *Engine) applyHidden(t *model.Table) {
	for _, g := range t.Groups() {
		g.Hidden = false
		for _, p := range e.hidden {
			if p.Match(g.Name) || p.Match(g.Layout) {
				g.Hidden = true
				break
			}
		}
	}
}

// Relayout recomposes the current frame without reconciling it. The
// returned scene carries an empty patch.
func (e *Engine) Relayout() (*render.Scene, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.table == nil {
		return nil, errNoFrame()
	}
	return e.relayout()
}

// relayout builds a fresh table from the stored frame so a failing layout
// leaves the current one untouched. Leak generations cannot change
// between passes for ids present in the frame, so element ids match.
func (e *Engine) relayout() (*render.Scene, error) {
	table, err := e.constructor.Construct(e.frame, e.acc)
	if err != nil {
		return nil, err
	}
	e.applyHidden(table)
	if err := e.composer.LayoutAll(table, e.acc, nil); err != nil {
		return nil, err
	}
	e.table = table
	e.scene = e.buildScene(render.Patch{AccumulateLeak: e.leakIDs()})
	e.logger.Debug("relayout", "groups", len(table.Groups()), "hidden", len(table.Groups())-len(table.Visible()))
	return e.scene, nil
}

// Resize changes the canvas size. Every live and leaked model moves with
// the bottom edge so the leak strip keeps its height; observers receive
// the new leak area.
func (e *Engine) Resize(width, height float64) (*render.Scene, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cfg := e.composer.Config()
	cfg.Width, cfg.Height = width, height
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dy := height - e.composer.Config().Height
	e.composer.SetCanvas(width, height)
	e.cfg.Compose = e.composer.Config()

	if e.table != nil {
		for _, m := range e.table.Models() {
			m.Translate(0, dy)
			m.Settle()
		}
	}
	e.acc.Translate(0, dy)
	e.notifyLeakArea()

	if e.table == nil {
		return nil, nil
	}
	e.scene = e.buildScene(render.Patch{AccumulateLeak: e.leakIDs()})
	return e.scene, nil
}
