package reconcile

import (
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/structview/pkg/model"
	"github.com/matzehuels/structview/pkg/render"
)

// ChangeKind names a visual change of a continuing model.
type ChangeKind string

const (
	// ChangeLabel: an element's label text changed.
	ChangeLabel ChangeKind = "label"
	// ChangeFreed: an element was freed but is still present.
	ChangeFreed ChangeKind = "freed"
	// ChangeRetarget: a marker now points at another element.
	ChangeRetarget ChangeKind = "retarget"
)

// Change is a property difference of a model present in both frames.
type Change struct {
	ID   string
	Kind ChangeKind
	From string
	To   string
}

// Diff is the classification of one frame against the previous one.
type Diff struct {
	Add            []model.Model
	Remove         []model.Model
	Leaked         []model.Model
	AccumulateLeak []model.Model

	// Retain holds the current versions of continuing models.
	Retain []model.Model
	// Changes lists visual changes of continuing models. They never
	// affect classification.
	Changes []Change
}

// Empty reports whether nothing was added, removed, leaked or changed.
func (d Diff) Empty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0 && len(d.Leaked) == 0 && len(d.Changes) == 0
}

// Patch returns the ids of each bucket.
func (d Diff) Patch() render.Patch {
	return render.Patch{
		Add:            ids(d.Add),
		Remove:         ids(d.Remove),
		Leaked:         ids(d.Leaked),
		AccumulateLeak: ids(d.AccumulateLeak),
	}
}

// LeakedElements returns the elements of the Leaked bucket.
func (d Diff) LeakedElements() []*model.Element {
	var out []*model.Element
	for _, m := range d.Leaked {
		if e, ok := m.(*model.Element); ok {
			out = append(out, e)
		}
	}
	return out
}

func ids(models []model.Model) []string {
	out := make([]string, len(models))
	for i, m := range models {
		out[i] = m.ModelID()
	}
	return out
}

// Observer receives element lifecycle events from Patch.
type Observer interface {
	OnFreed(e *model.Element)
	OnLeak(e *model.Element)
}

// Options configures a Reconciler.
type Options struct {
	Backend   render.Backend
	Animation render.Animation
	Observers []Observer
	Logger    *log.Logger
}

// Reconciler classifies frame deltas and patches the backend.
type Reconciler struct {
	backend   render.Backend
	animation render.Animation
	observers []Observer
	logger    *log.Logger
}

// New returns a reconciler. Observers are fixed at construction.
func New(opts Options) *Reconciler {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Reconciler{
		backend:   opts.Backend,
		animation: opts.Animation,
		observers: slices.Clone(opts.Observers),
		logger:    logger,
	}
}

// Diff classifies the models of prev and current. acc may be nil. Diff
// never fails and never modifies its inputs.
func (r *Reconciler) Diff(prev, current []model.Model, acc *Accumulator) Diff {
	var d Diff

	prevByID := make(map[string]model.Model, len(prev))
	for _, m := range prev {
		prevByID[m.ModelID()] = m
	}
	curByID := make(map[string]model.Model, len(current))
	for _, m := range current {
		curByID[m.ModelID()] = m
	}

	for _, m := range current {
		old, ok := prevByID[m.ModelID()]
		if !ok {
			d.Add = append(d.Add, m)
			continue
		}
		d.Retain = append(d.Retain, m)
		d.Changes = append(d.Changes, changes(old, m)...)
	}

	// An element leaks when it vanishes without having been freed.
	leaks := func(id string) bool {
		if _, ok := curByID[id]; ok {
			return false
		}
		e, ok := prevByID[id].(*model.Element)
		return ok && !e.Freed
	}

	var leakedLinks []string
	for _, m := range prev {
		if _, ok := curByID[m.ModelID()]; ok {
			continue
		}
		switch v := m.(type) {
		case *model.Element:
			if v.Freed {
				d.Remove = append(d.Remove, v)
				continue
			}
			e := v.CloneElement()
			e.Leaked = true
			d.Leaked = append(d.Leaked, e, &model.Appendage{
				ID:      model.AppendageID(e.ID, model.AppendageAddress),
				Type:    model.AppendageAddress,
				Group:   e.Group,
				Element: e.ID,
				Text:    e.SourceID,
				Leaked:  true,
			})
		case *model.Link:
			if leaks(v.Source) && leaks(v.Target) {
				l := v.Clone().(*model.Link)
				l.Leaked = true
				d.Leaked = append(d.Leaked, l)
				leakedLinks = append(leakedLinks, l.ID)
				continue
			}
			d.Remove = append(d.Remove, v)
		default:
			d.Remove = append(d.Remove, m)
		}
	}

	// Isolate leaked elements: only links that leaked with them remain.
	for _, e := range d.LeakedElements() {
		e.In = keep(e.In, leakedLinks)
		e.Out = keep(e.Out, leakedLinks)
		e.Markers = nil
	}

	if acc != nil {
		d.AccumulateLeak = acc.Models()
	}

	r.logger.Debug("diff",
		"add", len(d.Add), "remove", len(d.Remove), "leaked", len(d.Leaked),
		"accumulated", len(d.AccumulateLeak), "changes", len(d.Changes))
	return d
}

func keep(ids, allowed []string) []string {
	var out []string
	for _, id := range ids {
		if slices.Contains(allowed, id) {
			out = append(out, id)
		}
	}
	return out
}

func changes(old, cur model.Model) []Change {
	var out []Change
	switch c := cur.(type) {
	case *model.Element:
		o, ok := old.(*model.Element)
		if !ok {
			return nil
		}
		if o.Label != c.Label {
			out = append(out, Change{ID: c.ID, Kind: ChangeLabel, From: o.Label, To: c.Label})
		}
		if !o.Freed && c.Freed {
			out = append(out, Change{ID: c.ID, Kind: ChangeFreed})
		}
	case *model.Marker:
		o, ok := old.(*model.Marker)
		if ok && o.Target != c.Target {
			out = append(out, Change{ID: c.ID, Kind: ChangeRetarget, From: o.Target, To: c.Target})
		}
	}
	return out
}

// Patch sends d to the backend and notifies observers. Removals come
// first, then leaks, continuing models, accumulated leaks and additions.
func (r *Reconciler) Patch(d Diff) {
	emit := func(op render.Op, models []model.Model) {
		if r.backend == nil {
			return
		}
		for _, m := range models {
			r.backend.Apply(render.Instruction{Op: op, Item: render.ItemOf(m), Animation: r.animation})
		}
	}

	emit(render.OpExit, d.Remove)
	emit(render.OpLeak, d.Leaked)
	emit(render.OpRetain, d.Retain)
	emit(render.OpRetain, d.AccumulateLeak)
	emit(render.OpEnter, d.Add)

	for _, m := range d.Remove {
		if e, ok := m.(*model.Element); ok {
			for _, o := range r.observers {
				o.OnFreed(e)
			}
		}
	}
	for _, e := range d.LeakedElements() {
		for _, o := range r.observers {
			o.OnLeak(e)
		}
	}
}
