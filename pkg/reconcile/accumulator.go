package reconcile

import (
	"github.com/matzehuels/structview/pkg/model"
)

// Accumulator is the append-only store of leaked models.
// It is not safe for concurrent use; the engine serializes access.
type Accumulator struct {
	models      []model.Model
	ids         map[string]bool
	generations map[string]int
	elements    int
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		ids:         make(map[string]bool),
		generations: make(map[string]int),
	}
}

// Append records models as leaked. Ids already present are ignored.
func (a *Accumulator) Append(models ...model.Model) {
	for _, m := range models {
		id := m.ModelID()
		if a.ids[id] {
			continue
		}
		a.ids[id] = true
		a.models = append(a.models, m)
		if m.Kind() == model.KindElement {
			a.elements++
			a.generations[model.BaseID(id)]++
		}
	}
}

// Models returns the accumulated models in leak order. The slice is a
// copy; the models are shared.
func (a *Accumulator) Models() []model.Model {
	return append([]model.Model(nil), a.models...)
}

// Len returns the number of leaked elements.
func (a *Accumulator) Len() int { return a.elements }

// Contains reports whether id has leaked.
func (a *Accumulator) Contains(id string) bool { return a.ids[id] }

// Generation returns how many elements with this base id have leaked.
func (a *Accumulator) Generation(baseID string) int { return a.generations[baseID] }

// Translate moves every accumulated model, for canvas resizes.
func (a *Accumulator) Translate(dx, dy float64) {
	for _, m := range a.models {
		m.Translate(dx, dy)
	}
}

// Elements returns the accumulated elements in leak order.
func (a *Accumulator) Elements() []*model.Element {
	out := make([]*model.Element, 0, a.elements)
	for _, m := range a.models {
		if e, ok := m.(*model.Element); ok {
			out = append(out, e)
		}
	}
	return out
}
