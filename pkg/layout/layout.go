package layout

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matzehuels/structview/pkg/model"
	"github.com/matzehuels/structview/pkg/source"
)

// Algorithm assigns positions to the elements of one group.
type Algorithm interface {
	// DefineOptions returns the default options for groups using this
	// algorithm: node types, link and marker fields, layout parameters.
	DefineOptions() model.Options

	// Layout positions g's elements by setting their X and Y. It must not
	// touch links, markers or other groups.
	Layout(g *model.Group, params model.Params) error
}

// Preprocessor is implemented by algorithms that rewrite their records
// before model construction. records is a private copy.
type Preprocessor interface {
	Preprocess(records []source.Record, opts model.Options) ([]source.Record, error)
}

// Registry maps algorithm names to implementations. It is safe for
// concurrent use.
type Registry struct {
	mu   sync.RWMutex
	algs map[string]Algorithm
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{algs: make(map[string]Algorithm)}
}

// Register adds alg under name. Registering a name twice is an error.
func (r *Registry) Register(name string, alg Algorithm) error {
	if name == "" {
		return fmt.Errorf("layout name cannot be empty")
	}
	if alg == nil {
		return fmt.Errorf("layout %q: nil algorithm", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.algs[name]; dup {
		return fmt.Errorf("layout %q already registered", name)
	}
	r.algs[name] = alg
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(name string, alg Algorithm) {
	if err := r.Register(name, alg); err != nil {
		panic(err)
	}
}

// Get returns the algorithm registered under name.
func (r *Registry) Get(name string) (Algorithm, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	alg, ok := r.algs[name]
	return alg, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.algs))
	for name := range r.algs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Func adapts a plain function and a fixed option set to [Algorithm].
type Func struct {
	Options model.Options
	Fn      func(g *model.Group, params model.Params) error
}

func (f Func) DefineOptions() model.Options { return f.Options.Clone() }

func (f Func) Layout(g *model.Group, params model.Params) error {
	if f.Fn == nil {
		return nil
	}
	return f.Fn(g, params)
}
