package render

import "sync"

// Recorder is a Backend that keeps every instruction it receives.
// It is safe for concurrent use.
type Recorder struct {
	mu  sync.Mutex
	ins []Instruction
}

// Apply records ins.
func (r *Recorder) Apply(ins Instruction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ins = append(r.ins, ins)
}

// Instructions returns a copy of everything recorded so far.
func (r *Recorder) Instructions() []Instruction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Instruction(nil), r.ins...)
}

// IDs returns the ids recorded with op, in order.
func (r *Recorder) IDs(op Op) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ins := range r.ins {
		if ins.Op == op {
			out = append(out, ins.Item.ID)
		}
	}
	return out
}

// Reset drops everything recorded.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ins = nil
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(Instruction)

func (f BackendFunc) Apply(ins Instruction) { f(ins) }

// Multi fans instructions out to several backends in order.
type Multi []Backend

func (m Multi) Apply(ins Instruction) {
	for _, b := range m {
		b.Apply(ins)
	}
}
