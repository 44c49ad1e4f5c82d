// Package port implements the one-slot staged/exposed buffer that
// belongs to a component.
package port

import (
	"sync"

	"github.com/sarchlab/dflow/payload"
)

// Direction fixes whether a Port is an input or an output. It is
// immutable after creation.
type Direction int

const (
	// In marks a port that receives values during collect.
	In Direction = iota
	// Out marks a port that a component's execute phase writes to.
	Out
)

// String names the direction, mirroring the teacher's Side.Name
// helper for small enum types.
func (d Direction) String() string {
	switch d {
	case In:
		return "in"
	case Out:
		return "out"
	default:
		return "unknown"
	}
}

// Port is a named one-slot buffer attached to one component. It holds
// a staged slot (written by the owning component's execute, not yet
// visible) and an exposed slot (visible to downstream collects).
type Port struct {
	mu   sync.Mutex
	name string
	dir  Direction

	staged  payload.Value
	exposed payload.Value
}

// New creates a port with both slots empty.
func New(name string, dir Direction) *Port {
	return &Port{name: name, dir: dir}
}

// Name returns the port's name.
func (p *Port) Name() string { return p.name }

// Direction returns the port's fixed direction.
func (p *Port) Direction() Direction { return p.dir }

// Stage writes the staged slot, overwriting any prior unpromoted
// value.
func (p *Port) Stage(v payload.Value) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.staged = v
}

// Expose promotes staged to exposed if staged is present, then clears
// staged. If staged is empty the exposed slot is left untouched, so a
// transfer function that omits a key means "no update" rather than
// "clear the value downstream sees". Calling Expose twice with no
// intervening Stage is a no-op the second time.
func (p *Port) Expose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.staged.Present() {
		return
	}
	p.exposed = p.staged
	p.staged = payload.Empty
}

// Exposed returns the exposed slot without modifying it.
func (p *Port) Exposed() payload.Value {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exposed
}

// Staged returns the staged slot without modifying it.
func (p *Port) Staged() payload.Value {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.staged
}

// SetExposed writes directly into the exposed slot. It exists only
// for the scheduler's collect phase to deliver a value to an input
// port, which has no execute of its own to stage through.
func (p *Port) SetExposed(v payload.Value) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exposed = v
}
