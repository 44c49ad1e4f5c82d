// Package component implements the named unit of computation that
// owns input and output ports and a transfer function, per the
// collect/execute/expose micro-protocol.
package component

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sarchlab/dflow/payload"
	"github.com/sarchlab/dflow/port"
)

// TransferFunc is a pure function from named inputs to named outputs.
// A key absent from the returned map means "no update" for that
// output port, not "clear it" (see port.Expose).
type TransferFunc func(inputs payload.Dict) payload.Dict

// Source describes where a component's upstream input comes from, as
// seen by Collect. It decouples component from the wiring package to
// avoid an import cycle: the scheduler supplies the producer lookup.
type Source struct {
	Producer OutputReader
	PortName string
}

// OutputReader is the read side of a component that Collect needs:
// the exposed value of one of its output ports. *Component satisfies
// this.
type OutputReader interface {
	GetOutPortValue(name string) payload.Value
}

var anonCounter int64

// Option configures a Component at construction.
type Option func(*Component)

// WithName overrides the generated name.
func WithName(name string) Option {
	return func(c *Component) { c.name = name }
}

// WithStrict toggles strict mode: a transfer function output key that
// names no output port makes Execute return an error instead of being
// ignored. Collect is not affected: a bound source whose producer has
// no such output port still delivers an empty value.
func WithStrict(strict bool) Option {
	return func(c *Component) { c.strict = strict }
}

// Component holds named input and output ports, a transfer function,
// and the per-step scratch the spec calls last_inputs/last_outputs.
type Component struct {
	mu   sync.RWMutex
	name string
	fn   TransferFunc

	inputs  map[string]*port.Port
	outputs map[string]*port.Port
	sources map[string]Source // input port name -> upstream edge

	strict bool

	lastInputs  payload.Dict
	lastOutputs payload.Dict

	lastErr error
}

// New creates a Component around fn. Ports are added afterwards with
// MakeInPort/MakeOutPort.
func New(fn TransferFunc, opts ...Option) *Component {
	c := &Component{
		fn:      fn,
		inputs:  make(map[string]*port.Port),
		outputs: make(map[string]*port.Port),
		sources: make(map[string]Source),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.name == "" {
		n := atomic.AddInt64(&anonCounter, 1)
		c.name = fmt.Sprintf("component-%d", n)
	}
	return c
}

// Name returns the component's stable identity.
func (c *Component) Name() string { return c.name }

// MakeInPort creates an input port. It fails if name already exists
// with the opposite direction.
func (c *Component) MakeInPort(name string) error {
	return c.makePort(name, port.In)
}

// MakeOutPort creates an output port. It fails if name already exists
// with the opposite direction.
func (c *Component) MakeOutPort(name string) error {
	return c.makePort(name, port.Out)
}

func (c *Component) makePort(name string, dir port.Direction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.inputs[name]; ok && dir != port.In {
		return fmt.Errorf("component %s: port %q already exists as input", c.name, name)
	}
	if _, ok := c.outputs[name]; ok && dir != port.Out {
		return fmt.Errorf("component %s: port %q already exists as output", c.name, name)
	}

	p := port.New(name, dir)
	if dir == port.In {
		c.inputs[name] = p
	} else {
		c.outputs[name] = p
	}
	return nil
}

// inPort returns an input port by name, for use by the wiring package
// and the scheduler's collect phase.
func (c *Component) inPort(name string) (*port.Port, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.inputs[name]
	return p, ok
}

// outPort returns an output port by name.
func (c *Component) outPort(name string) (*port.Port, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.outputs[name]
	return p, ok
}

// HasInPort reports whether name names an input port.
func (c *Component) HasInPort(name string) bool {
	_, ok := c.inPort(name)
	return ok
}

// HasOutPort reports whether name names an output port.
func (c *Component) HasOutPort(name string) bool {
	_, ok := c.outPort(name)
	return ok
}

// BindSource records the upstream edge feeding an input port; it is
// called by wiring.Connect, not by user code.
func (c *Component) BindSource(inPortName string, src Source) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inputs[inPortName]; !ok {
		return fmt.Errorf("component %s: no such input port %q", c.name, inPortName)
	}
	if _, ok := c.sources[inPortName]; ok {
		return fmt.Errorf("component %s: input port %q already has an incoming edge", c.name, inPortName)
	}
	c.sources[inPortName] = src
	return nil
}

// GetInPortValue returns the exposed slot of an input port directly.
func (c *Component) GetInPortValue(name string) payload.Value {
	p, ok := c.inPort(name)
	if !ok {
		return payload.Empty
	}
	return p.Exposed()
}

// GetOutPortValue returns the exposed slot of an output port directly.
func (c *Component) GetOutPortValue(name string) payload.Value {
	p, ok := c.outPort(name)
	if !ok {
		return payload.Empty
	}
	return p.Exposed()
}

// GetInput returns the last value delivered to this input port at the
// most recent Collect: the exposed slot of the input port, identical
// to GetInPortValue. Unlike GetOutput/GetOutPortValue, inputs have no
// staged/exposed distinction visible to the transfer function.
func (c *Component) GetInput(name string) payload.Value {
	return c.GetInPortValue(name)
}

// GetOutput returns the last value produced by Execute for this
// output: the staged slot if present, else the exposed slot. This
// differs from GetOutPortValue, which only ever returns the exposed,
// post-Expose view.
func (c *Component) GetOutput(name string) payload.Value {
	p, ok := c.outPort(name)
	if !ok {
		return payload.Empty
	}
	if s := p.Staged(); s.Present() {
		return s
	}
	return p.Exposed()
}

// Collect reads the exposed output value of every bound upstream port
// into this component's input ports. Inputs without an incoming edge
// are left unchanged.
func (c *Component) Collect() {
	c.mu.RLock()
	sources := make(map[string]Source, len(c.sources))
	for k, v := range c.sources {
		sources[k] = v
	}
	c.mu.RUnlock()

	for inName, src := range sources {
		p, ok := c.inPort(inName)
		if !ok {
			continue
		}
		v := src.Producer.GetOutPortValue(src.PortName)
		p.SetExposed(v)
	}
}

// Execute builds the inputs dictionary from each input port's exposed
// slot, runs the transfer function, records last_outputs, and stages
// each returned key into the matching output port. Keys that do not
// name an output port are ignored in permissive mode and reported as
// an error in strict mode. A panic from the transfer function is
// recovered and returned as an error so the scheduler can abort the
// step.
func (c *Component) Execute() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("component %s: transfer function panicked: %v", c.name, r)
		}
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
	}()

	c.mu.RLock()
	inputs := make(payload.Dict, len(c.inputs))
	for name, p := range c.inputs {
		inputs[name] = p.Exposed()
	}
	c.mu.RUnlock()

	outputs := c.fn(inputs)

	c.mu.Lock()
	c.lastInputs = inputs
	c.lastOutputs = outputs
	c.mu.Unlock()

	for name, v := range outputs {
		p, ok := c.outPort(name)
		if !ok {
			if c.strict {
				return fmt.Errorf("component %s: transfer function returned unknown output %q", c.name, name)
			}
			continue
		}
		p.Stage(v)
	}
	return nil
}

// InputsSnapshot returns the exposed slot of every input port, the
// same dictionary Execute would build. A pool uses this to ship a
// component's inputs across the DispatchBridge instead of running fn
// in-process.
func (c *Component) InputsSnapshot() payload.Dict {
	c.mu.RLock()
	defer c.mu.RUnlock()
	inputs := make(payload.Dict, len(c.inputs))
	for name, p := range c.inputs {
		inputs[name] = p.Exposed()
	}
	return inputs
}

// ApplyRemoteOutputs stages outputs returned by a worker process in
// place of running fn locally, recording them as last_outputs exactly
// as Execute does. It is how a MultiprocessPool completes a
// dispatched component's execute phase.
func (c *Component) ApplyRemoteOutputs(inputs, outputs payload.Dict) {
	c.mu.Lock()
	c.lastInputs = inputs
	c.lastOutputs = outputs
	c.lastErr = nil
	c.mu.Unlock()

	for name, v := range outputs {
		p, ok := c.outPort(name)
		if !ok {
			continue
		}
		p.Stage(v)
	}
}

// Expose promotes every output port's staged value to exposed.
func (c *Component) Expose() {
	c.mu.RLock()
	ports := make([]*port.Port, 0, len(c.outputs))
	for _, p := range c.outputs {
		ports = append(ports, p)
	}
	c.mu.RUnlock()

	for _, p := range ports {
		p.Expose()
	}
}
