// Package scheduler implements the virtual-time scheduler that
// advances simulated time in explicit ticks, driving each due
// component's collect/execute/expose cycle with a phase barrier
// across components.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/sarchlab/dflow/component"
)

// Pool is the subset of pool.MultiprocessPool the scheduler needs:
// routing a component's execute call to a worker process. A
// VirtualTimeScheduler constructed without a pool runs every
// component's Execute in-process.
type Pool interface {
	// Dispatch reports whether c is routed off-process. If true, the
	// scheduler skips its own in-process Execute for c; the pool is
	// responsible for staging c's outputs via the bridge before
	// returning.
	Dispatch(ctx context.Context, c *component.Component) (handled bool, err error)
}

type registration struct {
	comp      *component.Component
	timing    component.Timing
	nextFire  int64
	sleepLeft int64
	armed     bool
}

// VirtualTimeScheduler advances virtual time in explicit steps and
// drives the collect/execute/expose micro-protocol of every component
// due at that tick.
//
// Expose of the components that fired in step N is deferred to the
// very start of step N+1, immediately before that step's collect: this
// is what makes a component's own Execute-produced value invisible to
// a direct GetOutPortValue query until the scheduler is stepped again,
// exactly as spec's worked emit/pipe/null table requires, even though
// the component's own GetOutput (staged-or-exposed) reflects the new
// value immediately.
type VirtualTimeScheduler struct {
	pool Pool

	regs []*registration
	byID map[*component.Component]*registration

	t int64

	pendingExpose []*component.Component

	strictOrder bool // run due components in name order; New always enables it
}

// Option configures a VirtualTimeScheduler at construction.
type Option func(*VirtualTimeScheduler)

// WithPool attaches a MultiprocessPool so registered off-process
// components dispatch their Execute phase through the bridge instead
// of running in-process.
func WithPool(p Pool) Option {
	return func(s *VirtualTimeScheduler) { s.pool = p }
}

// New creates a scheduler with virtual time starting at 0.
func New(opts ...Option) *VirtualTimeScheduler {
	s := &VirtualTimeScheduler{
		byID:        make(map[*component.Component]*registration),
		strictOrder: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the scheduler's current virtual time.
func (s *VirtualTimeScheduler) Now() int64 { return s.t }

// AddComponent registers c with timing t. Its next firing is set to
// t.Offset.
func (s *VirtualTimeScheduler) AddComponent(c *component.Component, t component.Timing) error {
	if _, ok := s.byID[c]; ok {
		return fmt.Errorf("scheduler: component %s already registered", c.Name())
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("scheduler: add component %s: %w", c.Name(), err)
	}
	reg := &registration{
		comp:     c,
		timing:   t,
		nextFire: t.Offset,
	}
	s.regs = append(s.regs, reg)
	s.byID[c] = reg
	return nil
}

// Step advances virtual time to the earliest pending firing, runs the
// collect/execute phases for every component due at that time (and
// not asleep), and exposes the previous step's results. It returns an
// error if any in-process transfer function failed, aborting the
// step.
func (s *VirtualTimeScheduler) Step(ctx context.Context) error {
	if len(s.regs) == 0 {
		return nil
	}

	s.flushPendingExpose()

	t := s.earliestNextFire()
	s.t = t

	due := s.dueComponents(t)
	if s.strictOrder {
		sort.Slice(due, func(i, j int) bool {
			return due[i].comp.Name() < due[j].comp.Name()
		})
	}

	for _, reg := range due {
		reg.comp.Collect()
	}

	executed := make([]*component.Component, 0, len(due))
	for _, reg := range due {
		if err := s.execute(ctx, reg.comp); err != nil {
			return fmt.Errorf("scheduler: step at t=%d: %w", t, err)
		}
		executed = append(executed, reg.comp)
	}

	s.pendingExpose = executed

	return nil
}

func (s *VirtualTimeScheduler) execute(ctx context.Context, c *component.Component) error {
	if s.pool != nil {
		handled, err := s.pool.Dispatch(ctx, c)
		if err != nil {
			return err
		}
		if handled {
			return nil
		}
	}
	return c.Execute()
}

func (s *VirtualTimeScheduler) flushPendingExpose() {
	for _, c := range s.pendingExpose {
		c.Expose()
	}
	s.pendingExpose = nil
}

func (s *VirtualTimeScheduler) earliestNextFire() int64 {
	min := s.regs[0].nextFire
	for _, reg := range s.regs[1:] {
		if reg.nextFire < min {
			min = reg.nextFire
		}
	}
	return min
}

// dueComponents advances bookkeeping (next fire, sleep countdown) for
// every registration whose next fire equals t, and returns those that
// actually fire this tick (sleep exhausted).
func (s *VirtualTimeScheduler) dueComponents(t int64) []*registration {
	var due []*registration
	for _, reg := range s.regs {
		if reg.nextFire != t {
			continue
		}

		if reg.sleepLeft > 0 {
			reg.sleepLeft--
			reg.nextFire += reg.timing.Interval
			slog.Log(context.Background(), LevelStep, "component asleep, skipping firing",
				"component", reg.comp.Name(), "t", t, "sleep_left", reg.sleepLeft)
			continue
		}

		due = append(due, reg)
		reg.nextFire += reg.timing.Interval
		if !reg.armed {
			reg.sleepLeft = reg.timing.Sleep
			reg.armed = true
		}
	}
	return due
}
