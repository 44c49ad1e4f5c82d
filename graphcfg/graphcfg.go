// Package graphcfg loads a dataflow graph topology from YAML, the way
// the teacher's core.LoadProgramFileFromYAML loads a CGRA program: a
// typed root struct decoded with gopkg.in/yaml.v3, then converted into
// the runtime types the rest of the module operates on.
package graphcfg

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/dflow/component"
	"github.com/sarchlab/dflow/scheduler"
	"github.com/sarchlab/dflow/wiring"
)

// Root is the top-level YAML document shape.
type Root struct {
	Components []ComponentConfig `yaml:"components"`
	Edges      []EdgeConfig      `yaml:"edges"`
}

// ComponentConfig describes one node: its ports, its timing, and the
// name it resolves its transfer function through in a
// component.Registry. Worker, when set, additionally marks the
// component for off-process dispatch under that same registry name on
// the worker side.
type ComponentConfig struct {
	Name     string       `yaml:"name"`
	Transfer string       `yaml:"transfer"`
	Inputs   []string     `yaml:"inputs"`
	Outputs  []string     `yaml:"outputs"`
	Timing   TimingConfig `yaml:"timing"`
	Strict   bool         `yaml:"strict"`
	Worker   bool         `yaml:"worker"`
}

// TimingConfig mirrors component.Timing in YAML-addressable form.
type TimingConfig struct {
	Offset   int64 `yaml:"offset"`
	Interval int64 `yaml:"interval"`
	Sleep    int64 `yaml:"sleep"`
}

// EdgeConfig names an edge as "component.port" endpoints.
type EdgeConfig struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Graph is the materialized result of loading a Root: every named
// component, ready to register with a scheduler, plus the edges wired
// between them.
type Graph struct {
	Components map[string]*component.Component
	Edges      []wiring.Edge

	// NeedsWorker lists, in file order, the components whose
	// ComponentConfig.Worker was set and the registry name a pool
	// should Spawn them under.
	NeedsWorker []WorkerBinding

	timings map[string]component.Timing
}

// WorkerBinding pairs a component that needs off-process dispatch with
// the transfer function name its worker resolves through a
// component.Registry.
type WorkerBinding struct {
	Component *component.Component
	Transfer  string
}

// Load reads path, decodes it as a Root, and builds a Graph. registry
// supplies the transfer function for every component named by its
// Transfer field; Load fails if a name is not found there.
func Load(path string, registry *component.Registry) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("graphcfg: read %s: %w", path, err)
	}

	var root Root
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("graphcfg: parse %s: %w", path, err)
	}

	return build(&root, registry)
}

func build(root *Root, registry *component.Registry) (*Graph, error) {
	g := &Graph{
		Components: make(map[string]*component.Component, len(root.Components)),
		timings:    make(map[string]component.Timing, len(root.Components)),
	}

	for _, cc := range root.Components {
		fn, ok := registry.Lookup(cc.Transfer)
		if !ok {
			return nil, fmt.Errorf("graphcfg: component %q: no transfer function registered as %q", cc.Name, cc.Transfer)
		}

		c := component.New(fn, component.WithName(cc.Name), component.WithStrict(cc.Strict))
		for _, in := range cc.Inputs {
			if err := c.MakeInPort(in); err != nil {
				return nil, fmt.Errorf("graphcfg: component %q: %w", cc.Name, err)
			}
		}
		for _, out := range cc.Outputs {
			if err := c.MakeOutPort(out); err != nil {
				return nil, fmt.Errorf("graphcfg: component %q: %w", cc.Name, err)
			}
		}

		if _, exists := g.Components[cc.Name]; exists {
			return nil, fmt.Errorf("graphcfg: duplicate component name %q", cc.Name)
		}
		g.Components[cc.Name] = c

		t, err := cc.Timing.TimingOf()
		if err != nil {
			return nil, fmt.Errorf("graphcfg: component %q: %w", cc.Name, err)
		}
		g.timings[cc.Name] = t

		if cc.Worker {
			g.NeedsWorker = append(g.NeedsWorker, WorkerBinding{Component: c, Transfer: cc.Transfer})
		}
	}

	for _, ec := range root.Edges {
		producer, srcPort, err := g.resolveEndpoint(ec.From)
		if err != nil {
			return nil, fmt.Errorf("graphcfg: edge %q -> %q: %w", ec.From, ec.To, err)
		}
		consumer, dstPort, err := g.resolveEndpoint(ec.To)
		if err != nil {
			return nil, fmt.Errorf("graphcfg: edge %q -> %q: %w", ec.From, ec.To, err)
		}

		edge, err := wiring.Connect(producer, srcPort, consumer, dstPort)
		if err != nil {
			return nil, fmt.Errorf("graphcfg: edge %q -> %q: %w", ec.From, ec.To, err)
		}
		g.Edges = append(g.Edges, edge)
	}

	return g, nil
}

func (g *Graph) resolveEndpoint(ref string) (*component.Component, string, error) {
	name, port, ok := strings.Cut(ref, ".")
	if !ok {
		return nil, "", fmt.Errorf("endpoint %q is not of the form component.port", ref)
	}
	c, ok := g.Components[name]
	if !ok {
		return nil, "", fmt.Errorf("endpoint %q: no such component %q", ref, name)
	}
	return c, port, nil
}

// TimingOf converts a TimingConfig to a component.Timing.
func (tc TimingConfig) TimingOf() (component.Timing, error) {
	return component.NewTiming(tc.Offset, tc.Interval, tc.Sleep)
}

// Register adds every component in g to sched with the timing parsed
// from its YAML entry.
func (g *Graph) Register(sched *scheduler.VirtualTimeScheduler) error {
	for name, c := range g.Components {
		if err := sched.AddComponent(c, g.timings[name]); err != nil {
			return fmt.Errorf("graphcfg: component %q: %w", name, err)
		}
	}
	return nil
}
