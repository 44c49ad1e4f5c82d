// Command dflow-run loads a graph topology from YAML and steps its
// scheduler, printing port state after every tick. It doubles as the
// worker entrypoint: when re-exec'd with pool.WorkerFlag it serves the
// DispatchBridge for whichever component was assigned to it instead of
// building a graph at all.
package main

import (
	_ "embed"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/dflow/component"
	"github.com/sarchlab/dflow/graphcfg"
	"github.com/sarchlab/dflow/payload"
	"github.com/sarchlab/dflow/pool"
	"github.com/sarchlab/dflow/report"
	"github.com/sarchlab/dflow/scheduler"
)

//go:embed emit_pipe_null.yaml
var defaultGraph string

func builtinRegistry() *component.Registry {
	reg := component.NewRegistry()
	reg.Register("emit", func(payload.Dict) payload.Dict {
		return payload.Dict{"out": payload.Of(1)}
	})
	reg.Register("pipe", func(in payload.Dict) payload.Dict {
		return payload.Dict{"out": in["in"]}
	})
	reg.Register("sink", func(payload.Dict) payload.Dict {
		return payload.Dict{}
	})
	return reg
}

func main() {
	registry := builtinRegistry()

	ctx := context.Background()
	pool.RunIfWorker(ctx, registry) // never returns if this process is a worker

	graphPath := flag.String("graph", "", "path to a graph YAML file; defaults to the built-in emit/pipe/null sample")
	steps := flag.Int("steps", 5, "number of scheduler ticks to run")
	flag.Parse()

	var (
		g   *graphcfg.Graph
		err error
	)
	if *graphPath != "" {
		g, err = graphcfg.Load(*graphPath, registry)
	} else {
		g, err = loadEmbedded(registry)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "dflow-run:", err)
		os.Exit(1)
	}

	mp := pool.New()
	for _, wb := range g.NeedsWorker {
		if err := mp.Spawn(ctx, wb.Component, wb.Transfer); err != nil {
			fmt.Fprintln(os.Stderr, "dflow-run:", err)
			os.Exit(1)
		}
	}
	atexit.Register(func() { _ = mp.Close() })

	var schedOpts []scheduler.Option
	if len(g.NeedsWorker) > 0 {
		schedOpts = append(schedOpts, scheduler.WithPool(mp))
	}
	sched := scheduler.New(schedOpts...)
	if err := g.Register(sched); err != nil {
		fmt.Fprintln(os.Stderr, "dflow-run:", err)
		os.Exit(1)
	}

	snaps := snapshotsOf(g)
	for i := 0; i < *steps; i++ {
		if err := sched.Step(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "dflow-run:", err)
			os.Exit(1)
		}
		report.PrintPortState(os.Stdout, sched.Now(), snaps)
	}

	atexit.Exit(0)
}

func loadEmbedded(registry *component.Registry) (*graphcfg.Graph, error) {
	f, err := os.CreateTemp("", "dflow-run-*.yaml")
	if err != nil {
		return nil, err
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString(defaultGraph); err != nil {
		f.Close()
		return nil, err
	}
	f.Close()
	return graphcfg.Load(f.Name(), registry)
}

func snapshotsOf(g *graphcfg.Graph) []report.PortSnapshot {
	snaps := make([]report.PortSnapshot, 0, len(g.Components))
	for name, c := range g.Components {
		var ins, outs []string
		for _, e := range g.Edges {
			if e.Producer == c {
				outs = appendUnique(outs, e.SrcPort)
			}
			if e.Consumer == c {
				ins = appendUnique(ins, e.DstPort)
			}
		}
		snaps = append(snaps, report.PortSnapshot{Name: name, InPorts: ins, OutPorts: outs, Component: c})
	}
	return snaps
}

func appendUnique(ss []string, s string) []string {
	for _, existing := range ss {
		if existing == s {
			return ss
		}
	}
	return append(ss, s)
}
