package graphcfg_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sarchlab/dflow/component"
	"github.com/sarchlab/dflow/graphcfg"
	"github.com/sarchlab/dflow/payload"
	"github.com/sarchlab/dflow/scheduler"
)

const yamlDoc = `
components:
  - name: emit
    transfer: emit
    outputs: [out]
    timing: {offset: 0, interval: 1, sleep: 0}
  - name: pipe
    transfer: pipe
    inputs: [in]
    outputs: [out]
    timing: {offset: 0, interval: 1, sleep: 0}
edges:
  - from: emit.out
    to: pipe.in
`

func TestLoadBuildsGraphAndWiresEdges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yaml")
	if err := os.WriteFile(path, []byte(yamlDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	registry := component.NewRegistry()
	registry.Register("emit", func(payload.Dict) payload.Dict {
		return payload.Dict{"out": payload.Of(7)}
	})
	registry.Register("pipe", func(in payload.Dict) payload.Dict {
		return payload.Dict{"out": in["in"]}
	})

	g, err := graphcfg.Load(path, registry)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Components) != 2 {
		t.Fatalf("got %d components, want 2", len(g.Components))
	}
	if len(g.Edges) != 1 {
		t.Fatalf("got %d edges, want 1", len(g.Edges))
	}

	sched := scheduler.New()
	if err := g.Register(sched); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := sched.Step(ctx); err != nil {
			t.Fatal(err)
		}
	}

	pipeOut := g.Components["pipe"].GetOutPortValue("out")
	if !pipeOut.Present() || pipeOut.MustGet() != 7 {
		t.Fatalf("got %#v, want 7", pipeOut)
	}
}

func TestLoadRejectsUnregisteredTransfer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yaml")
	doc := `
components:
  - name: lonely
    transfer: missing
    outputs: [out]
    timing: {offset: 0, interval: 1, sleep: 0}
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := graphcfg.Load(path, component.NewRegistry())
	if err == nil {
		t.Fatal("expected an error for an unregistered transfer function")
	}
}

func TestLoadRejectsMalformedEdgeEndpoint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yaml")
	doc := `
components:
  - name: solo
    transfer: noop
    outputs: [out]
    timing: {offset: 0, interval: 1, sleep: 0}
edges:
  - from: solo-out
    to: solo.out
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	registry := component.NewRegistry()
	registry.Register("noop", func(in payload.Dict) payload.Dict { return in })

	_, err := graphcfg.Load(path, registry)
	if err == nil {
		t.Fatal("expected an error for a malformed edge endpoint")
	}
}
