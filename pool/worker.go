package pool

import (
	"context"
	"fmt"
	"os"

	"github.com/sarchlab/dflow/bridge"
	"github.com/sarchlab/dflow/component"
	"github.com/sarchlab/dflow/payload"
)

// IsWorker reports whether the current process was re-exec'd by
// Spawn, i.e. it was launched with WorkerFlag. main should check this
// before building its own graph and call RunIfWorker instead.
func IsWorker() bool {
	for _, a := range os.Args[1:] {
		if a == WorkerFlag {
			return true
		}
	}
	return false
}

// RunIfWorker runs the DispatchBridge child loop and never returns to
// the caller if the process was spawned by Spawn; it calls os.Exit
// itself. Callers that only want the error rather than process exit
// should use RunWorker directly.
func RunIfWorker(ctx context.Context, registry *component.Registry) {
	if !IsWorker() {
		return
	}
	if err := RunWorker(ctx, registry, payload.GobCodec{}); err != nil {
		fmt.Fprintln(os.Stderr, "dflow worker:", err)
		os.Exit(1)
	}
	os.Exit(0)
}

// RunWorker dials the child side of the FIFO pair named by EnvFIFOID
// and serves it with the transfer function registered under
// EnvComponentName, blocking until shutdown.
func RunWorker(ctx context.Context, registry *component.Registry, codec payload.Codec) error {
	id := os.Getenv(EnvFIFOID)
	if id == "" {
		return fmt.Errorf("pool: worker: %s not set", EnvFIFOID)
	}
	name := os.Getenv(EnvComponentName)
	if name == "" {
		return fmt.Errorf("pool: worker: %s not set", EnvComponentName)
	}

	transport, err := bridge.DialChild(id)
	if err != nil {
		return fmt.Errorf("pool: worker %s: dial: %w", name, err)
	}
	defer transport.Close()

	fn, _ := registry.Lookup(name)
	return bridge.Serve(ctx, transport, name, fn, codec)
}
