// Package pool implements MultiprocessPool, which routes a
// component's execute phase to a worker process over a DispatchBridge
// instead of running its transfer function in the scheduler's own
// process.
package pool

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/rs/xid"

	"github.com/sarchlab/dflow/bridge"
	"github.com/sarchlab/dflow/component"
	"github.com/sarchlab/dflow/payload"
)

// EnvFIFOID and EnvComponentName are the environment variables a
// worker process reads at startup to find its FIFO pair and the
// registry name of the transfer function it should run. WorkerFlag is
// the re-exec marker: the pool spawns the same binary it runs in,
// with this flag appended, rather than requiring a second built
// artifact.
const (
	EnvFIFOID        = "DFLOW_WORKER_FIFO_ID"
	EnvComponentName = "DFLOW_WORKER_COMPONENT"
	WorkerFlag       = "--dflow-worker"
)

type workerHandle struct {
	id     string
	cmd    *exec.Cmd
	client *bridge.Client
}

// MultiprocessPool satisfies scheduler.Pool. Each registered component
// gets its own worker process and FIFO pair; Dispatch ships that
// component's collected inputs across the bridge and stages whatever
// the worker returns, exactly as a local Execute would have staged
// fn's return value.
type MultiprocessPool struct {
	workerBinary string
	codec        payload.Codec

	mu      sync.Mutex
	workers map[*component.Component]*workerHandle
}

// Option configures a MultiprocessPool at construction.
type Option func(*MultiprocessPool)

// WithCodec overrides the default payload.GobCodec.
func WithCodec(c payload.Codec) Option {
	return func(p *MultiprocessPool) { p.codec = c }
}

// WithWorkerBinary overrides the executable path spawned for each
// worker. It defaults to os.Args[0], i.e. the pool's own binary
// re-exec'd with WorkerFlag, which must therefore call RunIfWorker
// early in main.
func WithWorkerBinary(path string) Option {
	return func(p *MultiprocessPool) { p.workerBinary = path }
}

// New creates an empty pool.
func New(opts ...Option) *MultiprocessPool {
	p := &MultiprocessPool{
		workerBinary: os.Args[0],
		codec:        payload.GobCodec{},
		workers:      make(map[*component.Component]*workerHandle),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Spawn starts a worker process for c and dials its side of a fresh
// FIFO pair. transferName must be registered in the component.Registry
// the worker binary consults via RunIfWorker. c's own in-process
// TransferFunc is never invoked once it is registered with a pool;
// only the worker's copy, looked up by transferName, runs.
func (p *MultiprocessPool) Spawn(ctx context.Context, c *component.Component, transferName string) error {
	id := c.Name() + "-" + xid.New().String()
	if err := bridge.MakeFIFOPair(id); err != nil {
		return fmt.Errorf("pool: spawn %s: %w", c.Name(), err)
	}

	cmd := exec.CommandContext(ctx, p.workerBinary, WorkerFlag)
	cmd.Env = append(os.Environ(),
		EnvFIFOID+"="+id,
		EnvComponentName+"="+transferName,
	)
	cmd.Stderr = os.Stderr
	cmd.Stdout = os.Stdout

	if err := cmd.Start(); err != nil {
		bridge.RemoveFIFOPair(id)
		return fmt.Errorf("pool: spawn %s: start worker: %w", c.Name(), err)
	}

	transport, err := bridge.DialParent(id)
	if err != nil {
		_ = cmd.Process.Kill()
		bridge.RemoveFIFOPair(id)
		return fmt.Errorf("pool: spawn %s: dial worker: %w", c.Name(), err)
	}

	p.mu.Lock()
	p.workers[c] = &workerHandle{
		id:     id,
		cmd:    cmd,
		client: bridge.NewClient(transport, p.codec),
	}
	p.mu.Unlock()

	slog.Info("pool: worker started", "component", c.Name(), "fifo_id", id, "pid", cmd.Process.Pid)
	return nil
}

// Dispatch satisfies scheduler.Pool: it reports handled=true for any
// component previously Spawned, shipping its collected inputs to the
// worker and applying whatever outputs come back. Components never
// Spawned are left for the scheduler's own in-process Execute.
func (p *MultiprocessPool) Dispatch(ctx context.Context, c *component.Component) (bool, error) {
	p.mu.Lock()
	h, ok := p.workers[c]
	p.mu.Unlock()
	if !ok {
		return false, nil
	}

	inputs := c.InputsSnapshot()
	outputs, err := h.client.Execute(inputs)
	if err != nil {
		// Transport failures (FIFO EOF, broken pipe, decode error on
		// the reply) get the same absorb-and-empty policy as an
		// in-worker failure: logged, never an aborting error.
		slog.Warn("pool: dispatch produced nothing this step",
			"component", c.Name(), "cause", err)
		c.ApplyRemoteOutputs(inputs, payload.Dict{})
		return true, nil
	}
	c.ApplyRemoteOutputs(inputs, outputs)
	return true, nil
}

// Close shuts down every worker and waits for its process to exit. It
// collects and returns the first error encountered but attempts every
// worker regardless.
func (p *MultiprocessPool) Close() error {
	p.mu.Lock()
	handles := make([]*workerHandle, 0, len(p.workers))
	for _, h := range p.workers {
		handles = append(handles, h)
	}
	p.workers = make(map[*component.Component]*workerHandle)
	p.mu.Unlock()

	var first error
	for _, h := range handles {
		if err := h.client.Shutdown(); err != nil && first == nil {
			first = err
		}
		if err := h.client.Close(); err != nil && first == nil {
			first = err
		}
		if err := h.cmd.Wait(); err != nil && first == nil {
			first = fmt.Errorf("pool: worker %s exit: %w", h.id, err)
		}
		bridge.RemoveFIFOPair(h.id)
	}
	return first
}
