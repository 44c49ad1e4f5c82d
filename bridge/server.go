package bridge

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sarchlab/dflow/component"
	"github.com/sarchlab/dflow/payload"
)

// Serve runs the child loop bound to t: it reads one control frame,
// dispatches per §4.6, and repeats until it receives OpShutdown, an
// empty control frame, or EOF. fn is the transfer function this
// worker runs for componentName, resolved by the caller from a
// component.Registry shared with the parent.
func Serve(ctx context.Context, t Transport, componentName string, fn component.TransferFunc, codec payload.Codec) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ctrl, err := t.ReadFrame()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("bridge: serve %s: read control frame: %w", componentName, err)
		}
		if len(ctrl) == 0 {
			return nil
		}

		switch Opcode(ctrl[0]) {
		case OpShutdown:
			return nil

		case OpExecute:
			if err := serveExecute(t, componentName, fn, codec); err != nil {
				return err
			}

		case OpIntrospect:
			if err := t.WriteFrame([]byte(componentName)); err != nil {
				return fmt.Errorf("bridge: serve %s: write introspect reply: %w", componentName, err)
			}

		default:
			// Malformed opcode: absorbed per §4.6, reply with an empty
			// dict rather than tearing down the worker.
			logAbsorbed(componentName, fmt.Errorf("unknown opcode %q", ctrl[0]))
			if err := writeDict(t, payload.Dict{}, codec); err != nil {
				return err
			}
		}
	}
}

func serveExecute(t Transport, componentName string, fn component.TransferFunc, codec payload.Codec) (err error) {
	inputs, err := readDict(t, codec)
	if err != nil {
		logAbsorbed(componentName, err)
		return writeDict(t, payload.Dict{}, codec)
	}

	outputs := runTransfer(componentName, fn, inputs)

	return writeDict(t, outputs, codec)
}

// runTransfer invokes fn, recovering a panic into an empty dict so a
// failing transfer function never crashes the worker (spec.md §4.6,
// §7: "the child does not crash the parent").
func runTransfer(componentName string, fn component.TransferFunc, inputs payload.Dict) (outputs payload.Dict) {
	defer func() {
		if r := recover(); r != nil {
			logAbsorbed(componentName, fmt.Errorf("transfer function panicked: %v", r))
			outputs = payload.Dict{}
		}
	}()

	if fn == nil {
		logAbsorbed(componentName, fmt.Errorf("no transfer function registered"))
		return payload.Dict{}
	}
	return fn(inputs)
}

func logAbsorbed(componentName string, cause error) {
	slog.Warn("bridge: execute produced nothing this step",
		"component", componentName,
		"correlation_id", uuid.NewString(),
		"cause", cause)
}
