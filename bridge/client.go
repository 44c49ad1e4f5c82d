package bridge

import (
	"fmt"

	"github.com/sarchlab/dflow/payload"
)

// Client is the parent-side handle to a single worker's Transport.
type Client struct {
	transport Transport
	codec     payload.Codec
}

// NewClient wraps an already-dialed Transport.
func NewClient(t Transport, codec payload.Codec) *Client {
	return &Client{transport: t, codec: codec}
}

// Execute sends OpExecute with inputs and returns the worker's
// outputs. A transport-level failure is returned to the caller, which
// per §7 applies the same absorb-and-empty policy the bridge itself
// uses for in-worker failures.
func (c *Client) Execute(inputs payload.Dict) (payload.Dict, error) {
	if err := c.transport.WriteFrame([]byte{byte(OpExecute)}); err != nil {
		return nil, fmt.Errorf("bridge: client execute: send opcode: %w", err)
	}
	if err := writeDict(c.transport, inputs, c.codec); err != nil {
		return nil, fmt.Errorf("bridge: client execute: send inputs: %w", err)
	}
	outputs, err := readDict(c.transport, c.codec)
	if err != nil {
		return nil, fmt.Errorf("bridge: client execute: read outputs: %w", err)
	}
	return outputs, nil
}

// Introspect sends OpIntrospect and returns the worker's reply frame
// (the registered component name it resolves its transfer function
// through).
func (c *Client) Introspect() (string, error) {
	if err := c.transport.WriteFrame([]byte{byte(OpIntrospect)}); err != nil {
		return "", fmt.Errorf("bridge: client introspect: send opcode: %w", err)
	}
	reply, err := c.transport.ReadFrame()
	if err != nil {
		return "", fmt.Errorf("bridge: client introspect: read reply: %w", err)
	}
	return string(reply), nil
}

// Shutdown sends OpShutdown. The worker is expected to exit cleanly
// after receiving it.
func (c *Client) Shutdown() error {
	if err := c.transport.WriteFrame([]byte{byte(OpShutdown)}); err != nil {
		return fmt.Errorf("bridge: client shutdown: %w", err)
	}
	return nil
}

// Close closes the underlying transport.
func (c *Client) Close() error {
	return c.transport.Close()
}
