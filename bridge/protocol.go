// Package bridge implements the DispatchBridge wire protocol that
// lets a component's execute phase run in a separate worker process
// while preserving the collect/execute/expose contract on the
// scheduler's side.
package bridge

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/sarchlab/dflow/payload"
)

// Opcode is the control byte sent parent-to-child on a single frame.
type Opcode byte

const (
	// OpShutdown tells the child to exit cleanly.
	OpShutdown Opcode = '0'
	// OpExecute is followed by an encoded inputs Dict; the child runs
	// the transfer function and replies with an encoded outputs Dict.
	OpExecute Opcode = '1'
	// OpIntrospect asks the child to reply with an encoded reference
	// to its transfer function, used for pool warm-up/migration.
	OpIntrospect Opcode = '2'
)

// Transport is a pair of byte-framed, length-prefixed channels: one
// per direction. A fifoTransport backs this with a pair of named
// pipes per §6; tests back it with an in-memory pipe.
type Transport interface {
	ReadFrame() ([]byte, error)
	WriteFrame(b []byte) error
	Close() error
}

// writeFrame writes a length-prefixed frame. A nil or empty b encodes
// as the legal zero-length sentinel frame.
func writeFrame(w io.Writer, b []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("bridge: write frame length: %w", err)
	}
	if len(b) == 0 {
		return nil
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("bridge: write frame body: %w", err)
	}
	return nil
}

// readFrame reads one length-prefixed frame. io.EOF is returned
// unmodified when the peer has closed the channel before sending
// anything.
func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("bridge: read frame body: %w", err)
	}
	return buf, nil
}

// writeDict encodes a payload.Dict as (key, value)* terminated by an
// empty key frame. An empty Value encodes as an empty value frame,
// the "no value" sentinel.
func writeDict(t Transport, d payload.Dict, codec payload.Codec) error {
	for key, v := range d {
		if err := t.WriteFrame([]byte(key)); err != nil {
			return err
		}
		var enc []byte
		if v.Present() {
			b, err := codec.Encode(v.MustGet())
			if err != nil {
				return fmt.Errorf("bridge: encode value for key %q: %w", key, err)
			}
			enc = b
		}
		if err := t.WriteFrame(enc); err != nil {
			return err
		}
	}
	return t.WriteFrame(nil) // empty key frame terminates the dict
}

// readDict decodes a dictionary framed as (key, value)* terminated by
// an empty key frame.
func readDict(t Transport, codec payload.Codec) (payload.Dict, error) {
	d := make(payload.Dict)
	for {
		key, err := t.ReadFrame()
		if err != nil {
			return nil, err
		}
		if len(key) == 0 {
			return d, nil
		}
		val, err := t.ReadFrame()
		if err != nil {
			return nil, err
		}
		if len(val) == 0 {
			d[string(key)] = payload.Empty
			continue
		}
		p, err := codec.Decode(val)
		if err != nil {
			return nil, fmt.Errorf("bridge: decode value for key %q: %w", key, err)
		}
		d[string(key)] = payload.Of(p)
	}
}
