package payload

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Codec encodes and decodes a Payload for off-process transport over
// the dispatch bridge. Implementations must be a bijection on the
// payloads a transfer function actually emits and consumes; the core
// requires nothing more of them.
type Codec interface {
	Encode(p Payload) ([]byte, error)
	Decode(b []byte) (Payload, error)
}

// GobCodec is the default Codec, built on the standard library's gob
// encoding. Components whose payloads are gob-registered concrete
// types (see gob.Register) can use it unmodified; a host that needs a
// different wire format supplies its own Codec instead.
type GobCodec struct{}

// Encode gob-encodes p.
func (GobCodec) Encode(p Payload) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&p); err != nil {
		return nil, fmt.Errorf("payload: gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode gob-decodes b into a Payload.
func (GobCodec) Decode(b []byte) (Payload, error) {
	var p Payload
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&p); err != nil {
		return nil, fmt.Errorf("payload: gob decode: %w", err)
	}
	return p, nil
}
