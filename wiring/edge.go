// Package wiring implements the directed association from an output
// port to an input port of another component.
package wiring

import (
	"fmt"

	"github.com/sarchlab/dflow/component"
)

// Edge is a directed, source-keyed wiring from one component's output
// port to another component's input port.
type Edge struct {
	Producer *component.Component
	SrcPort  string
	Consumer *component.Component
	DstPort  string
}

// Connect registers an edge from producer's srcName output port to
// consumer's dstName input port. It rejects the connection if either
// port is missing, of the wrong direction, or if dstName already has
// an incoming edge.
func Connect(producer *component.Component, srcName string, consumer *component.Component, dstName string) (Edge, error) {
	if !producer.HasOutPort(srcName) {
		return Edge{}, fmt.Errorf("wiring: %s has no output port %q", producer.Name(), srcName)
	}
	if !consumer.HasInPort(dstName) {
		return Edge{}, fmt.Errorf("wiring: %s has no input port %q", consumer.Name(), dstName)
	}

	err := consumer.BindSource(dstName, component.Source{
		Producer: producer,
		PortName: srcName,
	})
	if err != nil {
		return Edge{}, fmt.Errorf("wiring: connect %s.%s -> %s.%s: %w",
			producer.Name(), srcName, consumer.Name(), dstName, err)
	}

	return Edge{
		Producer: producer,
		SrcPort:  srcName,
		Consumer: consumer,
		DstPort:  dstName,
	}, nil
}
