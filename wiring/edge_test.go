package wiring_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dflow/component"
	"github.com/sarchlab/dflow/payload"
	"github.com/sarchlab/dflow/wiring"
)

func TestWiring(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Wiring Suite")
}

func identity(in payload.Dict) payload.Dict { return in }

var _ = Describe("Connect", func() {
	var producer, consumer *component.Component

	BeforeEach(func() {
		producer = component.New(identity, component.WithName("producer"))
		consumer = component.New(identity, component.WithName("consumer"))
		Expect(producer.MakeOutPort("k")).To(Succeed())
		Expect(consumer.MakeInPort("k")).To(Succeed())
	})

	It("wires an edge between a valid output and input port", func() {
		_, err := wiring.Connect(producer, "k", consumer, "k")
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects a missing source port", func() {
		_, err := wiring.Connect(producer, "missing", consumer, "k")
		Expect(err).To(HaveOccurred())
	})

	It("rejects a missing destination port", func() {
		_, err := wiring.Connect(producer, "k", consumer, "missing")
		Expect(err).To(HaveOccurred())
	})

	It("rejects a second incoming edge on the same input port", func() {
		other := component.New(identity, component.WithName("other"))
		Expect(other.MakeOutPort("k")).To(Succeed())

		_, err := wiring.Connect(producer, "k", consumer, "k")
		Expect(err).NotTo(HaveOccurred())

		_, err = wiring.Connect(other, "k", consumer, "k")
		Expect(err).To(HaveOccurred())
	})

	It("allows fan-out from one output port to many inputs", func() {
		consumer2 := component.New(identity, component.WithName("consumer2"))
		Expect(consumer2.MakeInPort("k")).To(Succeed())

		_, err := wiring.Connect(producer, "k", consumer, "k")
		Expect(err).NotTo(HaveOccurred())
		_, err = wiring.Connect(producer, "k", consumer2, "k")
		Expect(err).NotTo(HaveOccurred())
	})
})
