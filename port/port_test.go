package port_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dflow/payload"
	"github.com/sarchlab/dflow/port"
)

func TestPort(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Port Suite")
}

var _ = Describe("Port", func() {
	var p *port.Port

	BeforeEach(func() {
		p = port.New("out", port.Out)
	})

	It("starts with both slots empty", func() {
		Expect(p.Staged().Present()).To(BeFalse())
		Expect(p.Exposed().Present()).To(BeFalse())
	})

	It("keeps direction fixed", func() {
		Expect(p.Direction()).To(Equal(port.Out))
	})

	It("does not expose a staged value until Expose is called", func() {
		p.Stage(payload.Of(1))
		Expect(p.Exposed().Present()).To(BeFalse())

		p.Expose()
		Expect(p.Exposed().MustGet()).To(Equal(1))
		Expect(p.Staged().Present()).To(BeFalse())
	})

	It("leaves the exposed value untouched when staged is empty", func() {
		p.Stage(payload.Of(7))
		p.Expose()

		p.Expose() // no intervening Stage
		Expect(p.Exposed().MustGet()).To(Equal(7))
	})

	It("overwrites an unpromoted staged value", func() {
		p.Stage(payload.Of(1))
		p.Stage(payload.Of(2))
		p.Expose()
		Expect(p.Exposed().MustGet()).To(Equal(2))
	})

	It("lets collect deliver straight into the exposed slot", func() {
		in := port.New("in", port.In)
		in.SetExposed(payload.Of("delivered"))
		Expect(in.Exposed().MustGet()).To(Equal("delivered"))
	})
})
