package component_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dflow/component"
	"github.com/sarchlab/dflow/payload"
)

func TestComponent(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Component Suite")
}

var _ = Describe("Timing", func() {
	It("rejects a negative offset", func() {
		_, err := component.NewTiming(-1, 1, 0)
		Expect(err).To(HaveOccurred())
	})

	It("rejects a negative interval", func() {
		_, err := component.NewTiming(0, -1, 0)
		Expect(err).To(HaveOccurred())
	})

	It("accepts non-negative values", func() {
		tm, err := component.NewTiming(0, 1, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(tm).To(Equal(component.Timing{Offset: 0, Interval: 1, Sleep: 2}))
	})
})

var _ = Describe("Component", func() {
	It("assigns a generated name when none is given", func() {
		c := component.New(func(payload.Dict) payload.Dict { return nil })
		Expect(c.Name()).NotTo(BeEmpty())
	})

	It("honors an explicit name", func() {
		c := component.New(func(payload.Dict) payload.Dict { return nil }, component.WithName("emit"))
		Expect(c.Name()).To(Equal("emit"))
	})

	It("rejects redefining a port under the opposite direction", func() {
		c := component.New(func(payload.Dict) payload.Dict { return nil })
		Expect(c.MakeInPort("k")).To(Succeed())
		Expect(c.MakeOutPort("k")).NotTo(Succeed())
	})

	It("runs collect/execute/expose end to end", func() {
		key := "default"
		value := []int{1, 2, 3}

		var emitted payload.Dict
		emit := component.New(func(payload.Dict) payload.Dict {
			emitted = payload.Dict{key: payload.Of(value)}
			return emitted
		}, component.WithName("emit"))
		Expect(emit.MakeOutPort(key)).To(Succeed())

		pipe := component.New(func(in payload.Dict) payload.Dict {
			return payload.Dict(in)
		}, component.WithName("pipe"))
		Expect(pipe.MakeInPort(key)).To(Succeed())
		Expect(pipe.MakeOutPort(key)).To(Succeed())
		Expect(pipe.BindSource(key, component.Source{Producer: emit, PortName: key})).To(Succeed())

		Expect(emit.GetOutput(key).Present()).To(BeFalse())
		Expect(pipe.GetInput(key).Present()).To(BeFalse())

		emit.Collect()
		Expect(emit.Execute()).To(Succeed())
		emit.Expose()

		Expect(emit.GetOutput(key).MustGet()).To(Equal(value))
		Expect(emit.GetOutPortValue(key).Present()).To(BeTrue(), "Expose promotes staged to exposed synchronously when called directly, outside any scheduler step")

		pipe.Collect()
		Expect(pipe.GetInput(key).Present()).To(BeTrue(), "pipe collects emit's already-exposed value")
	})

	It("surfaces a transfer function panic as an error", func() {
		c := component.New(func(payload.Dict) payload.Dict {
			panic("boom")
		})
		err := c.Execute()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("boom"))
	})

	It("ignores unknown output keys in permissive mode", func() {
		c := component.New(func(payload.Dict) payload.Dict {
			return payload.Dict{"nope": payload.Of(1)}
		})
		Expect(c.Execute()).To(Succeed())
	})

	It("errors on unknown output keys in strict mode", func() {
		c := component.New(func(payload.Dict) payload.Dict {
			return payload.Dict{"nope": payload.Of(1)}
		}, component.WithStrict(true))
		Expect(c.Execute()).NotTo(Succeed())
	})
})

var _ = Describe("Registry", func() {
	It("looks up a registered transfer function by name", func() {
		reg := component.NewRegistry()
		fn := func(payload.Dict) payload.Dict { return nil }
		Expect(reg.Register("identity", fn)).To(Succeed())

		_, ok := reg.Lookup("identity")
		Expect(ok).To(BeTrue())
	})

	It("rejects re-registering a name", func() {
		reg := component.NewRegistry()
		fn := func(payload.Dict) payload.Dict { return nil }
		Expect(reg.Register("identity", fn)).To(Succeed())
		Expect(reg.Register("identity", fn)).NotTo(Succeed())
	})
})
