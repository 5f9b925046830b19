package paceout

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"periph.io/x/conn/v3/gpio"

	"github.com/sarchlab/lifpace/pacer"
	"github.com/sarchlab/lifpace/sim/hooking"
	"github.com/sarchlab/lifpace/sim/timing"
	"github.com/sarchlab/lifpace/signal"
)

type fakePin struct {
	levels []gpio.Level
	fail   bool
}

func (p *fakePin) Name() string { return "GPIO17" }

func (p *fakePin) Out(l gpio.Level) error {
	if p.fail {
		return errors.New("write failed")
	}

	p.levels = append(p.levels, l)

	return nil
}

func tick(p *Pulse, trace pacer.Trace) {
	p.Func(hooking.HookCtx{Pos: pacer.HookPosTick, Item: trace})
}

var _ = Describe("Pulse", func() {
	var pin *fakePin

	BeforeEach(func() {
		pin = &fakePin{}
	})

	It("should start low", func() {
		p, err := NewPulse(pin, 2)

		Expect(err).NotTo(HaveOccurred())
		Expect(pin.levels).To(Equal([]gpio.Level{gpio.Low}))
		Expect(p.High()).To(BeFalse())
	})

	It("should hold the pin high for the pulse width", func() {
		p, _ := NewPulse(pin, 2)

		tick(p, pacer.Trace{Tick: 1, Pace: true})
		Expect(p.High()).To(BeTrue())

		tick(p, pacer.Trace{Tick: 2})
		Expect(p.High()).To(BeTrue())

		tick(p, pacer.Trace{Tick: 3})
		Expect(p.High()).To(BeFalse())

		tick(p, pacer.Trace{Tick: 4})

		Expect(pin.levels).To(Equal(
			[]gpio.Level{gpio.Low, gpio.High, gpio.Low}))
		Expect(p.Pulses()).To(Equal(uint64(1)))
		Expect(p.Err()).To(Succeed())
	})

	It("should ignore other hook positions", func() {
		p, _ := NewPulse(pin, 1)

		p.Func(hooking.HookCtx{
			Pos:  pacer.HookPosPace,
			Item: pacer.Trace{Tick: 1, Pace: true},
		})

		Expect(p.Pulses()).To(BeZero())
	})

	It("should treat a zero width as one tick", func() {
		p, _ := NewPulse(pin, 0)

		tick(p, pacer.Trace{Tick: 5, Pace: true})
		tick(p, pacer.Trace{Tick: 6})

		Expect(p.High()).To(BeFalse())
	})

	It("should collect write errors", func() {
		p, _ := NewPulse(pin, 1)
		pin.fail = true

		tick(p, pacer.Trace{Tick: 1, Pace: true})

		Expect(p.Err()).To(MatchError(ContainSubstring("write failed")))
	})

	It("should fail if the pin cannot be driven", func() {
		pin.fail = true

		_, err := NewPulse(pin, 1)

		Expect(err).To(MatchError(ContainSubstring("GPIO17")))
	})

	It("should pulse on every pace of a pacer component", func() {
		engine := timing.NewSerialEngine()
		comp, err := pacer.MakeBuilder().
			WithEngine(engine).
			WithSource(signal.NewConstant(signal.Baseline)).
			WithNumTicks(300).
			Build("Pacer")
		Expect(err).NotTo(HaveOccurred())

		p, _ := NewPulse(pin, 3)
		comp.AcceptHook(p)

		comp.TickNow()
		Expect(engine.Run()).To(Succeed())

		Expect(p.Pulses()).To(Equal(uint64(3)))
		Expect(p.High()).To(BeFalse())
		Expect(p.Close()).To(Succeed())
	})
})
