package pacer

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/lifpace/detector"
	"github.com/sarchlab/lifpace/pacing"
	"github.com/sarchlab/lifpace/signal"
)

func runCore(core *Core, src signal.Source, n int) []Trace {
	traces := make([]Trace, 0, n)

	for i := 0; i < n; i++ {
		s, err := src.Next()
		Expect(err).NotTo(HaveOccurred())

		t, err := core.Step(s)
		Expect(err).NotTo(HaveOccurred())

		traces = append(traces, t)
	}

	return traces
}

func ticksWhere(traces []Trace, pred func(Trace) bool) []uint64 {
	var ticks []uint64

	for _, t := range traces {
		if pred(t) {
			ticks = append(ticks, t.Tick)
		}
	}

	return ticks
}

var _ = Describe("Core", func() {
	var core *Core

	BeforeEach(func() {
		var err error
		core, err = NewCoreFromConfig(
			detector.DefaultConfig(), pacing.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
	})

	It("should detect a large beat without pacing", func() {
		src := signal.NewReferenceSequence()

		traces := runCore(core, src, 7)

		Expect(traces[0].Spike).To(BeTrue())
		Expect(traces[0].Sensed).To(BeTrue())
		Expect(ticksWhere(traces, func(t Trace) bool { return t.Pace })).
			To(BeEmpty())

		core.Reset()

		Expect(core.Tick()).To(Equal(uint64(0)))
		Expect(core.Detector().State()).To(Equal(detector.State{
			Theta:     1536,
			ThetaBase: 1536,
		}))
	})

	It("should pace once at the escape interval when holding", func() {
		cfg := pacing.DefaultConfig()
		cfg.HoldFirstEscape = true
		held, err := NewCoreFromConfig(detector.DefaultConfig(), cfg)
		Expect(err).NotTo(HaveOccurred())

		traces := runCore(held, signal.NewConstant(signal.Baseline), 120)

		Expect(ticksWhere(traces, func(t Trace) bool { return t.Pace })).
			To(Equal([]uint64{120}))
		Expect(ticksWhere(traces, func(t Trace) bool { return t.Spike })).
			To(BeEmpty())
	})

	It("should pace on the first tick of a silent signal", func() {
		traces := runCore(core, signal.NewConstant(signal.Baseline), 250)

		Expect(ticksWhere(traces, func(t Trace) bool { return t.Pace })).
			To(Equal([]uint64{1, 121, 241}))
	})

	It("should suppress a second beat in the detector refractory window", func() {
		src, err := signal.NewSequence([]signal.Sample{4095, 4095, 2048})
		Expect(err).NotTo(HaveOccurred())

		traces := runCore(core, src, 2)

		Expect(traces[1].Spike).To(BeFalse())
		Expect(traces[1].DetectorRefractory).To(BeTrue())
		Expect(traces[1].V).To(Equal(traces[0].V))
		Expect(traces[1].Theta).To(Equal(traces[0].Theta))
	})

	It("should ignore a beat in the blanking window", func() {
		src, err := signal.NewSequence([]signal.Sample{
			2048, 2048, 2048, 2048, 2048, 4095, 2048,
		})
		Expect(err).NotTo(HaveOccurred())

		traces := runCore(core, src, 6)

		Expect(traces[0].Pace).To(BeTrue())
		Expect(traces[5].Spike).To(BeTrue())
		Expect(traces[5].Ignored).To(BeTrue())
		Expect(traces[5].Sensed).To(BeFalse())
		Expect(core.Controller().State().TicksSinceEvent).
			To(Equal(uint64(5)))
	})

	It("should reject an out-of-range sample without advancing", func() {
		runCore(core, signal.NewReferenceSequence(), 3)
		det := core.Detector().State()

		t, err := core.Step(4096)

		Expect(err).To(MatchError(signal.ErrSampleOutOfRange))
		Expect(t.Tick).To(Equal(uint64(3)))
		Expect(core.Tick()).To(Equal(uint64(3)))
		Expect(core.Detector().State()).To(Equal(det))
	})

	It("should replay the reference sequence deterministically", func() {
		src := signal.NewReferenceSequence()
		first := runCore(core, src, 1000)

		core.Reset()
		src.Reset()
		second := runCore(core, src, 1000)

		Expect(second).To(Equal(first))
		Expect(ticksWhere(first, func(t Trace) bool { return t.Sensed })).
			To(Equal([]uint64{1, 201, 401, 601, 801}))
		Expect(ticksWhere(first, func(t Trace) bool { return t.Pace })).
			To(Equal([]uint64{121, 321, 521, 721, 921}))
		Expect(ticksWhere(first, func(t Trace) bool { return t.Spike })).
			To(HaveLen(200))
		Expect(ticksWhere(first, func(t Trace) bool { return t.Ignored })).
			To(HaveLen(195))
		Expect(first[6].Theta).To(Equal(int32(1785)))
	})
})
