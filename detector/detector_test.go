package detector

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/lifpace/signal"
)

func mustStep(d *Detector, s signal.Sample) Output {
	out, err := d.Step(s)
	Expect(err).NotTo(HaveOccurred())

	return out
}

var _ = Describe("Detector", func() {
	var d *Detector

	BeforeEach(func() {
		var err error
		d, err = New(DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
	})

	It("should start from the reset state", func() {
		Expect(d.State()).To(Equal(State{V: 0, Theta: 1536, ThetaBase: 1536}))
	})

	It("should refuse an invalid configuration", func() {
		cfg := DefaultConfig()
		cfg.Gain = -1

		_, err := New(cfg)
		Expect(err).To(MatchError(ErrInvalidGain))
	})

	It("should spike on a full-scale beat", func() {
		out := mustStep(d, 4095)

		Expect(out.Spike).To(BeTrue())
		Expect(out.Drive).To(Equal(int32(2047 * 40)))
		Expect(out.V).To(Equal(int32(0)))
		Expect(out.Theta).To(Equal(int32(1536 + 128)))
		Expect(d.State().Refractory).To(Equal(3))
	})

	It("should filter the dead zone inclusively", func() {
		out := mustStep(d, 2048+100)
		Expect(out.Drive).To(Equal(int32(0)))

		out = mustStep(d, 2048-100)
		Expect(out.Drive).To(Equal(int32(0)))

		out = mustStep(d, 2048+101)
		Expect(out.Drive).To(Equal(int32(101 * 40)))
	})

	It("should leak one sixteenth per tick", func() {
		cfg := DefaultConfig()
		cfg.ThetaBase = 1 << 20
		d, _ = New(cfg)

		out := mustStep(d, 2048+101)
		Expect(out.Spike).To(BeFalse())
		Expect(out.V).To(Equal(int32(4040)))

		out = mustStep(d, 2048)
		Expect(out.V).To(Equal(int32(4040 - 4040/16)))
	})

	It("should floor the leak of a negative potential", func() {
		out := mustStep(d, 2048-101)
		Expect(out.V).To(Equal(int32(-4040)))

		out = mustStep(d, 2048)
		Expect(out.V).To(Equal(int32(-4040 + 253)))
	})

	It("should relax the threshold towards the base", func() {
		mustStep(d, 4095)
		for i := 0; i < 3; i++ {
			mustStep(d, 2048)
		}

		out := mustStep(d, 2048)
		Expect(out.Theta).To(Equal(int32(1664 - 4)))

		out = mustStep(d, 2048)
		Expect(out.Theta).To(Equal(int32(1660 - 3)))
	})

	It("should suppress a second beat inside the refractory window", func() {
		first := mustStep(d, 4095)
		Expect(first.Spike).To(BeTrue())

		second := mustStep(d, 4095)
		Expect(second.Spike).To(BeFalse())
		Expect(second.Refractory).To(BeTrue())
		Expect(second.V).To(Equal(first.V))
		Expect(second.Theta).To(Equal(first.Theta))
	})

	It("should integrate again after the refractory window", func() {
		mustStep(d, 4095)
		for i := 0; i < 3; i++ {
			out := mustStep(d, 4095)
			Expect(out.Spike).To(BeFalse())
		}

		out := mustStep(d, 4095)
		Expect(out.Spike).To(BeTrue())
		Expect(out.Theta).To(Equal(int32(1536 + 2*128)))
	})

	It("should reject an out-of-range sample without changing state", func() {
		mustStep(d, 4095)
		before := d.State()

		_, err := d.Step(4096)
		Expect(err).To(MatchError(signal.ErrSampleOutOfRange))
		Expect(d.State()).To(Equal(before))
	})

	It("should spike during the first two reference samples", func() {
		spiked := false
		for _, s := range []signal.Sample{4095, 2048} {
			spiked = mustStep(d, s).Spike || spiked
		}

		Expect(spiked).To(BeTrue())
	})

	It("should reset", func() {
		mustStep(d, 4095)
		d.Reset()

		Expect(d.State()).To(Equal(State{V: 0, Theta: 1536, ThetaBase: 1536}))
	})

	Context("with random input", func() {
		It("should hold the step invariants", func() {
			rng := rand.New(rand.NewSource(7))

			for i := 0; i < 20000; i++ {
				before := d.State()
				out := mustStep(d, signal.Sample(rng.Intn(4096)))

				switch {
				case before.Refractory > 0:
					Expect(out.Spike).To(BeFalse())
					Expect(out.V).To(Equal(before.V))
					Expect(out.Theta).To(Equal(before.Theta))
				case out.Spike:
					Expect(out.V).To(Equal(int32(0)))
					Expect(out.Theta - before.Theta).To(Equal(int32(128)))
				default:
					Expect(abs(out.Theta - 1536)).To(
						BeNumerically("<=", abs(before.Theta-1536)))
				}
			}
		})
	})

	Context("with homeostasis", func() {
		BeforeEach(func() {
			cfg := DefaultConfig()
			cfg.Homeostasis = HomeostasisConfig{
				WindowTicks:  10,
				TargetSpikes: 1,
				Rate:         50,
				MinBase:      1000,
				MaxBase:      1700,
			}

			var err error
			d, err = New(cfg)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should lower the base when the detector is too quiet", func() {
			for i := 0; i < 10; i++ {
				mustStep(d, 2048)
			}

			Expect(d.State().ThetaBase).To(Equal(int32(1536 - 50)))
		})

		It("should raise the base up to the clamp when spiking too often", func() {
			seq := signal.NewReferenceSequence()
			for i := 0; i < 100; i++ {
				s, _ := seq.Next()
				mustStep(d, s)
			}

			Expect(d.State().ThetaBase).To(Equal(int32(1700)))
		})
	})
})

func abs(x int32) int32 {
	if x < 0 {
		return -x
	}

	return x
}
