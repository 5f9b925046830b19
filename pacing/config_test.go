package pacing

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	It("should derive the reference timing", func() {
		t, err := DefaultConfig().Derive()

		Expect(err).NotTo(HaveOccurred())
		Expect(t).To(Equal(Timing{
			EscapeTicks:  120,
			BlankTicks:   40,
			RefractTicks: 200,
		}))
	})

	It("should round down", func() {
		cfg := DefaultConfig()
		cfg.SampleRateHz = 250
		cfg.LowerRateBPM = 70
		cfg.BlankingMS = 10

		t, err := cfg.Derive()

		Expect(err).NotTo(HaveOccurred())
		Expect(t.EscapeTicks).To(Equal(uint64(214)))
		Expect(t.BlankTicks).To(Equal(uint64(2)))
		Expect(t.RefractTicks).To(Equal(uint64(50)))
	})

	It("should reject a zero blanking window", func() {
		cfg := DefaultConfig()
		cfg.BlankingMS = 0

		_, err := cfg.Derive()

		Expect(err).To(MatchError(ErrNonPositiveInterval))
	})

	It("should reject a window shorter than one tick", func() {
		cfg := DefaultConfig()
		cfg.SampleRateHz = 10
		cfg.BlankingMS = 40

		Expect(cfg.Validate()).To(MatchError(ErrNonPositiveInterval))
	})

	It("should reject an escape interval shorter than one tick", func() {
		cfg := DefaultConfig()
		cfg.SampleRateHz = 10
		cfg.LowerRateBPM = 1000
		cfg.BlankingMS = 1000
		cfg.RefractoryMS = 1000

		Expect(cfg.Validate()).To(MatchError(ErrNonPositiveInterval))
	})

	It("should reject a non-positive rate", func() {
		cfg := DefaultConfig()
		cfg.LowerRateBPM = 0

		Expect(cfg.Validate()).To(MatchError(ErrInvalidConfig))

		cfg = DefaultConfig()
		cfg.SampleRateHz = -1000

		Expect(cfg.Validate()).To(MatchError(ErrInvalidConfig))
	})

	It("should reject negative windows", func() {
		cfg := DefaultConfig()
		cfg.RefractoryMS = -1

		Expect(cfg.Validate()).To(MatchError(ErrInvalidConfig))
	})

	It("should reject negative or undefined pulse parameters", func() {
		for _, mutate := range []func(*Config){
			func(c *Config) { c.PulseAmplitudeMV = -1 },
			func(c *Config) { c.PulseWidthMS = math.NaN() },
			func(c *Config) { c.CaptureThresholdMV = math.Inf(1) },
		} {
			cfg := DefaultConfig()
			mutate(&cfg)

			Expect(cfg.Validate()).To(MatchError(ErrInvalidConfig))
		}
	})

	It("should capture most paces with the default pulse", func() {
		Expect(DefaultConfig().CaptureProbability()).
			To(BeNumerically("~", 0.985, 0.001))
	})

	It("should fail to build a controller from a bad config", func() {
		cfg := DefaultConfig()
		cfg.RefractoryMS = 0

		c, err := New(cfg)

		Expect(err).To(MatchError(ErrNonPositiveInterval))
		Expect(c).To(BeNil())
	})
})
