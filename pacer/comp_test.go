package pacer

import (
	"io"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/lifpace/pacing"
	"github.com/sarchlab/lifpace/signal"
	"github.com/sarchlab/lifpace/sim/hooking"
	"github.com/sarchlab/lifpace/sim/timing"
)

type posCounter struct {
	counts map[*hooking.HookPos]int
	items  []interface{}
}

func newPosCounter() *posCounter {
	return &posCounter{counts: make(map[*hooking.HookPos]int)}
}

func (h *posCounter) Func(ctx hooking.HookCtx) {
	h.counts[ctx.Pos]++
	if ctx.Pos == HookPosReject {
		h.items = append(h.items, ctx.Item)
	}
}

var _ = Describe("Comp", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *timing.SerialEngine
		counter  *posCounter
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = timing.NewSerialEngine()
		counter = newPosCounter()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should run the reference sequence for the given ticks", func() {
		comp, err := MakeBuilder().
			WithEngine(engine).
			WithSource(signal.NewReferenceSequence()).
			WithNumTicks(1000).
			Build("Pacer")
		Expect(err).NotTo(HaveOccurred())
		comp.AcceptHook(counter)

		comp.TickNow()
		Expect(engine.Run()).To(Succeed())

		Expect(counter.counts[HookPosTick]).To(Equal(1000))
		Expect(counter.counts[HookPosSpike]).To(Equal(200))
		Expect(counter.counts[HookPosPace]).To(Equal(5))
		Expect(engine.Now()).To(BeNumerically("~", 1.0, 1e-9))

		s := comp.Snapshot()
		Expect(s.Name).To(Equal("Pacer"))
		Expect(s.Pulled).To(Equal(uint64(1000)))
		Expect(s.Done).To(BeTrue())
		Expect(s.Stats.Sensed).To(Equal(uint64(5)))
		Expect(s.Stats.LastPaced).To(Equal(uint64(921)))
		Expect(s.Timing.EscapeTicks).To(Equal(uint64(120)))
		Expect(comp.Err()).NotTo(HaveOccurred())
	})

	It("should stop when the source fails", func() {
		src := NewMockSource(mockCtrl)
		gomock.InOrder(
			src.EXPECT().Next().Return(signal.Sample(4095), nil),
			src.EXPECT().Next().Return(signal.Sample(0), io.EOF),
		)

		comp, err := MakeBuilder().
			WithEngine(engine).
			WithSource(src).
			Build("Pacer")
		Expect(err).NotTo(HaveOccurred())
		comp.AcceptHook(counter)

		comp.TickNow()
		Expect(engine.Run()).To(Succeed())

		Expect(comp.Err()).To(MatchError(io.EOF))
		Expect(counter.counts[HookPosSpike]).To(Equal(1))
		Expect(comp.Snapshot().Err).To(Equal("EOF"))
	})

	It("should report rejected samples and keep running", func() {
		src := NewMockSource(mockCtrl)
		gomock.InOrder(
			src.EXPECT().Next().Return(signal.Sample(5000), nil),
			src.EXPECT().Next().Return(signal.Sample(2048), nil),
			src.EXPECT().Next().Return(signal.Sample(0), io.EOF),
		)

		comp, err := MakeBuilder().
			WithEngine(engine).
			WithSource(src).
			Build("Pacer")
		Expect(err).NotTo(HaveOccurred())
		comp.AcceptHook(counter)

		comp.TickNow()
		Expect(engine.Run()).To(Succeed())

		Expect(counter.counts[HookPosReject]).To(Equal(1))
		Expect(counter.counts[HookPosTick]).To(Equal(1))
		Expect(counter.items).To(HaveLen(1))

		rej := counter.items[0].(Reject)
		Expect(rej.Tick).To(Equal(uint64(0)))
		Expect(rej.Sample).To(Equal(signal.Sample(5000)))
		Expect(rej.Err).To(MatchError(signal.ErrSampleOutOfRange))

		s := comp.Snapshot()
		Expect(s.Pulled).To(Equal(uint64(2)))
		Expect(s.Rejected).To(Equal(uint64(1)))
		Expect(s.Controller.Tick).To(Equal(uint64(1)))
	})

	It("should blank the artifact of its own pace", func() {
		cfg := pacing.DefaultConfig()
		cfg.PulseAmplitudeMV = 20
		comp, err := MakeBuilder().
			WithEngine(engine).
			WithSource(signal.NewConstant(signal.Baseline)).
			WithPacingConfig(cfg).
			WithPaceArtifact(2000, 5).
			WithNumTicks(40).
			Build("Pacer")
		Expect(err).NotTo(HaveOccurred())
		comp.AcceptHook(counter)

		comp.TickNow()
		Expect(engine.Run()).To(Succeed())

		stats := comp.Snapshot().Stats
		Expect(stats.Paced).To(Equal(uint64(1)))
		Expect(stats.Sensed).To(Equal(uint64(0)))
		Expect(stats.Ignored).To(Equal(uint64(2)))
		Expect(counter.counts[HookPosSpike]).To(Equal(2))
	})

	It("should add no artifact after a pace that fails to capture", func() {
		cfg := pacing.DefaultConfig()
		cfg.PulseAmplitudeMV = 0
		cfg.CaptureThresholdMV = 20
		comp, err := MakeBuilder().
			WithEngine(engine).
			WithSource(signal.NewConstant(signal.Baseline)).
			WithPacingConfig(cfg).
			WithPaceArtifact(2000, 5).
			WithNumTicks(40).
			Build("Pacer")
		Expect(err).NotTo(HaveOccurred())
		comp.AcceptHook(counter)

		comp.TickNow()
		Expect(engine.Run()).To(Succeed())

		stats := comp.Snapshot().Stats
		Expect(stats.Paced).To(Equal(uint64(1)))
		Expect(stats.Captured).To(Equal(uint64(0)))
		Expect(stats.Ignored).To(Equal(uint64(0)))
		Expect(counter.counts[HookPosSpike]).To(Equal(0))
	})

	It("should reject an out-of-range sample during an artifact", func() {
		cfg := pacing.DefaultConfig()
		cfg.PulseAmplitudeMV = 20
		src := NewMockSource(mockCtrl)
		gomock.InOrder(
			src.EXPECT().Next().Return(signal.Sample(2048), nil),
			src.EXPECT().Next().Return(signal.Sample(60000), nil),
			src.EXPECT().Next().Return(signal.Sample(0), io.EOF),
		)

		comp, err := MakeBuilder().
			WithEngine(engine).
			WithSource(src).
			WithPacingConfig(cfg).
			WithPaceArtifact(500, 10).
			Build("Pacer")
		Expect(err).NotTo(HaveOccurred())
		comp.AcceptHook(counter)

		comp.TickNow()
		Expect(engine.Run()).To(Succeed())

		Expect(counter.counts[HookPosPace]).To(Equal(1))
		Expect(counter.counts[HookPosReject]).To(Equal(1))
		rej := counter.items[0].(Reject)
		Expect(rej.Sample).To(Equal(signal.Sample(60000)))
		Expect(rej.Err).To(MatchError(signal.ErrSampleOutOfRange))

		s := comp.Snapshot()
		Expect(s.Rejected).To(Equal(uint64(1)))
		Expect(s.Controller.Tick).To(Equal(uint64(1)))
	})

	It("should start over after reset", func() {
		comp, err := MakeBuilder().
			WithEngine(engine).
			WithSource(signal.NewReferenceSequence()).
			WithNumTicks(10).
			Build("Pacer")
		Expect(err).NotTo(HaveOccurred())

		comp.TickNow()
		Expect(engine.Run()).To(Succeed())
		first := comp.Snapshot()

		comp.Reset()
		comp.TickLater()
		Expect(engine.Run()).To(Succeed())
		second := comp.Snapshot()

		Expect(second.Last).To(Equal(first.Last))
		Expect(second.Pulled).To(Equal(uint64(10)))
	})

	It("should refuse an invalid pacing configuration", func() {
		cfg := pacing.DefaultConfig()
		cfg.BlankingMS = 0

		comp, err := MakeBuilder().
			WithEngine(engine).
			WithSource(signal.NewReferenceSequence()).
			WithPacingConfig(cfg).
			Build("Pacer")

		Expect(err).To(MatchError(pacing.ErrNonPositiveInterval))
		Expect(comp).To(BeNil())
	})
})
