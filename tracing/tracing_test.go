package tracing

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/lifpace/datarecording"
	"github.com/sarchlab/lifpace/pacer"
	"github.com/sarchlab/lifpace/signal"
	"github.com/sarchlab/lifpace/sim/timing"
)

type memoryWriter struct {
	wheres  []string
	traces  []pacer.Trace
	flushes int
}

func (w *memoryWriter) Write(where string, trace pacer.Trace) {
	w.wheres = append(w.wheres, where)
	w.traces = append(w.traces, trace)
}

func (w *memoryWriter) Flush() {
	w.flushes++
}

func buildPacer(engine timing.Engine, source signal.Source, n uint64) *pacer.Comp {
	comp, err := pacer.MakeBuilder().
		WithEngine(engine).
		WithSource(source).
		WithNumTicks(n).
		Build("Pacer")
	Expect(err).NotTo(HaveOccurred())

	return comp
}

func run(engine *timing.SerialEngine, comp *pacer.Comp) {
	comp.TickNow()
	Expect(engine.Run()).To(Succeed())
}

var _ = Describe("Trace collection", func() {
	var (
		engine *timing.SerialEngine
		comp   *pacer.Comp
	)

	BeforeEach(func() {
		engine = timing.NewSerialEngine()
		comp = buildPacer(engine, signal.NewReferenceSequence(), 100)
	})

	It("should pass every accepted tick to the writer", func() {
		w := &memoryWriter{}
		CollectTrace(comp, w)

		run(engine, comp)

		Expect(w.traces).To(HaveLen(100))
		Expect(w.wheres[0]).To(Equal("Pacer"))
		Expect(w.traces[0].Spike).To(BeTrue())
		Expect(w.traces[99].Tick).To(Equal(uint64(100)))
	})

	It("should not attach the same writer twice", func() {
		w := &memoryWriter{}
		CollectTrace(comp, w)

		Expect(func() { CollectTrace(comp, w) }).To(Panic())
	})

	It("should write a CSV file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "trace")
		w := NewCSVTraceWriter(path)
		Expect(w.Init()).To(Succeed())
		CollectTrace(comp, w)

		run(engine, comp)
		Expect(w.Close()).To(Succeed())

		Expect(w.Path()).To(Equal(path + ".csv"))
		content, err := os.ReadFile(w.Path())
		Expect(err).NotTo(HaveOccurred())

		lines := strings.Split(strings.TrimSpace(string(content)), "\n")
		Expect(lines).To(HaveLen(101))
		Expect(lines[1]).To(Equal("Pacer, 1, 4095, 0, 1664, 1, 0, 0, 0, 1, 0"))
		Expect(lines[2]).To(Equal("Pacer, 2, 2048, 0, 1664, 0, 1, 0, 0, 0, 0"))
	})

	It("should refuse to overwrite a CSV file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "trace.csv")
		Expect(os.WriteFile(path, nil, 0o644)).To(Succeed())

		Expect(NewCSVTraceWriter(path).Init()).NotTo(Succeed())
	})

	It("should record into a database", func() {
		path := filepath.Join(GinkgoT().TempDir(), "trace")
		rec, err := datarecording.New(path)
		Expect(err).NotTo(HaveOccurred())

		w, err := NewDBTraceWriter(rec)
		Expect(err).NotTo(HaveOccurred())
		CollectTrace(comp, w)

		run(engine, comp)
		Expect(rec.Close()).To(Succeed())

		reader, err := datarecording.NewReader(path + ".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()
		reader.MapTable(TraceTable, TraceEntry{})

		rows, total, err := reader.Query(context.Background(), TraceTable,
			datarecording.QueryParams{
				Where:   "Spike = ?",
				Args:    []any{true},
				OrderBy: "Tick",
			})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(20))
		Expect(rows[0].(*TraceEntry).Sensed).To(BeTrue())
		Expect(rows[1].(*TraceEntry).Tick).To(Equal(uint64(7)))
		Expect(rows[1].(*TraceEntry).Ignored).To(BeTrue())
	})

	It("should write events as JSON lines", func() {
		buf := new(bytes.Buffer)
		CollectTrace(comp, NewJSONTraceWriter(buf, EventsOnly))

		run(engine, comp)

		scanner := bufio.NewScanner(buf)
		n := 0
		for scanner.Scan() {
			var entry map[string]any
			Expect(json.Unmarshal(scanner.Bytes(), &entry)).To(Succeed())
			Expect(entry["where"]).To(Equal("Pacer"))
			Expect(entry["spike"]).To(BeTrue())
			n++
		}

		Expect(n).To(Equal(20))
	})
})

var _ = Describe("EventLogger", func() {
	It("should log spikes and paces", func() {
		engine := timing.NewSerialEngine()
		comp := buildPacer(engine, signal.NewReferenceSequence(), 130)
		buf := new(bytes.Buffer)
		comp.AcceptHook(NewEventLogger(log.New(buf, "", 0)))

		run(engine, comp)

		out := buf.String()
		Expect(out).To(ContainSubstring("Pacer: tick 1 spike, theta 1664, sensed\n"))
		Expect(out).To(ContainSubstring("Pacer: tick 7 spike, theta 1785, ignored\n"))
		Expect(out).To(MatchRegexp(`Pacer: tick 121 pace, (not )?captured\n`))
	})

	It("should log rejected samples", func() {
		engine := timing.NewSerialEngine()
		src, err := signal.NewSequence([]signal.Sample{2048})
		Expect(err).NotTo(HaveOccurred())
		comp := buildPacer(engine, &outOfRange{inner: src, at: 2}, 3)
		buf := new(bytes.Buffer)
		comp.AcceptHook(NewEventLogger(log.New(buf, "", 0)))

		run(engine, comp)

		Expect(buf.String()).To(ContainSubstring(
			"Pacer: after tick 1 rejected sample 4096"))
	})
})

var _ = Describe("EventCounter", func() {
	It("should count positions", func() {
		engine := timing.NewSerialEngine()
		comp := buildPacer(engine, signal.NewReferenceSequence(), 1000)
		c := NewEventCounter()
		comp.AcceptHook(c)

		run(engine, comp)

		Expect(c.Names()).To(Equal([]string{"Tick", "Spike", "Pace"}))
		Expect(c.Count("Tick")).To(Equal(uint64(1000)))
		Expect(c.Count("Spike")).To(Equal(uint64(200)))
		Expect(c.Count("Pace")).To(Equal(uint64(5)))
		Expect(c.Count("Reject")).To(BeZero())
	})
})

type outOfRange struct {
	inner signal.Source
	at    int
	n     int
}

func (s *outOfRange) Next() (signal.Sample, error) {
	s.n++
	if s.n == s.at {
		return signal.MaxSample + 1, nil
	}

	return s.inner.Next()
}

var _ = Describe("BeatIntervalTracer", func() {
	It("should measure the beat intervals of the reference run", func() {
		engine := timing.NewSerialEngine()
		comp := buildPacer(engine, signal.NewReferenceSequence(), 1000)
		tracer := NewBeatIntervalTracer(engine)
		comp.AcceptHook(tracer)

		run(engine, comp)

		Expect(tracer.IntervalCount()).To(Equal(uint64(9)))
		Expect(tracer.AverageInterval()).To(BeNumerically("~", 0.92/9, 1e-9))
		Expect(tracer.RateBPM()).To(BeNumerically("~", 60*9/0.92, 1e-6))
		Expect(tracer.PacedFraction()).To(Equal(0.5))
	})

	It("should report zero before the second beat", func() {
		engine := timing.NewSerialEngine()
		comp := buildPacer(engine, signal.NewConstant(signal.Baseline), 50)
		tracer := NewBeatIntervalTracer(engine)
		comp.AcceptHook(tracer)

		run(engine, comp)

		Expect(tracer.IntervalCount()).To(BeZero())
		Expect(tracer.RateBPM()).To(BeZero())
		Expect(tracer.PacedFraction()).To(Equal(1.0))
	})
})
