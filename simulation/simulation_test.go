package simulation

import (
	"context"
	"net/http"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/lifpace/datarecording"
	"github.com/sarchlab/lifpace/pacer"
	"github.com/sarchlab/lifpace/signal"
	"github.com/sarchlab/lifpace/tracing"
)

func buildPacer(s *Simulation, name string) *pacer.Comp {
	comp, err := pacer.MakeBuilder().
		WithEngine(s.GetEngine()).
		WithSource(signal.NewReferenceSequence()).
		WithNumTicks(50).
		Build(name)
	Expect(err).NotTo(HaveOccurred())

	return comp
}

var _ = Describe("Simulation", func() {
	var (
		path       string
		simulation *Simulation
	)

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "sim")

		var err error
		simulation, err = MakeBuilder().
			WithoutMonitoring().
			WithOutputFileName(path).
			WithExecInfo(map[string]string{"Source": "reference"}).
			Build()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(simulation.Terminate()).To(Succeed())
	})

	It("should register a component", func() {
		comp := buildPacer(simulation, "Pacer")

		simulation.RegisterComponent(comp)

		Expect(simulation.GetComponentByName("Pacer")).To(BeIdenticalTo(comp))
		Expect(simulation.GetComponentByName("Other")).To(BeNil())
		Expect(simulation.Components()).To(HaveLen(1))
	})

	It("should not register a name twice", func() {
		simulation.RegisterComponent(buildPacer(simulation, "Pacer"))

		Expect(func() {
			simulation.RegisterComponent(buildPacer(simulation, "Pacer"))
		}).To(Panic())
	})

	It("should record the traces of registered components", func() {
		comp := buildPacer(simulation, "Pacer")
		simulation.RegisterComponent(comp)

		comp.TickNow()
		Expect(simulation.Run()).To(Succeed())
		Expect(simulation.Terminate()).To(Succeed())

		reader, err := datarecording.NewReader(path + ".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		reader.MapTable(tracing.TraceTable, tracing.TraceEntry{})
		reader.MapTable(datarecording.ExecInfoTable, datarecording.ExecInfo{})

		_, total, err := reader.Query(context.Background(),
			tracing.TraceTable, datarecording.QueryParams{})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(50))

		rows, _, err := reader.Query(context.Background(),
			datarecording.ExecInfoTable, datarecording.QueryParams{
				Where: "Property = ?",
				Args:  []any{"Run ID"},
			})
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].(*datarecording.ExecInfo).Value).
			To(Equal(simulation.ID()))
	})

	It("should refuse contradicting options", func() {
		Expect(func() {
			MakeBuilder().WithoutMonitoring().WithMonitorPort(8080).Build()
		}).To(Panic())

		Expect(func() {
			MakeBuilder().WithoutRecording().WithOutputFileName("x").Build()
		}).To(Panic())
	})

	It("should fail if the output file exists", func() {
		_, err := MakeBuilder().
			WithoutMonitoring().
			WithOutputFileName(path).
			Build()

		Expect(err).To(MatchError(datarecording.ErrFileExists))
	})
})

var _ = Describe("Simulation with monitoring", func() {
	It("should serve the registered components", func() {
		simulation, err := MakeBuilder().WithoutRecording().Build()
		Expect(err).NotTo(HaveOccurred())
		defer simulation.Terminate()

		simulation.RegisterComponent(buildPacer(simulation, "Pacer"))

		rsp, err := http.Get(simulation.MonitorURL() + "/api/state/Pacer")
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
		Expect(simulation.GetDataRecorder()).To(BeNil())
	})
})
