package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	ossignal "os/signal"
	"strconv"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/sarchlab/lifpace/config"
	"github.com/sarchlab/lifpace/paceout"
	"github.com/sarchlab/lifpace/pacer"
	"github.com/sarchlab/lifpace/pacing"
	"github.com/sarchlab/lifpace/signal"
	"github.com/sarchlab/lifpace/sim/hooking"
	"github.com/sarchlab/lifpace/sim/timing"
	"github.com/sarchlab/lifpace/simulation"
	"github.com/sarchlab/lifpace/stream"
	"github.com/sarchlab/lifpace/tracing"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the detector and the pacer on a signal.",
	Long: "`run` reads samples from the configured source, one per tick, " +
		"and prints the sensed and paced beats.",
	Run: func(cmd *cobra.Command, args []string) {
		c, err := loadConfig(cmd)
		if err != nil {
			log.Fatalf("Error loading configuration: %v", err)
		}

		if err := applyRunFlags(cmd, c); err != nil {
			log.Fatalf("Error: %v", err)
		}

		ctx, stop := ossignal.NotifyContext(context.Background(),
			os.Interrupt, syscall.SIGTERM)
		defer stop()

		summary, err := runPacer(ctx, c, os.Stdout, os.Stderr)
		if err != nil {
			log.Fatalf("Error running pacer: %v", err)
		}

		summary.print(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.Uint64("ticks", 0, "Number of ticks to run, 0 runs until the source ends")
	f.String("source", "", "Source kind: reference, sequence, constant, "+
		"ecg, serial or nats")
	f.String("csv", "", "Write the trace to this CSV file")
	f.String("sqlite", "", "Record the trace into this SQLite file")
	f.Bool("json", false, "Print spikes and paces as JSON lines")
	f.Bool("monitor", false, "Serve the monitoring page while running")
	f.Int("port", 0, "Port of the monitoring server")
	f.Bool("browser", false, "Open the monitoring page in a browser")
	f.Bool("quiet", false, "Do not log events")
	f.Bool("hold-first-escape", false,
		"Wait a full escape interval before the first pace")
	f.Bool("publish", false, "Publish the waveform and events to NATS")
	f.String("gpio", "", "Pulse this GPIO line on every pace")
	f.Bool("log-engine-events", false, "Log every event the engine runs")
}

func applyRunFlags(cmd *cobra.Command, c *config.Config) error {
	f := cmd.Flags()

	if f.Changed("ticks") {
		c.Run.Ticks, _ = f.GetUint64("ticks")
	}
	if f.Changed("source") {
		c.Source.Kind, _ = f.GetString("source")
	}
	if f.Changed("csv") {
		c.Output.CSV, _ = f.GetString("csv")
	}
	if f.Changed("sqlite") {
		c.Output.SQLite, _ = f.GetString("sqlite")
	}
	if f.Changed("json") {
		c.Output.JSON, _ = f.GetBool("json")
	}
	if f.Changed("monitor") {
		c.Monitor.Enabled, _ = f.GetBool("monitor")
	}
	if f.Changed("port") {
		c.Monitor.Port, _ = f.GetInt("port")
		c.Monitor.Enabled = true
	}
	if f.Changed("browser") {
		c.Monitor.Browser, _ = f.GetBool("browser")
		c.Monitor.Enabled = c.Monitor.Enabled || c.Monitor.Browser
	}
	if f.Changed("quiet") {
		c.Run.Quiet, _ = f.GetBool("quiet")
	}
	if f.Changed("hold-first-escape") {
		c.Pacing.HoldFirstEscape, _ = f.GetBool("hold-first-escape")
	}
	if f.Changed("publish") {
		c.NATS.Publish, _ = f.GetBool("publish")
	}
	if f.Changed("gpio") {
		c.Output.GPIO.Pin, _ = f.GetString("gpio")
	}
	if f.Changed("log-engine-events") {
		c.Run.LogEngineEvents, _ = f.GetBool("log-engine-events")
	}

	return c.Validate()
}

// runSummary is what a run prints at the end.
type runSummary struct {
	Ticks    uint64
	Spikes   uint64
	Rejected uint64
	RateBPM  float64
	Stats    pacing.Stats
	Timing   pacing.Timing
	RunID    string
	Stopped  error
}

func (s runSummary) print(w io.Writer) {
	fmt.Fprintf(w, "run %s: %d ticks, %d spikes, %d rejected samples\n",
		s.RunID, s.Ticks, s.Spikes, s.Rejected)
	fmt.Fprintf(w, "escape %d, blanking %d, refractory %d ticks\n",
		s.Timing.EscapeTicks, s.Timing.BlankTicks, s.Timing.RefractTicks)
	fmt.Fprintf(w, "sensed %d, paced %d, ignored %d\n",
		s.Stats.Sensed, s.Stats.Paced, s.Stats.Ignored)
	fmt.Fprintf(w, "captured %d of %d paces (%.1f%%)\n",
		s.Stats.Captured, s.Stats.Paced, 100*s.Stats.CaptureRate())
	fmt.Fprintf(w, "mean rate %.1f bpm\n", s.RateBPM)

	if s.Stopped != nil {
		fmt.Fprintf(w, "source stopped: %v\n", s.Stopped)
	}
}

// runPacer runs one pacer component inside a simulation built from c. JSON
// lines go to out and event logs to logOut. Cancelling ctx stops the engine
// after the tick in progress.
func runPacer(
	ctx context.Context,
	c *config.Config,
	out, logOut io.Writer,
) (runSummary, error) {
	if err := c.Validate(); err != nil {
		return runSummary{}, err
	}

	sim, err := buildSimulation(c)
	if err != nil {
		return runSummary{}, err
	}
	defer sim.Terminate()

	var nc *nats.Conn
	if c.Source.Kind == config.SourceNATS || c.NATS.Publish {
		nc, err = stream.Connect(c.NATS.URL)
		if err != nil {
			return runSummary{}, err
		}
		defer nc.Close()
	}

	src, err := newSource(c, nc)
	if err != nil {
		return runSummary{}, err
	}
	defer src.Close()

	var input signal.Source = src
	if mon := sim.GetMonitor(); mon != nil && c.Run.Ticks > 0 {
		bar := mon.CreateProgressBar("Samples", c.Run.Ticks)
		defer mon.CompleteProgressBar(bar)

		input = bar.TrackSource(src)
		log.Printf("Monitoring simulation at %s", sim.MonitorURL())
	}

	comp, err := pacer.MakeBuilder().
		WithEngine(sim.GetEngine()).
		WithFreq(c.TickFreq()).
		WithSource(input).
		WithDetectorConfig(c.Detector).
		WithPacingConfig(c.Pacing).
		WithNumTicks(c.Run.Ticks).
		WithPaceArtifact(c.Source.Artifact.Amplitude, c.Source.Artifact.Width).
		Build("Pacer")
	if err != nil {
		return runSummary{}, err
	}

	sim.RegisterComponent(comp)

	if c.Run.LogEngineEvents {
		sim.GetEngine().AcceptHook(timing.NewEventLogger(log.New(logOut, "", 0)))
	}

	counter := tracing.NewEventCounter()
	comp.AcceptHook(counter)

	intervals := tracing.NewBeatIntervalTracer(sim.GetEngine())
	comp.AcceptHook(intervals)

	events := tracing.NewEventLogger(log.New(logOut, "", 0))
	if c.Run.Quiet {
		comp.AcceptHook(hooking.OnPos(pacer.HookPosReject, events.Func))
	} else {
		comp.AcceptHook(events)
	}

	if c.Output.JSON {
		tracing.CollectTrace(comp,
			tracing.NewJSONTraceWriter(out, tracing.EventsOnly))
	}

	if c.Output.CSV != "" {
		w := tracing.NewCSVTraceWriter(c.Output.CSV)
		if err := w.Init(); err != nil {
			return runSummary{}, err
		}
		defer w.Close()

		tracing.CollectTrace(comp, w)
	}

	var pub *stream.Publisher
	if c.NATS.Publish {
		pub = stream.NewPublisher(nc, c.NATS.Subjects, c.NATS.Batch)
		comp.AcceptHook(pub)
	}

	if c.Output.GPIO.Pin != "" {
		pin, err := paceout.OpenPin(c.Output.GPIO.Pin)
		if err != nil {
			return runSummary{}, err
		}

		pulse, err := paceout.NewPulse(pin, c.Output.GPIO.WidthTicks)
		if err != nil {
			return runSummary{}, err
		}
		defer pulse.Close()

		comp.AcceptHook(pulse)
	}


	runDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			sim.GetEngine().Stop()
		case <-runDone:
		}
	}()

	comp.TickNow()
	err = sim.Run()
	close(runDone)

	if err != nil {
		return runSummary{}, err
	}

	if pub != nil {
		pub.Flush()
		if n := pub.Errors(); n > 0 {
			log.Printf("%d messages failed to publish", n)
		}
	}

	snap := comp.Snapshot()
	summary := runSummary{
		Ticks:    comp.Core().Tick(),
		Spikes:   counter.Count(pacer.HookPosSpike.Name),
		Rejected: snap.Rejected,
		RateBPM:  intervals.RateBPM(),
		Stats:    snap.Stats,
		Timing:   snap.Timing,
		RunID:    sim.ID(),
	}

	if err := comp.Err(); err != nil {
		if !isEndOfSignal(err) {
			return summary, err
		}
		summary.Stopped = err
	}

	return summary, nil
}

func isEndOfSignal(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, stream.ErrNoData)
}

func buildSimulation(c *config.Config) (*simulation.Simulation, error) {
	pulse := fmt.Sprintf("%g mV, %g ms",
		c.Pacing.PulseAmplitudeMV, c.Pacing.PulseWidthMS)
	threshold := strconv.FormatFloat(c.Pacing.CaptureThresholdMV, 'g', -1, 64)

	b := simulation.MakeBuilder().WithExecInfo(map[string]string{
		"Source":               c.Source.Kind,
		"Ticks":                strconv.FormatUint(c.Run.Ticks, 10),
		"Lower Rate BPM":       strconv.Itoa(c.Pacing.LowerRateBPM),
		"Pulse":                pulse,
		"Capture Threshold MV": threshold,
		"Capture Seed":         strconv.FormatUint(c.Pacing.CaptureSeed, 10),
	})

	if c.Monitor.Enabled {
		b = b.WithMonitorPort(c.Monitor.Port)
		if c.Monitor.Browser {
			b = b.WithBrowser()
		}
	} else {
		b = b.WithoutMonitoring()
	}

	switch {
	case c.Output.ClickHouse != nil:
		b = b.WithClickHouse(*c.Output.ClickHouse)
	case c.Output.SQLite != "":
		b = b.WithOutputFileName(c.Output.SQLite)
	default:
		b = b.WithoutRecording()
	}

	return b.Build()
}
