package simulation

import (
	"github.com/sarchlab/lifpace/datarecording"
	"github.com/sarchlab/lifpace/monitoring"
	"github.com/sarchlab/lifpace/sim/id"
	"github.com/sarchlab/lifpace/sim/timing"
	"github.com/sarchlab/lifpace/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	monitorOn      bool
	monitorPort    int
	openBrowser    bool
	recordOn       bool
	outputFileName string
	clickHouse     *datarecording.ClickHouseOptions
	execInfo       map[string]string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		monitorOn: true,
		recordOn:  true,
	}
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithBrowser opens the monitoring page once the server starts.
func (b Builder) WithBrowser() Builder {
	b.openBrowser = true
	return b
}

// WithoutRecording sets the simulation to not record traces.
func (b Builder) WithoutRecording() Builder {
	b.recordOn = false
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithClickHouse records into a ClickHouse server instead of SQLite.
func (b Builder) WithClickHouse(opts datarecording.ClickHouseOptions) Builder {
	b.clickHouse = &opts
	return b
}

// WithExecInfo adds properties to the exec_info table.
func (b Builder) WithExecInfo(info map[string]string) Builder {
	b.execInfo = info
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && (b.monitorPort != 0 || b.openBrowser) {
		panic("monitor options cannot be set when monitoring is disabled")
	}

	if !b.recordOn && (b.outputFileName != "" || b.clickHouse != nil) {
		panic("recording options cannot be set when recording is disabled")
	}
}

// Build builds the simulation.
func (b Builder) Build() (*Simulation, error) {
	b.parametersMustBeValid()

	s := &Simulation{
		id:            id.RunID(),
		engine:        timing.NewSerialEngine(),
		compNameIndex: make(map[string]int),
	}

	if b.recordOn {
		if err := b.buildRecorder(s); err != nil {
			return nil, err
		}
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor().WithPortNumber(b.monitorPort)
		if b.openBrowser {
			s.monitor.WithBrowser()
		}

		s.monitor.RegisterEngine(s.engine)

		url, err := s.monitor.StartServer()
		if err != nil {
			s.Terminate()
			return nil, err
		}
		s.monitorURL = url
	}

	return s, nil
}

func (b Builder) buildRecorder(s *Simulation) error {
	var (
		rec datarecording.DataRecorder
		err error
	)

	if b.clickHouse != nil {
		rec, err = datarecording.NewClickHouse(*b.clickHouse)
	} else {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "lifpace_sim_" + s.id
		}
		rec, err = datarecording.New(outputPath)
	}

	if err != nil {
		return err
	}
	s.dataRecorder = rec

	s.traceWriter, err = tracing.NewDBTraceWriter(rec)
	if err != nil {
		rec.Close()
		return err
	}

	s.execRecorder, err = datarecording.NewExecRecorder(rec)
	if err != nil {
		rec.Close()
		return err
	}

	info := map[string]string{"Run ID": s.id}
	for k, v := range b.execInfo {
		info[k] = v
	}
	s.execRecorder.Start(info)

	return nil
}
