// Package simulation assembles the engine, the recorders and the monitor
// around the simulated components.
package simulation

import (
	"github.com/sarchlab/lifpace/datarecording"
	"github.com/sarchlab/lifpace/monitoring"
	"github.com/sarchlab/lifpace/sim/modeling"
	"github.com/sarchlab/lifpace/sim/timing"
	"github.com/sarchlab/lifpace/tracing"
)

// A Simulation provides the service requires to define a simulation.
type Simulation struct {
	id     string
	engine *timing.SerialEngine

	dataRecorder datarecording.DataRecorder
	execRecorder *datarecording.ExecRecorder
	traceWriter  *tracing.DBTraceWriter

	monitor    *monitoring.Monitor
	monitorURL string

	components    []modeling.Component
	compNameIndex map[string]int

	terminated bool
}

// ID returns the unique ID of the run.
func (s *Simulation) ID() string {
	return s.id
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() *timing.SerialEngine {
	return s.engine
}

// GetDataRecorder returns the data recorder used in the simulation. It is nil
// if recording is disabled.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor used in the simulation. It is nil if
// monitoring is disabled.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// MonitorURL returns the address of the monitoring server.
func (s *Simulation) MonitorURL() string {
	return s.monitorURL
}

// RegisterComponent registers a component with the simulation. Its traces
// are recorded and its events are pushed to the monitor.
func (s *Simulation) RegisterComponent(c modeling.Component) {
	compName := c.Name()
	if _, exists := s.compNameIndex[compName]; exists {
		panic("component " + compName + " already registered")
	}

	s.components = append(s.components, c)
	s.compNameIndex[compName] = len(s.components) - 1

	if s.traceWriter != nil {
		tracing.CollectTrace(c, s.traceWriter)
	}

	if s.monitor != nil {
		s.monitor.RegisterComponent(c)
		c.AcceptHook(s.monitor.Live())
	}
}

// Components returns all the registered components.
func (s *Simulation) Components() []modeling.Component {
	return s.components
}

// GetComponentByName returns the component with the given name, or nil.
func (s *Simulation) GetComponentByName(name string) modeling.Component {
	i, ok := s.compNameIndex[name]
	if !ok {
		return nil
	}

	return s.components[i]
}

// Run runs the engine until no events are left.
func (s *Simulation) Run() error {
	return s.engine.Run()
}

// Terminate flushes the recorders and stops the monitor.
func (s *Simulation) Terminate() error {
	if s.terminated {
		return nil
	}
	s.terminated = true

	var err error

	if s.monitor != nil {
		err = s.monitor.StopServer()
	}

	if s.dataRecorder != nil {
		if s.execRecorder != nil {
			s.execRecorder.End()
		}

		if cerr := s.dataRecorder.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}

	return err
}
