package tracing

import (
	"github.com/sarchlab/lifpace/datarecording"
	"github.com/sarchlab/lifpace/pacer"
)

// TraceTable is the name of the table that DBTraceWriter fills.
const TraceTable = "trace"

// TraceEntry is one row of the trace table.
type TraceEntry struct {
	Location   string
	Tick       uint64
	Sample     uint16
	V          int32
	Theta      int32
	Drive      int32
	Spike      bool
	Refractory bool
	Pace       bool
	Captured   bool
	Sensed     bool
	Ignored    bool
}

// DBTraceWriter stores traces through a DataRecorder.
type DBTraceWriter struct {
	backend datarecording.DataRecorder
}

// NewDBTraceWriter creates the trace table on the backend.
func NewDBTraceWriter(
	backend datarecording.DataRecorder,
) (*DBTraceWriter, error) {
	err := backend.CreateTable(TraceTable, TraceEntry{})
	if err != nil {
		return nil, err
	}

	return &DBTraceWriter{backend: backend}, nil
}

// Write buffers one trace in the backend.
func (t *DBTraceWriter) Write(where string, trace pacer.Trace) {
	t.backend.InsertData(TraceTable, TraceEntry{
		Location:   where,
		Tick:       trace.Tick,
		Sample:     uint16(trace.Sample),
		V:          trace.V,
		Theta:      trace.Theta,
		Drive:      trace.Drive,
		Spike:      trace.Spike,
		Refractory: trace.DetectorRefractory,
		Pace:       trace.Pace,
		Captured:   trace.Captured,
		Sensed:     trace.Sensed,
		Ignored:    trace.Ignored,
	})
}

// Flush flushes the backend.
func (t *DBTraceWriter) Flush() {
	t.backend.Flush()
}
