package tracing

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/lifpace/pacer"
)

// CSVTraceWriter stores traces into a CSV file.
type CSVTraceWriter struct {
	path string
	file *os.File

	rows       []csvRow
	bufferSize int
}

type csvRow struct {
	where string
	trace pacer.Trace
}

// NewCSVTraceWriter creates a new CSVTraceWriter. The file is created by Init.
func NewCSVTraceWriter(path string) *CSVTraceWriter {
	return &CSVTraceWriter{
		path:       path,
		bufferSize: 1000,
	}
}

// Path returns the name of the CSV file.
func (t *CSVTraceWriter) Path() string {
	return t.path
}

// Init creates the CSV file. It fails if the file already exists.
func (t *CSVTraceWriter) Init() error {
	if t.path == "" {
		t.path = "lifpace_trace_" + xid.New().String()
	}

	if !strings.HasSuffix(t.path, ".csv") {
		t.path += ".csv"
	}

	if _, err := os.Stat(t.path); err == nil {
		return fmt.Errorf("file %s already exists", t.path)
	}

	file, err := os.Create(t.path)
	if err != nil {
		return err
	}
	t.file = file

	fmt.Fprintln(file,
		"Where, Tick, Sample, V, Theta, Spike, Refractory, Pace, Captured, Sensed, Ignored")

	atexit.Register(func() { t.Close() })

	return nil
}

// Write buffers one trace.
func (t *CSVTraceWriter) Write(where string, trace pacer.Trace) {
	t.rows = append(t.rows, csvRow{where: where, trace: trace})
	if len(t.rows) >= t.bufferSize {
		t.Flush()
	}
}

// Flush writes the buffered traces to the file.
func (t *CSVTraceWriter) Flush() {
	if t.file == nil {
		return
	}

	for _, r := range t.rows {
		tr := r.trace
		fmt.Fprintf(t.file, "%s, %d, %d, %d, %d, %d, %d, %d, %d, %d, %d\n",
			r.where,
			tr.Tick,
			tr.Sample,
			tr.V,
			tr.Theta,
			b2i(tr.Spike),
			b2i(tr.DetectorRefractory),
			b2i(tr.Pace),
			b2i(tr.Captured),
			b2i(tr.Sensed),
			b2i(tr.Ignored),
		)
	}

	t.rows = nil
}

// Close flushes and closes the file.
func (t *CSVTraceWriter) Close() error {
	if t.file == nil {
		return nil
	}

	t.Flush()
	err := t.file.Close()
	t.file = nil

	return err
}

func b2i(b bool) int {
	if b {
		return 1
	}

	return 0
}
