package tracing

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/sarchlab/lifpace/pacer"
)

type jsonTrace struct {
	Where string `json:"where"`
	pacer.Trace
}

// JSONTraceWriter writes one JSON object per line for each trace.
type JSONTraceWriter struct {
	lock sync.Mutex
	enc  *json.Encoder
	only func(pacer.Trace) bool
}

// NewJSONTraceWriter creates a writer on w. If only is not nil, traces for
// which it returns false are skipped.
func NewJSONTraceWriter(
	w io.Writer,
	only func(pacer.Trace) bool,
) *JSONTraceWriter {
	return &JSONTraceWriter{enc: json.NewEncoder(w), only: only}
}

// EventsOnly keeps the ticks with a spike or a pace.
func EventsOnly(t pacer.Trace) bool {
	return t.Spike || t.Pace
}

// Write encodes one trace.
func (t *JSONTraceWriter) Write(where string, trace pacer.Trace) {
	if t.only != nil && !t.only(trace) {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	err := t.enc.Encode(jsonTrace{Where: where, Trace: trace})
	if err != nil {
		panic(err)
	}
}

// Flush does nothing as every trace is written immediately.
func (t *JSONTraceWriter) Flush() {}
