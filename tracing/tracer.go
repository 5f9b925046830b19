// Package tracing records and reports what a pacer component does.
package tracing

import (
	"github.com/sarchlab/lifpace/pacer"
	"github.com/sarchlab/lifpace/sim/hooking"
)

// NamedHookable represent something both have a name and can be hooked
type NamedHookable interface {
	Name() string
	hooking.Hookable
}

// A TraceWriter persists closed-loop traces.
type TraceWriter interface {
	Write(where string, trace pacer.Trace)
	Flush()
}
