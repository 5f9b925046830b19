package tracing

import (
	"log"

	"github.com/sarchlab/lifpace/pacer"
	"github.com/sarchlab/lifpace/sim/hooking"
)

// EventLogger is a hook that prints spikes, paces and rejected samples.
type EventLogger struct {
	*log.Logger
}

// NewEventLogger returns a new EventLogger which will write into the logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	return &EventLogger{Logger: logger}
}

// Func writes the event into the logger.
func (h *EventLogger) Func(ctx hooking.HookCtx) {
	name := ""
	if d, ok := ctx.Domain.(NamedHookable); ok {
		name = d.Name()
	}

	switch ctx.Pos {
	case pacer.HookPosSpike:
		t := ctx.Item.(pacer.Trace)
		h.Printf("%s: tick %d spike, theta %d, %s",
			name, t.Tick, t.Theta, spikeFate(t))
	case pacer.HookPosPace:
		t := ctx.Item.(pacer.Trace)
		h.Printf("%s: tick %d pace, %s", name, t.Tick, t.CaptureLabel())
	case pacer.HookPosReject:
		r := ctx.Item.(pacer.Reject)
		h.Printf("%s: after tick %d rejected sample %d: %v",
			name, r.Tick, r.Sample, r.Err)
	}
}

func spikeFate(t pacer.Trace) string {
	switch {
	case t.Sensed:
		return "sensed"
	case t.Ignored:
		return "ignored"
	default:
		return "unused"
	}
}
