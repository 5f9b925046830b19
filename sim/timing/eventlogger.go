package timing

import (
	"log"

	"github.com/sarchlab/lifpace/sim/hooking"
)

type named interface {
	Name() string
}

// EventLogger is a hook that prints every event the engine dispatches.
type EventLogger struct {
	*log.Logger
}

// NewEventLogger returns a new EventLogger which will write in to the logger
func NewEventLogger(logger *log.Logger) *EventLogger {
	return &EventLogger{Logger: logger}
}

// Func writes the event information into the logger
func (h *EventLogger) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	if comp, ok := evt.Handler().(named); ok {
		h.Printf("%.6f %T -> %s", evt.Time(), evt, comp.Name())
		return
	}

	h.Printf("%.6f %T", evt.Time(), evt)
}
