package timing

import (
	"github.com/sarchlab/lifpace/sim/hooking"
)

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	Now() VTimeInSec
}

// EventScheduler can be used to schedule future events.
type EventScheduler interface {
	TimeTeller

	Schedule(e Event)
}

// An Engine sequences the ticks of the closed loop.
type Engine interface {
	hooking.Hookable
	EventScheduler

	// Run processes events until none is left or Stop is called.
	Run() error

	// Pause blocks the engine between two events until Continue is called.
	Pause()

	// Continue resumes a paused engine.
	Continue()

	// Stop makes Run return after the current event. Pending events are
	// dropped.
	Stop()
}
