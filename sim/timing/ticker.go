package timing

import (
	"sync"

	"github.com/sarchlab/lifpace/sim/id"
)

// TickEvent asks a handler to advance by one cycle of its frequency.
type TickEvent struct {
	EventBase

	// Cycle is the index of the cycle the event starts.
	Cycle uint64
}

// MakeTickEvent creates a new TickEvent
func MakeTickEvent(handler Handler, time VTimeInSec, cycle uint64) TickEvent {
	return TickEvent{
		EventBase: EventBase{
			ID:      id.Generate(),
			time:    time,
			handler: handler,
		},
		Cycle: cycle,
	}
}

// A Ticker is an object that updates states with ticks. Tick returns true if
// it made progress and wants to tick again.
type Ticker interface {
	Tick() bool
}

// TickScheduler schedules at most one tick event per cycle for a handler.
type TickScheduler struct {
	lock    sync.Mutex
	handler Handler
	Freq    Freq
	Engine  Engine

	nextTickTime VTimeInSec
}

// NewTickScheduler creates a scheduler for tick events.
func NewTickScheduler(
	handler Handler,
	engine Engine,
	freq Freq,
) *TickScheduler {
	return &TickScheduler{
		handler:      handler,
		Engine:       engine,
		Freq:         freq,
		nextTickTime: -1,
	}
}

// TickNow schedule a Tick event at the current time.
func (t *TickScheduler) TickNow() {
	t.lock.Lock()
	defer t.lock.Unlock()

	now := t.Now()
	if t.nextTickTime >= now {
		return
	}

	t.schedule(t.Freq.ThisTick(now))
}

// TickLater will schedule a tick event at the cycle after the now time.
func (t *TickScheduler) TickLater() {
	t.lock.Lock()
	defer t.lock.Unlock()

	next := t.Freq.NextTick(t.Now())
	if t.nextTickTime >= next {
		return
	}

	t.schedule(next)
}

func (t *TickScheduler) schedule(time VTimeInSec) {
	t.nextTickTime = time
	t.Engine.Schedule(MakeTickEvent(t.handler, time, t.Freq.Cycle(time)))
}

// Now returns the current time of the engine.
func (t *TickScheduler) Now() VTimeInSec {
	return t.Engine.Now()
}

// CurrentCycle returns the number of cycles of the scheduler's frequency that
// have passed at the current engine time.
func (t *TickScheduler) CurrentCycle() uint64 {
	return t.Freq.Cycle(t.Now())
}
