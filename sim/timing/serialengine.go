package timing

import (
	"log"
	"sync"

	"github.com/sarchlab/lifpace/sim/hooking"
)

// A SerialEngine runs one event at a time, in time order. Events scheduled
// for the same time run in the order they were scheduled.
type SerialEngine struct {
	*hooking.HookableBase

	timeLock sync.RWMutex
	time     VTimeInSec
	queue    EventQueue

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	stopLock   sync.Mutex
	stopped    bool
	dispatched uint64

	singleRunLock sync.Mutex
}

// NewSerialEngine creates a SerialEngine
func NewSerialEngine() *SerialEngine {
	return &SerialEngine{
		HookableBase: hooking.NewHookableBase(),
		queue:        NewEventQueue(),
	}
}

// Schedule register an event to be happen in the future
func (e *SerialEngine) Schedule(evt Event) {
	now := e.readNow()
	if evt.Time() < now {
		log.Panicf("scheduling an event at %.10f, earlier than %.10f",
			evt.Time(), now)
	}

	e.queue.Push(evt)
}

func (e *SerialEngine) readNow() VTimeInSec {
	e.timeLock.RLock()
	defer e.timeLock.RUnlock()

	return e.time
}

func (e *SerialEngine) writeNow(t VTimeInSec) {
	e.timeLock.Lock()
	e.time = t
	e.timeLock.Unlock()
}

// Run processes the scheduled events. It returns the first error reported by
// a handler and leaves the queue as it is, so that Run may be called again.
func (e *SerialEngine) Run() error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	for {
		if e.isStopped() {
			e.drain()
			e.setStopped(false)

			return nil
		}

		if e.queue.Len() == 0 {
			return nil
		}

		if err := e.runOne(); err != nil {
			return err
		}
	}
}

func (e *SerialEngine) runOne() error {
	e.pauseLock.Lock()
	defer e.pauseLock.Unlock()

	if e.isStopped() {
		return nil
	}

	evt := e.queue.Pop()
	e.writeNow(evt.Time())

	hookCtx := hooking.HookCtx{
		Domain: e,
		Pos:    HookPosBeforeEvent,
		Item:   evt,
	}
	e.InvokeHook(hookCtx)

	err := evt.Handler().Handle(evt)

	e.stopLock.Lock()
	e.dispatched++
	e.stopLock.Unlock()

	hookCtx.Pos = HookPosAfterEvent
	e.InvokeHook(hookCtx)

	return err
}

func (e *SerialEngine) drain() {
	for e.queue.Len() > 0 {
		e.queue.Pop()
	}
}

// Pause prevents the SerialEngine to trigger more events.
func (e *SerialEngine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue allows the SerialEngine to trigger more events.
func (e *SerialEngine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

// IsPaused tells if the engine is currently paused.
func (e *SerialEngine) IsPaused() bool {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	return e.isPaused
}

// Stop ends the current or the next Run after the event in progress and
// releases a paused engine. It may be called from any goroutine, including
// from a handler.
func (e *SerialEngine) Stop() {
	e.setStopped(true)
	e.Continue()
}

func (e *SerialEngine) setStopped(v bool) {
	e.stopLock.Lock()
	e.stopped = v
	e.stopLock.Unlock()
}

func (e *SerialEngine) isStopped() bool {
	e.stopLock.Lock()
	defer e.stopLock.Unlock()

	return e.stopped
}

// Dispatched returns the number of events handled so far.
func (e *SerialEngine) Dispatched() uint64 {
	e.stopLock.Lock()
	defer e.stopLock.Unlock()

	return e.dispatched
}

// Pending returns the number of events waiting in the queue.
func (e *SerialEngine) Pending() int {
	return e.queue.Len()
}

// Now returns the time of the event being handled, or of the last one.
func (e *SerialEngine) Now() VTimeInSec {
	return e.readNow()
}
