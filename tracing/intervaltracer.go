package tracing

import (
	"sync"

	"github.com/sarchlab/lifpace/pacer"
	"github.com/sarchlab/lifpace/sim/hooking"
	"github.com/sarchlab/lifpace/sim/timing"
)

// BeatIntervalTracer collects the time between consecutive beats. A beat is
// either a sensed spike or a pace.
type BeatIntervalTracer struct {
	timeTeller timing.TimeTeller
	lock       sync.Mutex

	hasLast   bool
	last      timing.VTimeInSec
	totalTime float64
	count     uint64
	sensed    uint64
	paced     uint64
}

// NewBeatIntervalTracer creates a new BeatIntervalTracer.
func NewBeatIntervalTracer(timeTeller timing.TimeTeller) *BeatIntervalTracer {
	return &BeatIntervalTracer{timeTeller: timeTeller}
}

// Func records the beats found in the tick traces.
func (t *BeatIntervalTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != pacer.HookPosTick {
		return
	}

	trace := ctx.Item.(pacer.Trace)
	if !trace.Sensed && !trace.Pace {
		return
	}

	now := t.timeTeller.Now()

	t.lock.Lock()
	defer t.lock.Unlock()

	if trace.Pace {
		t.paced++
	} else {
		t.sensed++
	}

	if t.hasLast {
		t.totalTime += float64(now - t.last)
		t.count++
	}

	t.hasLast = true
	t.last = now
}

// IntervalCount returns the number of measured intervals.
func (t *BeatIntervalTracer) IntervalCount() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.count
}

// AverageInterval returns the mean beat interval in seconds, or 0 before the
// second beat.
func (t *BeatIntervalTracer) AverageInterval() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.count == 0 {
		return 0
	}

	return t.totalTime / float64(t.count)
}

// RateBPM returns the mean beat rate in beats per minute.
func (t *BeatIntervalTracer) RateBPM() float64 {
	avg := t.AverageInterval()
	if avg == 0 {
		return 0
	}

	return 60 / avg
}

// PacedFraction returns the share of beats that were paced.
func (t *BeatIntervalTracer) PacedFraction() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	total := t.sensed + t.paced
	if total == 0 {
		return 0
	}

	return float64(t.paced) / float64(total)
}
