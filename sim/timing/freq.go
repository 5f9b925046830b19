package timing

import (
	"log"
	"math"
)

// Freq is a tick frequency in Hz.
type Freq float64

// Units of frequency.
const (
	Hz  Freq = 1
	KHz Freq = 1e3
)

// SampleRate returns the frequency that delivers hz samples per second.
func SampleRate(hz int) Freq {
	if hz <= 0 {
		log.Panicf("sample rate must be positive, got %d", hz)
	}

	return Freq(hz) * Hz
}

// Period returns the time between two consecutive ticks
func (f Freq) Period() VTimeInSec {
	if f == 0 {
		log.Panic("frequency cannot be 0")
	}

	return VTimeInSec(1.0 / f)
}

// Cycle converts a time to the number of cycles passed since time 0.
func (f Freq) Cycle(time VTimeInSec) uint64 {
	return uint64(math.Round(float64(time) * float64(f)))
}

// CycleTime returns the time at which the given cycle starts.
func (f Freq) CycleTime(cycle uint64) VTimeInSec {
	return VTimeInSec(float64(cycle) / float64(f))
}

// ThisTick returns the time of the first tick at or after now.
//
//	               Input
//	               (          ]
//	    |----------|----------|----------|----->
//	                          |
//	                          Output
func (f Freq) ThisTick(now VTimeInSec) VTimeInSec {
	return f.CycleTime(uint64(math.Ceil(f.cycles(now))))
}

// NextTick returns the time of the first tick strictly after now.
//
//	               Input
//	               [          )
//	    |----------|----------|----------|----->
//	                          |
//	                          Output
func (f Freq) NextTick(now VTimeInSec) VTimeInSec {
	return f.CycleTime(uint64(math.Floor(f.cycles(now))) + 1)
}

// cycles returns now in cycles, rounded to a tenth of a cycle so that float
// error does not move a tick.
func (f Freq) cycles(now VTimeInSec) float64 {
	if math.IsNaN(float64(now)) || now < 0 {
		log.Panicf("invalid time %f", now)
	}

	return math.Round(float64(now)*10*float64(f)) / 10
}
