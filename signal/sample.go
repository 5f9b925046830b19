// Package signal defines the samples fed to the detector and the sources
// that produce them.
package signal

import (
	"errors"
	"fmt"
)

// Sample is one 12-bit unsigned reading of the sensed signal. The zero level
// of the signal sits at Baseline.
type Sample uint16

const (
	// MaxSample is the largest valid sample value.
	MaxSample Sample = 4095

	// Baseline is the sample value that represents zero signal.
	Baseline Sample = 2048
)

// ErrSampleOutOfRange is returned when a sample is outside [0, MaxSample].
var ErrSampleOutOfRange = errors.New("sample out of range")

// Validate checks that the sample fits in 12 bits.
func (s Sample) Validate() error {
	if s > MaxSample {
		return fmt.Errorf("%w: %d > %d", ErrSampleOutOfRange, s, MaxSample)
	}

	return nil
}

// Centered returns the sample relative to Baseline.
func (s Sample) Centered() int32 {
	return int32(s) - int32(Baseline)
}

// Clamp converts an integer reading into a Sample, saturating at the range
// limits.
func Clamp(v int) Sample {
	if v < 0 {
		return 0
	}

	if v > int(MaxSample) {
		return MaxSample
	}

	return Sample(v)
}

// A Source produces one sample per tick.
type Source interface {
	// Next returns the sample of the next tick.
	Next() (Sample, error)
}

// A Resetter is a source that can restart from its initial state.
type Resetter interface {
	Reset()
}
