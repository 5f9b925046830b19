package pacing

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidConfig indicates a non-positive rate or a negative window.
	ErrInvalidConfig = errors.New("invalid pacing configuration")
	// ErrNonPositiveInterval indicates that a derived tick count is zero.
	ErrNonPositiveInterval = errors.New("derived interval is shorter than one tick")
)

// Config holds the programmed pacing parameters.
type Config struct {
	// SampleRateHz is the tick rate of the controller.
	SampleRateHz int `yaml:"sample_rate_hz"`
	// LowerRateBPM sets the escape interval.
	LowerRateBPM int `yaml:"lower_rate_bpm"`
	// BlankingMS is the window after a pace in which sensing is ignored.
	BlankingMS int `yaml:"blanking_ms"`
	// RefractoryMS is the window after a sensed event in which further
	// sensing is ignored.
	RefractoryMS int `yaml:"refractory_ms"`
	// HoldFirstEscape makes the controller wait a full escape interval after
	// reset before the first pace. By default the escape timer starts
	// expired and the first tick paces unless an event is sensed on it.
	HoldFirstEscape bool `yaml:"hold_first_escape"`

	// PulseAmplitudeMV is the programmed stimulus amplitude.
	PulseAmplitudeMV float64 `yaml:"pulse_amplitude_mv"`
	// PulseWidthMS is the programmed stimulus duration.
	PulseWidthMS float64 `yaml:"pulse_width_ms"`
	// CaptureThresholdMV is the amplitude at which half of the paces
	// capture the myocardium.
	CaptureThresholdMV float64 `yaml:"capture_threshold_mv"`
	// CaptureSeed seeds the capture draws. Equal seeds give equal capture
	// sequences.
	CaptureSeed uint64 `yaml:"capture_seed"`
}

// DefaultConfig returns the reference pacing parameters. The 500 bpm lower
// rate gives a 120 ms escape interval. The escape timer starts expired, so
// a silent signal paces on tick 1 and then every 120 ticks; set
// HoldFirstEscape for a first pace at tick 120.
func DefaultConfig() Config {
	return Config{
		SampleRateHz:       1000,
		LowerRateBPM:       500,
		BlankingMS:         40,
		RefractoryMS:       200,
		PulseAmplitudeMV:   2.5,
		PulseWidthMS:       0.5,
		CaptureThresholdMV: 1.1,
		CaptureSeed:        42,
	}
}

// CaptureProbability is the chance that one pace captures, a logistic
// function of the margin between pulse amplitude and capture threshold.
func (c Config) CaptureProbability() float64 {
	return 1 / (1 + math.Exp(-3*(c.PulseAmplitudeMV-c.CaptureThresholdMV)))
}

// Timing holds the tick counts derived from a Config.
type Timing struct {
	EscapeTicks  uint64 `json:"escape_ticks"`
	BlankTicks   uint64 `json:"blank_ticks"`
	RefractTicks uint64 `json:"refract_ticks"`
}

// Derive converts the configuration into tick counts, rounding down. Every
// count must be at least one tick.
func (c Config) Derive() (Timing, error) {
	if c.SampleRateHz <= 0 || c.LowerRateBPM <= 0 {
		return Timing{}, fmt.Errorf("%w: sample rate %d Hz, lower rate %d bpm",
			ErrInvalidConfig, c.SampleRateHz, c.LowerRateBPM)
	}

	if c.BlankingMS < 0 || c.RefractoryMS < 0 {
		return Timing{}, fmt.Errorf("%w: blanking %d ms, refractory %d ms",
			ErrInvalidConfig, c.BlankingMS, c.RefractoryMS)
	}

	if err := c.validatePulse(); err != nil {
		return Timing{}, err
	}

	rate := uint64(c.SampleRateHz)
	t := Timing{
		EscapeTicks:  60 * rate / uint64(c.LowerRateBPM),
		BlankTicks:   uint64(c.BlankingMS) * rate / 1000,
		RefractTicks: uint64(c.RefractoryMS) * rate / 1000,
	}

	switch {
	case t.EscapeTicks == 0:
		return t, fmt.Errorf("%w: escape", ErrNonPositiveInterval)
	case t.BlankTicks == 0:
		return t, fmt.Errorf("%w: blanking", ErrNonPositiveInterval)
	case t.RefractTicks == 0:
		return t, fmt.Errorf("%w: refractory", ErrNonPositiveInterval)
	}

	return t, nil
}

func (c Config) validatePulse() error {
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"pulse amplitude", c.PulseAmplitudeMV},
		{"pulse width", c.PulseWidthMS},
		{"capture threshold", c.CaptureThresholdMV},
	} {
		if p.value < 0 || math.IsNaN(p.value) || math.IsInf(p.value, 0) {
			return fmt.Errorf("%w: %s %v", ErrInvalidConfig, p.name, p.value)
		}
	}

	return nil
}

// Validate checks that the configuration derives a usable Timing.
func (c Config) Validate() error {
	_, err := c.Derive()
	return err
}
