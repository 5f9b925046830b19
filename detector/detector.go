// Package detector implements the adaptive leaky integrate-and-fire event
// detector.
//
// Each tick the centered sample is passed through a dead zone, scaled, and
// integrated into a leaking membrane potential. A spike is declared when the
// potential reaches the threshold. The threshold then jumps up and relaxes
// back to its base, so closely spaced events need more drive to be detected.
// For a few ticks after a spike the detector is refractory: it neither
// integrates nor spikes, and holds its potential and threshold.
package detector

import (
	"log"
	"math"

	"github.com/sarchlab/lifpace/signal"
)

// Output is the result of one detector step.
type Output struct {
	// Spike is true only on the tick the threshold is crossed.
	Spike bool
	// V and Theta are the potential and threshold after the step.
	V     int32
	Theta int32
	// Drive is the input integrated on this tick.
	Drive int32
	// Refractory is true if the tick was suppressed.
	Refractory bool
}

// State is a snapshot of the detector internals.
type State struct {
	V          int32 `json:"v"`
	Theta      int32 `json:"theta"`
	ThetaBase  int32 `json:"theta_base"`
	Refractory int   `json:"refractory"`
}

// Detector is the adaptive LIF detector. It is not safe for concurrent use.
type Detector struct {
	cfg Config

	v          int32
	theta      int32
	thetaBase  int32
	refractory int

	windowTicks  int
	windowSpikes int
}

// New creates a Detector in its reset state.
func New(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Detector{cfg: cfg}
	d.Reset()

	return d, nil
}

// Config returns the constants the detector was built with.
func (d *Detector) Config() Config {
	return d.cfg
}

// Reset returns the detector to its initial state.
func (d *Detector) Reset() {
	d.v = d.cfg.VReset
	d.theta = d.cfg.ThetaBase
	d.thetaBase = d.cfg.ThetaBase
	d.refractory = 0
	d.windowTicks = 0
	d.windowSpikes = 0
}

// State returns the current internals.
func (d *Detector) State() State {
	return State{
		V:          d.v,
		Theta:      d.theta,
		ThetaBase:  d.thetaBase,
		Refractory: d.refractory,
	}
}

// Step advances the detector by one tick. A sample outside the 12-bit range
// is rejected and leaves the detector untouched.
func (d *Detector) Step(sample signal.Sample) (Output, error) {
	if err := sample.Validate(); err != nil {
		return Output{V: d.v, Theta: d.theta}, err
	}

	out := d.integrate(sample)
	d.adaptBase(out.Spike)

	return out, nil
}

func (d *Detector) integrate(sample signal.Sample) Output {
	if d.refractory > 0 {
		d.refractory--

		return Output{
			V:          d.v,
			Theta:      d.theta,
			Refractory: true,
		}
	}

	drive := d.drive(sample)
	v := int64(d.v)
	vNext := v + drive - v>>leakShift

	if vNext >= int64(d.theta) {
		d.v = d.cfg.VReset
		d.theta = mustFit(int64(d.theta)+int64(d.cfg.ThetaInc), "threshold")
		d.refractory = d.cfg.RefractoryTicks

		return Output{
			Spike: true,
			V:     d.v,
			Theta: d.theta,
			Drive: int32(drive),
		}
	}

	d.v = mustFit(vNext, "potential")
	theta := int64(d.theta)
	d.theta = mustFit(theta-(theta-int64(d.thetaBase))>>decayShift, "threshold")

	return Output{
		V:     d.v,
		Theta: d.theta,
		Drive: int32(drive),
	}
}

func (d *Detector) drive(sample signal.Sample) int64 {
	centered := int64(sample.Centered())
	deadZone := int64(d.cfg.DeadZone)

	if centered <= deadZone && centered >= -deadZone {
		return 0
	}

	return centered * int64(d.cfg.Gain)
}

func (d *Detector) adaptBase(spike bool) {
	h := d.cfg.Homeostasis
	if !h.Enabled() {
		return
	}

	d.windowTicks++
	if spike {
		d.windowSpikes++
	}

	if d.windowTicks < h.WindowTicks {
		return
	}

	base := int64(d.thetaBase) +
		int64(h.Rate)*int64(d.windowSpikes-h.TargetSpikes)
	if base < int64(h.MinBase) {
		base = int64(h.MinBase)
	}
	if base > int64(h.MaxBase) {
		base = int64(h.MaxBase)
	}

	d.thetaBase = int32(base)
	d.windowTicks = 0
	d.windowSpikes = 0
}

func mustFit(x int64, what string) int32 {
	if x < math.MinInt32 || x > math.MaxInt32 {
		log.Panicf("detector: %s out of range: %d", what, x)
	}

	return int32(x)
}
