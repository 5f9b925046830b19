// Package pacing implements the demand pacing controller.
//
// The controller counts ticks since the last paced or sensed event and paces
// when the count reaches the escape interval. A pace opens a blanking window
// so that the stimulus is not sensed as a beat, and a sensed event opens a
// refractory window so that one beat is not counted twice. Windows are kept
// as absolute tick indices. Each pace captures with a probability set by the
// pulse amplitude, drawn from a generator seeded by the configuration.
package pacing

import "math/rand/v2"

// Decision is the outcome of one controller step.
type Decision struct {
	// Tick is the controller tick counter after the step.
	Tick uint64
	// Pace is true on the tick the escape interval expires.
	Pace bool
	// Sensed is true if the detector spike was accepted as a beat.
	Sensed bool
	// Ignored is true if a detector spike fell in a blanking or refractory
	// window.
	Ignored bool
	// Captured is true if the pace of this tick evoked a beat.
	Captured bool
}

// State is a snapshot of the controller timers.
type State struct {
	Tick            uint64 `json:"tick"`
	TicksSinceEvent uint64 `json:"ticks_since_event"`
	BlankUntil      uint64 `json:"blank_until"`
	RefractUntil    uint64 `json:"refract_until"`
}

// Stats counts what the controller has done since reset.
type Stats struct {
	Sensed     uint64 `json:"sensed"`
	Paced      uint64 `json:"paced"`
	Captured   uint64 `json:"captured"`
	Ignored    uint64 `json:"ignored"`
	LastSensed uint64 `json:"last_sensed"`
	LastPaced  uint64 `json:"last_paced"`
}

// CaptureRate is the fraction of paces that captured, or zero before the
// first pace.
func (s Stats) CaptureRate() float64 {
	if s.Paced == 0 {
		return 0
	}

	return float64(s.Captured) / float64(s.Paced)
}

// Controller is the demand pacing state machine. It is not safe for
// concurrent use.
type Controller struct {
	cfg         Config
	timing      Timing
	captureProb float64
	rng         *rand.Rand

	tick            uint64
	ticksSinceEvent uint64
	blankUntil      uint64
	refractUntil    uint64

	stats Stats
}

// New creates a Controller in its reset state.
func New(cfg Config) (*Controller, error) {
	t, err := cfg.Derive()
	if err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:         cfg,
		timing:      t,
		captureProb: cfg.CaptureProbability(),
	}
	c.Reset()

	return c, nil
}

// Config returns the parameters the controller was built with.
func (c *Controller) Config() Config {
	return c.cfg
}

// Timing returns the derived tick counts.
func (c *Controller) Timing() Timing {
	return c.timing
}

// Reset returns the controller to its initial state.
func (c *Controller) Reset() {
	c.tick = 0
	c.blankUntil = 0
	c.refractUntil = 0
	c.stats = Stats{}
	c.rng = rand.New(rand.NewPCG(c.cfg.CaptureSeed, c.cfg.CaptureSeed))

	c.ticksSinceEvent = c.timing.EscapeTicks
	if c.cfg.HoldFirstEscape {
		c.ticksSinceEvent = 0
	}
}

// State returns the current timers.
func (c *Controller) State() State {
	return State{
		Tick:            c.tick,
		TicksSinceEvent: c.ticksSinceEvent,
		BlankUntil:      c.blankUntil,
		RefractUntil:    c.refractUntil,
	}
}

// Stats returns the event counts since reset.
func (c *Controller) Stats() Stats {
	return c.stats
}

// Blanking tells if the current tick is inside the blanking window.
func (c *Controller) Blanking() bool {
	return c.tick < c.blankUntil
}

// Refractory tells if the current tick is inside the refractory window.
func (c *Controller) Refractory() bool {
	return c.tick < c.refractUntil
}

// Step advances the controller by one tick given the detector spike of the
// same tick.
func (c *Controller) Step(spike bool) Decision {
	c.tick++
	d := Decision{Tick: c.tick}

	switch {
	case spike && !c.Blanking() && !c.Refractory():
		d.Sensed = true
		c.ticksSinceEvent = 0
		c.refractUntil = c.tick + c.timing.RefractTicks
		c.stats.Sensed++
		c.stats.LastSensed = c.tick
	case spike:
		d.Ignored = true
		c.ticksSinceEvent++
		c.stats.Ignored++
	default:
		c.ticksSinceEvent++
	}

	if c.ticksSinceEvent >= c.timing.EscapeTicks {
		d.Pace = true
		c.ticksSinceEvent = 0
		c.blankUntil = c.tick + c.timing.BlankTicks
		c.stats.Paced++
		c.stats.LastPaced = c.tick

		d.Captured = c.rng.Float64() < c.captureProb
		if d.Captured {
			c.stats.Captured++
		}
	}

	return d
}
