package pacer

import (
	"github.com/sarchlab/lifpace/detector"
	"github.com/sarchlab/lifpace/pacing"
	"github.com/sarchlab/lifpace/signal"
	"github.com/sarchlab/lifpace/sim/hooking"
	"github.com/sarchlab/lifpace/sim/modeling"
)

var (
	// HookPosTick marks every accepted sample. The item is the Trace.
	HookPosTick = &hooking.HookPos{Name: "Tick"}
	// HookPosSpike marks a detector spike. The item is the Trace.
	HookPosSpike = &hooking.HookPos{Name: "Spike"}
	// HookPosPace marks a delivered pace. The item is the Trace.
	HookPosPace = &hooking.HookPos{Name: "Pace"}
	// HookPosReject marks a sample that failed validation. The item is a
	// Reject.
	HookPosReject = &hooking.HookPos{Name: "Reject"}
)

// Reject describes a sample that the loop refused.
type Reject struct {
	Tick   uint64
	Sample signal.Sample
	Err    error
}

// Snapshot is a consistent view of the component, safe to take from another
// goroutine.
type Snapshot struct {
	Name       string         `json:"name"`
	Pulled     uint64         `json:"pulled"`
	Rejected   uint64         `json:"rejected"`
	Last       Trace          `json:"last"`
	Detector   detector.State `json:"detector"`
	Controller pacing.State   `json:"controller"`
	Stats      pacing.Stats   `json:"stats"`
	Timing     pacing.Timing  `json:"timing"`
	Done       bool           `json:"done"`
	Err        string         `json:"err,omitempty"`
}

// Comp is a ticking component that pulls one sample from its source on every
// tick and steps the closed loop.
type Comp struct {
	*modeling.TickingComponent

	core     *Core
	source   signal.Source
	numTicks uint64

	artifact          *signal.ArtifactSource
	artifactAmplitude int
	artifactWidth     int

	pulled   uint64
	rejected uint64
	last     Trace
	done     bool
	err      error
}

// Core returns the closed loop driven by the component.
func (c *Comp) Core() *Core {
	return c.core
}

// Tick pulls and processes one sample.
func (c *Comp) Tick() bool {
	c.Lock()
	if c.finished() {
		c.done = true
		c.Unlock()

		return false
	}

	sample, err := c.source.Next()
	if err != nil {
		c.err = err
		c.done = true
		c.Unlock()

		return false
	}

	c.pulled++
	trace, err := c.core.Step(sample)
	if err != nil {
		c.rejected++
		c.Unlock()

		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Pos:    HookPosReject,
			Item:   Reject{Tick: trace.Tick, Sample: sample, Err: err},
		})

		return true
	}

	c.last = trace
	if trace.Captured && c.artifact != nil {
		c.artifact.Inject(c.artifactAmplitude, c.artifactWidth)
	}
	c.Unlock()

	c.invokeTraceHooks(trace)

	return true
}

func (c *Comp) finished() bool {
	return c.numTicks > 0 && c.pulled >= c.numTicks
}

func (c *Comp) invokeTraceHooks(trace Trace) {
	ctx := hooking.HookCtx{Domain: c, Pos: HookPosTick, Item: trace}
	c.InvokeHook(ctx)

	if trace.Spike {
		ctx.Pos = HookPosSpike
		c.InvokeHook(ctx)
	}

	if trace.Pace {
		ctx.Pos = HookPosPace
		c.InvokeHook(ctx)
	}
}

// Err returns the source error that stopped the component, if any.
func (c *Comp) Err() error {
	c.Lock()
	defer c.Unlock()

	return c.err
}

// Snapshot returns the current state of the component.
func (c *Comp) Snapshot() Snapshot {
	c.Lock()
	defer c.Unlock()

	s := Snapshot{
		Name:       c.Name(),
		Pulled:     c.pulled,
		Rejected:   c.rejected,
		Last:       c.last,
		Detector:   c.core.Detector().State(),
		Controller: c.core.Controller().State(),
		Stats:      c.core.Controller().Stats(),
		Timing:     c.core.Controller().Timing(),
		Done:       c.done,
	}

	if c.err != nil {
		s.Err = c.err.Error()
	}

	return s
}

// Report returns the snapshot for the monitoring server.
func (c *Comp) Report() any {
	return c.Snapshot()
}

// Reset returns the loop and the source to their initial state.
func (c *Comp) Reset() {
	c.Lock()
	defer c.Unlock()

	c.core.Reset()
	if r, ok := c.source.(signal.Resetter); ok {
		r.Reset()
	}

	c.pulled = 0
	c.rejected = 0
	c.last = Trace{}
	c.done = false
	c.err = nil
}
