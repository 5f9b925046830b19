// Package pacer closes the loop between the detector and the pacing
// controller and drives them from a signal source, one sample per tick.
package pacer

import (
	"github.com/sarchlab/lifpace/detector"
	"github.com/sarchlab/lifpace/pacing"
	"github.com/sarchlab/lifpace/signal"
)

// Trace is the observable outcome of one closed-loop tick.
type Trace struct {
	Tick   uint64        `json:"tick"`
	Sample signal.Sample `json:"sample"`

	V                  int32 `json:"v"`
	Theta              int32 `json:"theta"`
	Drive              int32 `json:"drive"`
	Spike              bool  `json:"spike"`
	DetectorRefractory bool  `json:"detector_refractory"`

	Pace     bool `json:"pace"`
	Captured bool `json:"captured"`
	Sensed   bool `json:"sensed"`
	Ignored  bool `json:"ignored"`
}

// CaptureLabel tells whether the pace of the trace evoked a beat.
func (t Trace) CaptureLabel() string {
	if t.Captured {
		return "captured"
	}

	return "not captured"
}

// Core runs the detector and then the controller on every sample.
type Core struct {
	det  *detector.Detector
	ctrl *pacing.Controller
}

// NewCore creates a Core from an existing detector and controller.
func NewCore(det *detector.Detector, ctrl *pacing.Controller) *Core {
	return &Core{det: det, ctrl: ctrl}
}

// NewCoreFromConfig builds the detector and the controller.
func NewCoreFromConfig(
	detCfg detector.Config,
	pacingCfg pacing.Config,
) (*Core, error) {
	det, err := detector.New(detCfg)
	if err != nil {
		return nil, err
	}

	ctrl, err := pacing.New(pacingCfg)
	if err != nil {
		return nil, err
	}

	return NewCore(det, ctrl), nil
}

// Detector returns the detector of the loop.
func (c *Core) Detector() *detector.Detector {
	return c.det
}

// Controller returns the controller of the loop.
func (c *Core) Controller() *pacing.Controller {
	return c.ctrl
}

// Tick returns the number of accepted samples since reset.
func (c *Core) Tick() uint64 {
	return c.ctrl.State().Tick
}

// Step feeds one sample through the loop. A rejected sample advances
// neither the detector nor the controller.
func (c *Core) Step(sample signal.Sample) (Trace, error) {
	out, err := c.det.Step(sample)
	if err != nil {
		return Trace{Tick: c.Tick(), Sample: sample}, err
	}

	d := c.ctrl.Step(out.Spike)

	return Trace{
		Tick:               d.Tick,
		Sample:             sample,
		V:                  out.V,
		Theta:              out.Theta,
		Drive:              out.Drive,
		Spike:              out.Spike,
		DetectorRefractory: out.Refractory,
		Pace:               d.Pace,
		Captured:           d.Captured,
		Sensed:             d.Sensed,
		Ignored:            d.Ignored,
	}, nil
}

// Reset returns both stages to their initial state.
func (c *Core) Reset() {
	c.det.Reset()
	c.ctrl.Reset()
}
