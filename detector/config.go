package detector

import (
	"errors"
	"fmt"
	"math"

	"github.com/sarchlab/lifpace/signal"
)

const (
	// leakShift sets the membrane leak to v/16 per tick.
	leakShift = 4

	// decayShift sets the threshold relaxation time constant to 32 ticks.
	decayShift = 5
)

var (
	// ErrInvalidGain indicates the gain must be positive.
	ErrInvalidGain = errors.New("gain must be positive")
	// ErrInvalidDeadZone indicates the dead zone must be within the sample
	// half range.
	ErrInvalidDeadZone = errors.New("dead zone must be between 0 and 2047")
	// ErrInvalidThreshold indicates the threshold base must be positive and
	// the increment non-negative.
	ErrInvalidThreshold = errors.New("threshold base must be positive and increment non-negative")
	// ErrInvalidRefractory indicates the refractory tick count is negative.
	ErrInvalidRefractory = errors.New("refractory ticks must be non-negative")
	// ErrInvalidHomeostasis indicates an inconsistent homeostasis setup.
	ErrInvalidHomeostasis = errors.New("invalid homeostasis configuration")
	// ErrAccumulatorRange indicates that the worst-case potential or threshold
	// would not fit the 32-bit accumulators.
	ErrAccumulatorRange = errors.New("accumulator range exceeded")
)

// Config holds the constants of the detector. It is immutable once a
// Detector is built from it.
type Config struct {
	// Gain multiplies the centered sample outside the dead zone.
	Gain int32 `yaml:"gain"`
	// DeadZone is the half width of the band around the baseline that is
	// treated as zero drive. The comparison is inclusive.
	DeadZone int32 `yaml:"dead_zone"`
	// VReset is the potential right after a spike.
	VReset int32 `yaml:"v_reset"`
	// ThetaBase is the resting threshold.
	ThetaBase int32 `yaml:"theta_base"`
	// ThetaInc is added to the threshold on each spike.
	ThetaInc int32 `yaml:"theta_inc"`
	// RefractoryTicks is how many ticks integration stays frozen after a
	// spike.
	RefractoryTicks int `yaml:"refractory_ticks"`

	Homeostasis HomeostasisConfig `yaml:"homeostasis"`
}

// HomeostasisConfig slowly moves the threshold base so that the spike rate
// approaches a target. It is off when WindowTicks is zero.
type HomeostasisConfig struct {
	WindowTicks  int   `yaml:"window_ticks"`
	TargetSpikes int   `yaml:"target_spikes"`
	Rate         int32 `yaml:"rate"`
	MinBase      int32 `yaml:"min_base"`
	MaxBase      int32 `yaml:"max_base"`
}

// Enabled tells if the threshold base adapts.
func (h HomeostasisConfig) Enabled() bool {
	return h.WindowTicks > 0
}

// DefaultConfig returns the reference detector constants.
func DefaultConfig() Config {
	return Config{
		Gain:            40,
		DeadZone:        100,
		VReset:          0,
		ThetaBase:       1536,
		ThetaInc:        128,
		RefractoryTicks: 3,
	}
}

// Validate checks the configuration, including that no reachable potential
// or threshold can overflow.
func (c Config) Validate() error {
	if c.Gain <= 0 {
		return ErrInvalidGain
	}

	if c.DeadZone < 0 || c.DeadZone >= int32(signal.Baseline) {
		return ErrInvalidDeadZone
	}

	if c.ThetaBase <= 0 || c.ThetaInc < 0 {
		return ErrInvalidThreshold
	}

	if c.RefractoryTicks < 0 {
		return ErrInvalidRefractory
	}

	if err := c.Homeostasis.validate(c.ThetaBase); err != nil {
		return err
	}

	if c.ThresholdBound() > math.MaxInt32 {
		return fmt.Errorf("%w: threshold may reach %d",
			ErrAccumulatorRange, c.ThresholdBound())
	}

	return nil
}

func (h HomeostasisConfig) validate(base int32) error {
	if h.WindowTicks < 0 {
		return fmt.Errorf("%w: negative window", ErrInvalidHomeostasis)
	}

	if !h.Enabled() {
		return nil
	}

	if h.Rate < 0 || h.TargetSpikes < 0 {
		return fmt.Errorf("%w: negative rate or target", ErrInvalidHomeostasis)
	}

	if h.MinBase <= 0 || h.MinBase > base || base > h.MaxBase {
		return fmt.Errorf("%w: base %d outside [%d, %d]",
			ErrInvalidHomeostasis, base, h.MinBase, h.MaxBase)
	}

	return nil
}

// PotentialBound returns the largest magnitude the membrane potential can
// reach. With a leak of v/16 the potential settles at sixteen times the
// largest per-tick drive.
func (c Config) PotentialBound() int64 {
	maxDrive := int64(c.Gain) * int64(signal.Baseline)
	bound := maxDrive<<leakShift + 1<<leakShift

	reset := int64(c.VReset)
	if reset < 0 {
		reset = -reset
	}

	if reset > bound {
		return reset
	}

	return bound
}

// ThresholdBound returns the largest magnitude the threshold can reach. The
// threshold only grows on a spike, which requires the potential to have
// reached it first.
func (c Config) ThresholdBound() int64 {
	base := int64(c.ThetaBase)
	if c.Homeostasis.Enabled() && int64(c.Homeostasis.MaxBase) > base {
		base = int64(c.Homeostasis.MaxBase)
	}

	bound := c.PotentialBound() + int64(c.ThetaInc)
	if base > bound {
		bound = base
	}

	return bound
}
