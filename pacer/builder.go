package pacer

import (
	"log"

	"github.com/sarchlab/lifpace/detector"
	"github.com/sarchlab/lifpace/pacing"
	"github.com/sarchlab/lifpace/signal"
	"github.com/sarchlab/lifpace/sim/modeling"
	"github.com/sarchlab/lifpace/sim/timing"
)

// Builder can build pacer components.
type Builder struct {
	engine    timing.Engine
	freq      timing.Freq
	source    signal.Source
	detCfg    detector.Config
	pacingCfg pacing.Config
	numTicks  uint64

	artifactAmplitude int
	artifactWidth     int
}

// MakeBuilder returns a Builder with the reference configuration.
func MakeBuilder() Builder {
	return Builder{
		freq:      1 * timing.KHz,
		detCfg:    detector.DefaultConfig(),
		pacingCfg: pacing.DefaultConfig(),
	}
}

// WithEngine sets the engine that schedules the ticks.
func (b Builder) WithEngine(engine timing.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the tick frequency. It should match the pacing sample rate.
func (b Builder) WithFreq(freq timing.Freq) Builder {
	b.freq = freq
	return b
}

// WithSource sets where samples come from.
func (b Builder) WithSource(source signal.Source) Builder {
	b.source = source
	return b
}

// WithDetectorConfig sets the detector constants.
func (b Builder) WithDetectorConfig(cfg detector.Config) Builder {
	b.detCfg = cfg
	return b
}

// WithPacingConfig sets the pacing parameters.
func (b Builder) WithPacingConfig(cfg pacing.Config) Builder {
	b.pacingCfg = cfg
	return b
}

// WithNumTicks limits the number of samples pulled. Zero means no limit.
func (b Builder) WithNumTicks(n uint64) Builder {
	b.numTicks = n
	return b
}

// WithPaceArtifact adds a decaying artifact of the given amplitude and width
// to the observed signal after every pace that captures.
func (b Builder) WithPaceArtifact(amplitude, width int) Builder {
	b.artifactAmplitude = amplitude
	b.artifactWidth = width

	return b
}

// Build creates a pacer component. Invalid configurations are returned as
// errors.
func (b Builder) Build(name string) (*Comp, error) {
	if b.engine == nil {
		log.Panic("pacer: engine is not set")
	}

	if b.source == nil {
		log.Panic("pacer: source is not set")
	}

	core, err := NewCoreFromConfig(b.detCfg, b.pacingCfg)
	if err != nil {
		return nil, err
	}

	c := &Comp{
		core:     core,
		source:   b.source,
		numTicks: b.numTicks,
	}

	if b.artifactWidth > 0 {
		c.artifact = signal.NewArtifactSource(b.source)
		c.artifactAmplitude = b.artifactAmplitude
		c.artifactWidth = b.artifactWidth
		c.source = c.artifact
	}

	c.TickingComponent = modeling.NewTickingComponent(name, b.engine, b.freq, c)

	return c, nil
}
