package cmd

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/sarchlab/lifpace/config"
	"github.com/sarchlab/lifpace/signal"
	"github.com/sarchlab/lifpace/stream"
)

// openedSource is a source plus the function that releases it.
type openedSource struct {
	signal.Source
	close func() error
}

func (s openedSource) Close() error {
	if s.close == nil {
		return nil
	}

	return s.close()
}

// newSource creates the sample source that the configuration selects. The
// NATS connection is only used by the nats kind.
func newSource(c *config.Config, nc *nats.Conn) (openedSource, error) {
	sc := c.Source

	switch sc.Kind {
	case config.SourceReference:
		return openedSource{Source: signal.NewReferenceSequence()}, nil
	case config.SourceSequence:
		seq, err := signal.NewSequence(sc.Samples)
		if err != nil {
			return openedSource{}, err
		}

		return openedSource{Source: seq}, nil
	case config.SourceConstant:
		if err := sc.Constant.Validate(); err != nil {
			return openedSource{}, err
		}

		return openedSource{Source: signal.NewConstant(sc.Constant)}, nil
	case config.SourceECG:
		ecg, err := signal.NewECGSim(float64(c.Pacing.SampleRateHz),
			sc.ECG.HeartRateBPM, sc.ECG.Noise, sc.ECG.Amplitude)
		if err != nil {
			return openedSource{}, err
		}

		return openedSource{Source: ecg}, nil
	case config.SourceSerial:
		port, err := signal.OpenSerial(sc.Serial.Device, sc.Serial.Baud,
			sc.Serial.ReadTimeout)
		if err != nil {
			return openedSource{}, err
		}

		return openedSource{Source: port, close: port.Close}, nil
	case config.SourceNATS:
		if nc == nil {
			return openedSource{}, fmt.Errorf("nats source needs a connection")
		}

		src, err := stream.Subscribe(nc, c.NATS.Subjects.Wave, c.NATS.Timeout)
		if err != nil {
			return openedSource{}, err
		}

		return openedSource{Source: src, close: src.Close}, nil
	default:
		return openedSource{}, fmt.Errorf("unknown source kind %q", sc.Kind)
	}
}
