package signal

import (
	"errors"
	"math"
)

// ErrInvalidECGParameter is returned for non-positive rates or amplitudes.
var ErrInvalidECGParameter = errors.New("invalid ECG parameter")

// ECGSim generates an ECG-like (non clinical) waveform at fs Hz: a slow
// baseline wander, Gaussian P, Q, R, S and T waves, and a little
// deterministic noise. The R wave peaks at amplitude counts above Baseline.
type ECGSim struct {
	fs        float64
	hrBPM     float64
	noise     float64
	amplitude float64
	phase     float64
}

// NewECGSim creates a generator. Typical values are fs=1000, hrBPM between
// 40 and 120, noise up to 0.05 and amplitude around 1800.
func NewECGSim(fs, hrBPM, noise, amplitude float64) (*ECGSim, error) {
	if fs <= 0 || hrBPM <= 0 || amplitude <= 0 || noise < 0 {
		return nil, ErrInvalidECGParameter
	}

	return &ECGSim{
		fs:        fs,
		hrBPM:     hrBPM,
		noise:     noise,
		amplitude: amplitude,
	}, nil
}

// Next returns the next sample and advances time by one sample period.
func (s *ECGSim) Next() (Sample, error) {
	v := s.value(s.phase)

	s.phase += s.hrBPM / 60.0 / s.fs
	if s.phase >= 1.0 {
		s.phase -= 1.0
	}

	return Clamp(int(Baseline) + int(math.Round(v*s.amplitude))), nil
}

// Reset moves the generator back to the start of a beat.
func (s *ECGSim) Reset() {
	s.phase = 0
}

func (s *ECGSim) value(t float64) float64 {
	baseline := 0.05 * math.Sin(2*math.Pi*0.33*t)

	p := 0.08 * gauss(t, 0.18, 0.03)
	q := -0.12 * gauss(t, 0.30, 0.01)
	r := 1.00 * gauss(t, 0.32, 0.008)
	sw := -0.25 * gauss(t, 0.35, 0.012)
	tw := 0.25 * gauss(t, 0.60, 0.06)

	n := s.noise * (2*fract(math.Sin(12345.678*t)*9876.543) - 1)

	return baseline + p + q + r + sw + tw + n
}

func gauss(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}

func fract(x float64) float64 { return x - math.Floor(x) }
