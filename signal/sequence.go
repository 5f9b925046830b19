package signal

import "errors"

// ErrEmptySequence is returned when a sequence has no samples.
var ErrEmptySequence = errors.New("sequence has no samples")

// ReferenceSamples is the repeating ten-sample test pattern. It holds three
// full-scale beats over a flat baseline.
var ReferenceSamples = []Sample{
	4095, 2048, 2048, 2048, 2048, 2048, 4095, 2048, 4095, 2048,
}

// Sequence replays a fixed list of samples, wrapping around at the end.
type Sequence struct {
	samples []Sample
	next    int
}

// NewSequence creates a Sequence over a copy of samples.
func NewSequence(samples []Sample) (*Sequence, error) {
	if len(samples) == 0 {
		return nil, ErrEmptySequence
	}

	s := &Sequence{samples: make([]Sample, len(samples))}
	copy(s.samples, samples)

	return s, nil
}

// NewReferenceSequence creates a Sequence that replays ReferenceSamples.
func NewReferenceSequence() *Sequence {
	s, _ := NewSequence(ReferenceSamples)
	return s
}

// NewConstant creates a Sequence that always returns the same sample.
func NewConstant(sample Sample) *Sequence {
	s, _ := NewSequence([]Sample{sample})
	return s
}

// Next returns the next sample in the sequence.
func (s *Sequence) Next() (Sample, error) {
	sample := s.samples[s.next]

	s.next++
	if s.next == len(s.samples) {
		s.next = 0
	}

	return sample, nil
}

// Reset rewinds the sequence to its first sample.
func (s *Sequence) Reset() {
	s.next = 0
}

// Len returns the period of the sequence.
func (s *Sequence) Len() int {
	return len(s.samples)
}
