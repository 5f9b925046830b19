package signal

// ArtifactSource adds the electrical artifact of a delivered pacing pulse on
// top of another source. After Inject, the next width samples carry a
// linearly decaying offset starting at amplitude counts.
type ArtifactSource struct {
	inner Source

	amplitude int
	width     int
	offset    int
}

// NewArtifactSource wraps inner.
func NewArtifactSource(inner Source) *ArtifactSource {
	return &ArtifactSource{inner: inner}
}

// Inject starts a new artifact. An artifact that is still decaying is
// replaced.
func (a *ArtifactSource) Inject(amplitude, width int) {
	if width <= 0 {
		return
	}

	a.amplitude = amplitude
	a.width = width
	a.offset = 0
}

// Active tells if an artifact is currently being added.
func (a *ArtifactSource) Active() bool {
	return a.offset < a.width
}

// Next returns the inner sample plus the current artifact level. An
// out-of-range inner sample is passed on unchanged so that the consumer
// rejects it, but still uses up one artifact sample.
func (a *ArtifactSource) Next() (Sample, error) {
	sample, err := a.inner.Next()
	if err != nil {
		return sample, err
	}

	if !a.Active() {
		return sample, nil
	}

	level := a.amplitude * (a.width - a.offset) / a.width
	a.offset++

	if sample.Validate() != nil {
		return sample, nil
	}

	return Clamp(int(sample) + level), nil
}

// Reset clears any pending artifact and resets the inner source if it can be
// reset.
func (a *ArtifactSource) Reset() {
	a.amplitude, a.width, a.offset = 0, 0, 0

	if r, ok := a.inner.(Resetter); ok {
		r.Reset()
	}
}
