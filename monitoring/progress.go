package monitoring

import (
	"sync"
	"time"

	"github.com/sarchlab/lifpace/signal"
)

// A ProgressBar tracks the samples of a run. A sample is in progress while
// its source is producing it and finished once it has been handed over.
type ProgressBar struct {
	mu     sync.Mutex
	status ProgressBarStatus
}

// ProgressBarStatus is a copy of a progress bar at one moment.
type ProgressBarStatus struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// Status returns the current values of the bar.
func (b *ProgressBar) Status() ProgressBarStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.status
}

// Begin marks n samples as requested from the source.
func (b *ProgressBar) Begin(n uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.status.InProgress += n
}

// Finish moves up to n in-progress samples to finished.
func (b *ProgressBar) Finish(n uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n = min(n, b.status.InProgress)
	b.status.InProgress -= n
	b.status.Finished += n
}

// Abort drops up to n in-progress samples that never arrived.
func (b *ProgressBar) Abort(n uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.status.InProgress -= min(n, b.status.InProgress)
}

// TrackSource returns a source that counts every sample pulled from src on
// the bar. While src blocks, the sample shows as in progress.
func (b *ProgressBar) TrackSource(src signal.Source) signal.Source {
	return &trackedSource{Source: src, bar: b}
}

type trackedSource struct {
	signal.Source
	bar *ProgressBar
}

func (s *trackedSource) Next() (signal.Sample, error) {
	s.bar.Begin(1)

	v, err := s.Source.Next()
	if err != nil {
		s.bar.Abort(1)
		return v, err
	}

	s.bar.Finish(1)

	return v, nil
}

func (s *trackedSource) Reset() {
	if r, ok := s.Source.(signal.Resetter); ok {
		r.Reset()
	}
}
