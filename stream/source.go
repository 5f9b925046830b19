package stream

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/sarchlab/lifpace/signal"
)

// ErrNoData is returned when no samples arrive within the timeout.
var ErrNoData = errors.New("no samples received")

// A subscription delivers messages one at a time.
type subscription interface {
	NextMsg(timeout time.Duration) (*nats.Msg, error)
	Unsubscribe() error
}

// Source is a signal.Source fed by a NATS subject. Each message carries a
// batch of encoded samples.
type Source struct {
	sub     subscription
	timeout time.Duration
	pending []signal.Sample
}

// Subscribe creates a Source on subject. Next fails with ErrNoData if no
// message arrives within timeout.
func Subscribe(
	nc *nats.Conn,
	subject string,
	timeout time.Duration,
) (*Source, error) {
	sub, err := nc.SubscribeSync(subject)
	if err != nil {
		return nil, err
	}

	return newSource(sub, timeout), nil
}

func newSource(sub subscription, timeout time.Duration) *Source {
	return &Source{sub: sub, timeout: timeout}
}

// Next returns the next received sample, waiting for a message if needed.
func (s *Source) Next() (signal.Sample, error) {
	for len(s.pending) == 0 {
		msg, err := s.sub.NextMsg(s.timeout)
		if errors.Is(err, nats.ErrTimeout) {
			return 0, fmt.Errorf("%w in %v", ErrNoData, s.timeout)
		}

		if err != nil {
			return 0, err
		}

		s.pending = signal.DecodeSamples(msg.Data)
	}

	sample := s.pending[0]
	s.pending = s.pending[1:]

	return sample, nil
}

// Close stops the subscription.
func (s *Source) Close() error {
	return s.sub.Unsubscribe()
}
