package stream

import (
	"context"
	"errors"
	"time"

	"github.com/sarchlab/lifpace/signal"
)

// ErrInvalidRate is returned for a non-positive sample rate.
var ErrInvalidRate = errors.New("sample rate must be positive")

// Produce publishes samples from src on subject in real time, rateHz samples
// per second in messages of batch samples, until ctx is done or the source
// fails. It returns the number of samples published.
func Produce(
	ctx context.Context,
	conn publisher,
	subject string,
	src signal.Source,
	rateHz int,
	batch int,
) (uint64, error) {
	if rateHz <= 0 {
		return 0, ErrInvalidRate
	}

	if batch < 1 {
		batch = 1
	}

	ticker := time.NewTicker(time.Second / time.Duration(rateHz))
	defer ticker.Stop()

	var sent uint64
	buffer := make([]signal.Sample, 0, batch)

	for {
		select {
		case <-ctx.Done():
			return sent, nil
		case <-ticker.C:
			s, err := src.Next()
			if err != nil {
				return sent, err
			}

			buffer = append(buffer, s)
			if len(buffer) < batch {
				continue
			}

			if err := conn.Publish(subject, signal.EncodeSamples(buffer)); err != nil {
				return sent, err
			}

			sent += uint64(len(buffer))
			buffer = buffer[:0]
		}
	}
}
