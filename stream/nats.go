// Package stream moves samples and pacing events over NATS.
package stream

import (
	"time"

	"github.com/nats-io/nats.go"
)

// Connect opens a NATS connection that keeps reconnecting.
func Connect(url string) (*nats.Conn, error) {
	return nats.Connect(
		url,
		nats.Name("lifpace"),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
	)
}

// Subjects names the subjects used by a pacer.
type Subjects struct {
	// Wave carries samples as little-endian uint16.
	Wave string `yaml:"wave"`
	// Events carries spike and pace events as JSON.
	Events string `yaml:"events"`
}

// DefaultSubjects returns the subjects under the "lifpace" prefix.
func DefaultSubjects() Subjects {
	return Subjects{
		Wave:   "lifpace.wave",
		Events: "lifpace.events",
	}
}
