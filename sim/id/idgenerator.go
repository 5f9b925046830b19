// Package id provides the identifiers used by tick events and simulation runs.
package id

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
)

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// NewIDGenerator returns a generator that produces increasing decimal IDs.
// Sequential IDs keep replayed traces identical from run to run.
func NewIDGenerator() IDGenerator {
	return &sequentialIDGenerator{}
}

// NewGlobalIDGenerator returns a generator that produces globally unique
// IDs. It is used for naming runs and output files.
func NewGlobalIDGenerator() IDGenerator {
	return xidGenerator{}
}

type sequentialIDGenerator struct {
	nextID uint64
}

func (g *sequentialIDGenerator) Generate() string {
	idNumber := atomic.AddUint64(&g.nextID, 1)
	id := strconv.FormatUint(idNumber, 10)

	return id
}

type xidGenerator struct{}

func (xidGenerator) Generate() string {
	return xid.New().String()
}

var (
	defaultGenerator     IDGenerator = NewIDGenerator()
	defaultGeneratorLock sync.Mutex
)

// Generate returns an ID from the default generator.
func Generate() string {
	defaultGeneratorLock.Lock()
	g := defaultGenerator
	defaultGeneratorLock.Unlock()

	return g.Generate()
}

// UseGenerator replaces the default generator. It is meant to be called
// before the simulation starts.
func UseGenerator(g IDGenerator) {
	defaultGeneratorLock.Lock()
	defaultGenerator = g
	defaultGeneratorLock.Unlock()
}

// RunID returns a new globally unique ID for a simulation run.
func RunID() string {
	return xid.New().String()
}
