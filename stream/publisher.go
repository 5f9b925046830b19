package stream

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/sarchlab/lifpace/pacer"
	"github.com/sarchlab/lifpace/signal"
	"github.com/sarchlab/lifpace/sim/hooking"
)

// A publisher sends a message to a subject. *nats.Conn is a publisher.
type publisher interface {
	Publish(subject string, data []byte) error
}

// Event is the JSON message published for spikes and paces.
type Event struct {
	Kind  string `json:"kind"`
	Where string `json:"where"`
	Tick  uint64 `json:"tick"`
	Theta int32  `json:"theta"`
	Fate  string `json:"fate,omitempty"`
}

// Publisher is a hook that forwards the observed samples and the pacing
// events of a pacer.
type Publisher struct {
	lock     sync.Mutex
	conn     publisher
	subjects Subjects
	batch    int
	wave     []signal.Sample
	errs     int
}

// NewPublisher creates a Publisher that sends samples in batches of the
// given size.
func NewPublisher(conn publisher, subjects Subjects, batch int) *Publisher {
	if batch < 1 {
		batch = 1
	}

	return &Publisher{conn: conn, subjects: subjects, batch: batch}
}

// Func handles tick, spike and pace positions.
func (p *Publisher) Func(ctx hooking.HookCtx) {
	trace, ok := ctx.Item.(pacer.Trace)
	if !ok {
		return
	}

	switch ctx.Pos {
	case pacer.HookPosTick:
		p.addSample(trace.Sample)
	case pacer.HookPosSpike:
		p.publishEvent(ctx, "spike", trace)
	case pacer.HookPosPace:
		p.publishEvent(ctx, "pace", trace)
	}
}

func (p *Publisher) addSample(s signal.Sample) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.wave = append(p.wave, s)
	if len(p.wave) >= p.batch {
		p.flushWave()
	}
}

func (p *Publisher) publishEvent(
	ctx hooking.HookCtx,
	kind string,
	trace pacer.Trace,
) {
	evt := Event{Kind: kind, Tick: trace.Tick, Theta: trace.Theta}

	if d, ok := ctx.Domain.(interface{ Name() string }); ok {
		evt.Where = d.Name()
	}

	switch {
	case kind == "pace":
		evt.Fate = trace.CaptureLabel()
	case trace.Sensed:
		evt.Fate = "sensed"
	case trace.Ignored:
		evt.Fate = "ignored"
	}

	b, err := json.Marshal(evt)
	if err != nil {
		log.Panic(err)
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	p.publish(p.subjects.Events, b)
}

// Flush sends the samples that do not yet fill a batch.
func (p *Publisher) Flush() {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.flushWave()
}

func (p *Publisher) flushWave() {
	if len(p.wave) == 0 {
		return
	}

	p.publish(p.subjects.Wave, signal.EncodeSamples(p.wave))
	p.wave = p.wave[:0]
}

func (p *Publisher) publish(subject string, data []byte) {
	if err := p.conn.Publish(subject, data); err != nil {
		p.errs++
		if p.errs == 1 {
			log.Printf("stream: publish to %s failed: %v", subject, err)
		}
	}
}

// Errors returns the number of failed publishes.
func (p *Publisher) Errors() int {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.errs
}
