// Package paceout drives a physical output line with the pacer's decisions.
package paceout

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/sarchlab/lifpace/pacer"
	"github.com/sarchlab/lifpace/sim/hooking"
)

// ErrPinNotFound is returned when no GPIO line has the requested name.
var ErrPinNotFound = errors.New("gpio pin not found")

// Pin is the part of a GPIO line that the output uses.
type Pin interface {
	Name() string
	Out(l gpio.Level) error
}

// Pulse is a hook that raises a pin for a fixed number of ticks after every
// pace.
type Pulse struct {
	lock sync.Mutex

	pin   Pin
	width uint64

	high   bool
	lowAt  uint64
	pulses uint64
	errs   []error
}

// OpenPin initializes the host drivers and looks up a GPIO line by name,
// such as "GPIO17".
func OpenPin(name string) (gpio.PinIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("gpio init: %w", err)
	}

	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrPinNotFound, name)
	}

	return p, nil
}

// NewPulse drives pin low and returns the hook. A zero width is treated as
// one tick.
func NewPulse(pin Pin, width uint64) (*Pulse, error) {
	if width == 0 {
		width = 1
	}

	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("gpio %s: %w", pin.Name(), err)
	}

	return &Pulse{pin: pin, width: width}, nil
}

// Func follows the ticks of a pacer component.
func (p *Pulse) Func(ctx hooking.HookCtx) {
	if ctx.Pos != pacer.HookPosTick {
		return
	}

	t := ctx.Item.(pacer.Trace)

	p.lock.Lock()
	defer p.lock.Unlock()

	switch {
	case t.Pace:
		p.set(gpio.High)
		p.high = true
		p.lowAt = t.Tick + p.width
		p.pulses++
	case p.high && t.Tick >= p.lowAt:
		p.set(gpio.Low)
		p.high = false
	}
}

func (p *Pulse) set(l gpio.Level) {
	if err := p.pin.Out(l); err != nil {
		p.errs = append(p.errs, err)
	}
}

// Pulses returns the number of pulses started.
func (p *Pulse) Pulses() uint64 {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.pulses
}

// High tells if the pin is currently driven high.
func (p *Pulse) High() bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.high
}

// Err returns the joined errors of every failed write.
func (p *Pulse) Err() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	return errors.Join(p.errs...)
}

// Close drives the pin low.
func (p *Pulse) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.high = false

	return p.pin.Out(gpio.Low)
}
