//go:build linux

package hw

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealOutputs drives the gas valve and igniter through the Linux GPIO
// character device.
type RealOutputs struct {
	chip    *gpiocdev.Chip
	gas     *gpiocdev.Line
	igniter *gpiocdev.Line

	// last commanded states; single writer (the scan loop)
	gasOn     bool
	igniterOn bool
}

// NewRealOutputs requests the output lines, driven low (everything off).
func NewRealOutputs(pinGas, pinIgniter int) (*RealOutputs, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	gas, err := chip.RequestLine(pinGas, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request gas valve pin %d: %w", pinGas, err)
	}

	igniter, err := chip.RequestLine(pinIgniter, gpiocdev.AsOutput(0))
	if err != nil {
		gas.Close()
		chip.Close()
		return nil, fmt.Errorf("request igniter pin %d: %w", pinIgniter, err)
	}

	return &RealOutputs{chip: chip, gas: gas, igniter: igniter}, nil
}

// Set commands the output on or off.
func (r *RealOutputs) Set(out Output, on bool) error {
	v := 0
	if on {
		v = 1
	}
	switch out {
	case GasValve:
		if err := r.gas.SetValue(v); err != nil {
			return fmt.Errorf("set gas valve: %w", err)
		}
		r.gasOn = on
	case Igniter:
		if err := r.igniter.SetValue(v); err != nil {
			return fmt.Errorf("set igniter: %w", err)
		}
		r.igniterOn = on
	default:
		return fmt.Errorf("unknown output %d", out)
	}
	return nil
}

// Get returns the last commanded state of the output.
func (r *RealOutputs) Get(out Output) bool {
	switch out {
	case GasValve:
		return r.gasOn
	case Igniter:
		return r.igniterOn
	}
	return false
}

// Close forces both outputs off, then releases the lines. The gas valve
// must never be left open past process exit.
func (r *RealOutputs) Close() error {
	var errs []error

	if r.gas != nil {
		if err := r.gas.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear gas valve: %w", err))
		}
		if err := r.gas.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close gas valve: %w", err))
		}
	}
	if r.igniter != nil {
		if err := r.igniter.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear igniter: %w", err))
		}
		if err := r.igniter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close igniter: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealDoorSensor watches the door switch line for edges. The switch pulls
// the line to ground when the door is closed, so with the internal pull-up
// a high level means the door is open.
type RealDoorSensor struct {
	chip *gpiocdev.Chip
	pin  int
	line *gpiocdev.Line
}

// NewRealDoorSensor opens the chip for the door line. The line itself is
// requested by Watch, since the event handler must be bound at request time.
func NewRealDoorSensor(pinDoor int) (*RealDoorSensor, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &RealDoorSensor{chip: chip, pin: pinDoor}, nil
}

// Watch requests the door line with both-edge events and reports the
// initial level before any edge can be delivered.
func (r *RealDoorSensor) Watch(fn func(open bool)) error {
	line, err := r.chip.RequestLine(r.pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			fn(evt.Type == gpiocdev.LineEventRisingEdge)
		}))
	if err != nil {
		return fmt.Errorf("request door pin %d: %w", r.pin, err)
	}
	r.line = line

	// Edge events only report changes; seed the current level.
	v, err := line.Value()
	if err != nil {
		return fmt.Errorf("read door pin %d: %w", r.pin, err)
	}
	fn(v != 0)
	return nil
}

// Close releases the door line and chip.
func (r *RealDoorSensor) Close() error {
	var errs []error
	if r.line != nil {
		if err := r.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close door line: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
