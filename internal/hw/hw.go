// Package hw is the hardware boundary: analog sampling, binary outputs, the
// door switch, and the scan clock. The real implementation uses the Linux
// GPIO character device and sysfs IIO; fakes allow testing without hardware.
package hw

import "time"

// Output identifies a binary output channel.
type Output int

const (
	// GasValve opens (on) or closes (off) the gas supply.
	GasValve Output = iota
	// Igniter sparks while on.
	Igniter
)

func (o Output) String() string {
	switch o {
	case GasValve:
		return "gas_valve"
	case Igniter:
		return "igniter"
	default:
		return "unknown"
	}
}

// Default pin assignments (BCM numbering).
const (
	DefaultPinGas     = 2
	DefaultPinIgniter = 7
	DefaultPinDoor    = 3
)

// Default IIO ADC channels for the two analog inputs.
const (
	DefaultChanSignal = 0 // temperature sensor
	DefaultChanVref   = 1 // sensor reference voltage
)

// Sampler reads the two analog channels.
type Sampler interface {
	// ReadMillivolts returns the raw reference and signal voltages in mV.
	ReadMillivolts() (vrefMV, signalMV uint16, err error)

	// Close releases ADC resources.
	Close() error
}

// Outputs drives the binary output channels.
type Outputs interface {
	// Set commands the output on or off.
	Set(out Output, on bool) error

	// Get returns the last commanded state of the output.
	Get(out Output) bool

	// Close forces all outputs off and releases resources.
	Close() error
}

// DoorSensor delivers door state changes.
type DoorSensor interface {
	// Watch reports the initial door state and then invokes fn on every
	// edge. fn is called from the line-event goroutine, outside the scan
	// loop — it must not block.
	Watch(fn func(open bool)) error

	// Close stops event delivery and releases the line.
	Close() error
}

// MillisClock returns a monotonic millisecond counter starting near zero.
// The counter wraps at the uint32 boundary; consumers compare timestamps
// with uint32 subtraction.
func MillisClock() func() uint32 {
	start := time.Now()
	return func() uint32 {
		return uint32(time.Since(start).Milliseconds())
	}
}
