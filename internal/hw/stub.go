//go:build !linux

package hw

import "errors"

var errNotSupported = errors.New("hw: not supported on this platform (requires Linux)")

// RealOutputs is not available on non-Linux platforms.
type RealOutputs struct{}

// NewRealOutputs returns an error on non-Linux platforms.
func NewRealOutputs(pinGas, pinIgniter int) (*RealOutputs, error) {
	return nil, errNotSupported
}

func (r *RealOutputs) Set(out Output, on bool) error { return errNotSupported }
func (r *RealOutputs) Get(out Output) bool           { return false }
func (r *RealOutputs) Close() error                  { return nil }

// RealDoorSensor is not available on non-Linux platforms.
type RealDoorSensor struct{}

// NewRealDoorSensor returns an error on non-Linux platforms.
func NewRealDoorSensor(pinDoor int) (*RealDoorSensor, error) {
	return nil, errNotSupported
}

func (r *RealDoorSensor) Watch(fn func(open bool)) error { return errNotSupported }
func (r *RealDoorSensor) Close() error                   { return nil }
