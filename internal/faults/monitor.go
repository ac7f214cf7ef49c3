// Package faults validates the analog sensor readings and decides the
// authoritative sensor-fault bit. Instantaneous range checks are debounced:
// a transient out-of-range scan (ADC noise, connector bounce) is absorbed,
// and only a run persisting longer than the configured window latches a
// fault. A latched fault clears automatically after a sustained run of valid
// readings, never instantly, to prevent flapping around a borderline sensor.
//
// All timing uses the scan clock: uint32 milliseconds compared with uint32
// subtraction, so elapsed checks stay correct across counter wraparound.
package faults

import (
	"github.com/sweeney/oven-controller/internal/config"
	"github.com/sweeney/oven-controller/internal/filter"
)

// Signal validity band as a fraction of vref. The same band anchors the
// temperature map below; it is a hardware design constant, not configurable.
const (
	signalBandLow  = 0.10
	signalBandHigh = 0.90
)

// Temperature endpoints of the linear map over the signal band.
const (
	tempMinC = -10.0
	tempMaxC = 300.0
)

// Result carries the per-scan fault bits. VrefFault and SignalFault are
// instantaneous (this scan only); SensorFault is the latched, authoritative
// bit the state machine acts on.
type Result struct {
	VrefFault   bool
	SignalFault bool
	SensorFault bool
}

// Monitor holds the debounce/latch timing state. Owned by the scan loop;
// not safe for concurrent use.
type Monitor struct {
	outActive  bool   // an out-of-range run is in progress
	outSinceMS uint32 // scan-clock start of that run

	validActive  bool   // a post-latch valid run is in progress
	validSinceMS uint32 // scan-clock start of that run

	latched bool
}

// NewMonitor creates a Monitor with no history and no latched fault.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// Reset clears all timing state and any latched fault.
func (m *Monitor) Reset() {
	*m = Monitor{}
}

// Latched reports whether a sensor fault is currently latched.
func (m *Monitor) Latched() bool {
	return m.latched
}

// Evaluate applies the range checks and debounce/latch logic for one scan.
func (m *Monitor) Evaluate(nowMS uint32, r filter.Reading, p config.Params) Result {
	res := Result{
		VrefFault:   vrefOutOfRange(r.VrefMV, p),
		SignalFault: signalOutOfRange(r.VrefMV, r.SignalMV),
	}

	if res.VrefFault || res.SignalFault {
		// Out-of-range run: any valid run in progress is abandoned.
		m.validActive = false
		m.validSinceMS = 0
		if !m.outActive {
			m.outActive = true
			m.outSinceMS = nowMS
		}
		if !m.latched && nowMS-m.outSinceMS > p.SensorFaultWindowMS {
			m.latched = true
		}
	} else {
		m.outActive = false
		m.outSinceMS = 0
		if m.latched {
			if !m.validActive {
				m.validActive = true
				m.validSinceMS = nowMS
			}
			if nowMS-m.validSinceMS >= p.AutoResumeDelayMS {
				m.latched = false
				m.validActive = false
				m.validSinceMS = 0
			}
		}
	}

	res.SensorFault = m.latched
	return res
}

func vrefOutOfRange(vrefMV uint16, p config.Params) bool {
	v := float64(vrefMV) / 1000.0
	return v < p.VrefMinV || v > p.VrefMaxV
}

// signalOutOfRange checks the signal against [10%, 90%] of vref.
// The bounds themselves are valid.
func signalOutOfRange(vrefMV, signalMV uint16) bool {
	lo := signalBandLow * float64(vrefMV)
	hi := signalBandHigh * float64(vrefMV)
	s := float64(signalMV)
	return s < lo || s > hi
}

// Temperature maps a signal reading to °C: tempMinC at or below 10% of
// vref, tempMaxC at or above 90%, linear in between. It is computed
// regardless of fault state so it can still be logged and displayed while a
// fault is latched.
func Temperature(vrefMV, signalMV uint16) float64 {
	lo := signalBandLow * float64(vrefMV)
	hi := signalBandHigh * float64(vrefMV)
	s := float64(signalMV)

	if s <= lo {
		return tempMinC
	}
	if s >= hi {
		return tempMaxC
	}
	span := (signalBandHigh - signalBandLow) * float64(vrefMV)
	return tempMinC + (s-lo)/span*(tempMaxC-tempMinC)
}
