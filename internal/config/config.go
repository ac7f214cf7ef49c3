// Package config holds the runtime-adjustable oven parameters.
// Setters are range-validated: out-of-range values are silently ignored and
// the previous value is kept. Callers that need confirmation must read the
// value back. Changes take effect on the next control scan.
package config

import "sync"

// Params is a value snapshot of the oven configuration.
type Params struct {
	IgnitionDurationMS  uint32  // igniter ON duration after gas opens
	PeriodicLogMS       uint32  // interval between periodic status log lines
	SensorFaultWindowMS uint32  // out-of-range duration before latching a fault
	AutoResumeDelayMS   uint32  // valid-readings duration before clearing a fault
	VrefMinV            float64 // minimum acceptable reference voltage
	VrefMaxV            float64 // maximum acceptable reference voltage
	TempTargetC         float64 // control target temperature
	TempDeltaC          float64 // hysteresis half-band around target
	MaxIgnitionAttempts int     // ignition retries before lockout
	PurgeTimeMS         uint32  // gas purge time after a failed ignition
	FlameRiseC          float64 // minimum temperature rise to confirm flame
	FlameDetectEnabled  bool    // whether ignition success requires a temperature rise
}

// Defaults returns the factory configuration.
func Defaults() Params {
	return Params{
		IgnitionDurationMS:  5000,
		PeriodicLogMS:       1000,
		SensorFaultWindowMS: 1000,
		AutoResumeDelayMS:   3000,
		VrefMinV:            4.5,
		VrefMaxV:            5.5,
		TempTargetC:         180.0,
		TempDeltaC:          2.0,
		MaxIgnitionAttempts: 3,
		PurgeTimeMS:         2500,
		FlameRiseC:          2.0,
		FlameDetectEnabled:  false,
	}
}

// Store holds the live configuration behind an RWMutex so the web layer can
// mutate it while the scan loop reads it. The loop takes one Snapshot per
// scan, so a parameter never changes mid-scan.
type Store struct {
	mu sync.RWMutex
	p  Params
}

// NewStore creates a Store initialized to defaults.
func NewStore() *Store {
	return &Store{p: Defaults()}
}

// Snapshot returns a copy of the current parameters.
func (s *Store) Snapshot() Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p
}

// ResetDefaults restores the factory configuration.
func (s *Store) ResetDefaults() {
	s.mu.Lock()
	s.p = Defaults()
	s.mu.Unlock()
}

// SetIgnitionDurationMS sets the igniter ON duration. Valid: 1000–30000 ms.
func (s *Store) SetIgnitionDurationMS(v uint32) {
	if v < 1000 || v > 30000 {
		return
	}
	s.mu.Lock()
	s.p.IgnitionDurationMS = v
	s.mu.Unlock()
}

// SetPeriodicLogMS sets the periodic log interval. Valid: 100–60000 ms.
func (s *Store) SetPeriodicLogMS(v uint32) {
	if v < 100 || v > 60000 {
		return
	}
	s.mu.Lock()
	s.p.PeriodicLogMS = v
	s.mu.Unlock()
}

// SetSensorFaultWindowMS sets the fault debounce window. Valid: 100–10000 ms.
func (s *Store) SetSensorFaultWindowMS(v uint32) {
	if v < 100 || v > 10000 {
		return
	}
	s.mu.Lock()
	s.p.SensorFaultWindowMS = v
	s.mu.Unlock()
}

// SetAutoResumeDelayMS sets the fault auto-resume delay. Valid: 1000–30000 ms.
func (s *Store) SetAutoResumeDelayMS(v uint32) {
	if v < 1000 || v > 30000 {
		return
	}
	s.mu.Lock()
	s.p.AutoResumeDelayMS = v
	s.mu.Unlock()
}

// SetVrefRangeV sets the acceptable reference-voltage range.
// Valid: both in [0,10] V with min < max. Set atomically as a pair.
func (s *Store) SetVrefRangeV(min, max float64) {
	if min < 0 || min > 10 || max < 0 || max > 10 || min >= max {
		return
	}
	s.mu.Lock()
	s.p.VrefMinV = min
	s.p.VrefMaxV = max
	s.mu.Unlock()
}

// SetTempTargetC sets the control target. Valid: 0–300 °C.
func (s *Store) SetTempTargetC(v float64) {
	if v < 0 || v > 300 {
		return
	}
	s.mu.Lock()
	s.p.TempTargetC = v
	s.mu.Unlock()
}

// SetTempDeltaC sets the hysteresis half-band. Valid: 0.1–50 °C.
func (s *Store) SetTempDeltaC(v float64) {
	if v < 0.1 || v > 50 {
		return
	}
	s.mu.Lock()
	s.p.TempDeltaC = v
	s.mu.Unlock()
}

// SetMaxIgnitionAttempts sets the retry limit. Valid: 1–10.
func (s *Store) SetMaxIgnitionAttempts(v int) {
	if v < 1 || v > 10 {
		return
	}
	s.mu.Lock()
	s.p.MaxIgnitionAttempts = v
	s.mu.Unlock()
}

// SetPurgeTimeMS sets the post-failure purge time. Valid: 1000–10000 ms.
func (s *Store) SetPurgeTimeMS(v uint32) {
	if v < 1000 || v > 10000 {
		return
	}
	s.mu.Lock()
	s.p.PurgeTimeMS = v
	s.mu.Unlock()
}

// SetFlameRiseC sets the flame-detection temperature rise. Valid: (0,50] °C.
func (s *Store) SetFlameRiseC(v float64) {
	if v <= 0 || v > 50 {
		return
	}
	s.mu.Lock()
	s.p.FlameRiseC = v
	s.mu.Unlock()
}

// SetFlameDetectEnabled toggles the flame-detection policy.
func (s *Store) SetFlameDetectEnabled(v bool) {
	s.mu.Lock()
	s.p.FlameDetectEnabled = v
	s.mu.Unlock()
}
