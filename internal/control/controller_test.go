package control

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sweeney/oven-controller/internal/config"
	"github.com/sweeney/oven-controller/internal/hw"
)

// mvForTemp inverts the temperature map: the signal in mV that reads as
// tempC with the given reference voltage.
func mvForTemp(vrefMV uint16, tempC float64) uint16 {
	v := (tempC+10.0)/310.0*(0.80*float64(vrefMV)) + 0.10*float64(vrefMV)
	return uint16(v + 0.5)
}

// harness wires a controller to fake hardware and a manual scan clock.
type harness struct {
	clock   uint32
	sampler *hw.FakeSampler
	outputs *hw.FakeOutputs
	cfg     *config.Store
	ctrl    *Controller
	logs    []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock:   1000,
		sampler: hw.NewFakeSampler(5000, mvForTemp(5000, 160)),
		outputs: hw.NewFakeOutputs(),
		cfg:     config.NewStore(),
	}
	h.ctrl = New(h.cfg, Deps{
		Sampler:      h.sampler,
		Outputs:      h.outputs,
		NowMS:        func() uint32 { return h.clock },
		WallClock:    func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) },
		Logf:         func(format string, args ...any) { h.logs = append(h.logs, fmt.Sprintf(format, args...)) },
		FilterWindow: 3,
	})
	return h
}

func (h *harness) setTemp(tempC float64) {
	h.sampler.Set(5000, mvForTemp(5000, tempC))
}

func (h *harness) scan() []Event {
	return h.ctrl.Update()
}

func (h *harness) scanAfter(ms uint32) []Event {
	h.clock += ms
	return h.ctrl.Update()
}

func (h *harness) expectState(t *testing.T, want State) {
	t.Helper()
	if got := h.ctrl.Status().State; got != want {
		t.Fatalf("state = %s, want %s", got, want)
	}
}

func (h *harness) expectOutputs(t *testing.T, gas, igniter bool) {
	t.Helper()
	st := h.ctrl.Status()
	if st.GasOn != gas || st.IgniterOn != igniter {
		t.Fatalf("status outputs gas=%v igniter=%v, want gas=%v igniter=%v",
			st.GasOn, st.IgniterOn, gas, igniter)
	}
	if h.outputs.Get(hw.GasValve) != gas {
		t.Fatalf("hardware gas valve = %v, want %v", h.outputs.Get(hw.GasValve), gas)
	}
	if h.outputs.Get(hw.Igniter) != igniter {
		t.Fatalf("hardware igniter = %v, want %v", h.outputs.Get(hw.Igniter), igniter)
	}
}

func hasEvent(events []Event, typ EventType) bool {
	for _, e := range events {
		if e.Type == typ {
			return true
		}
	}
	return false
}

func TestColdStartIgnites(t *testing.T) {
	h := newHarness(t)

	events := h.scan()
	h.expectState(t, StateIgniting)
	h.expectOutputs(t, true, true)
	if !hasEvent(events, EventIgniteStart) {
		t.Error("expected IGNITE_START event")
	}
	if got := h.ctrl.Status().IgnitionAttempt; got != 1 {
		t.Errorf("attempt = %d, want 1", got)
	}
}

func TestIdleAboveThresholdStaysIdle(t *testing.T) {
	h := newHarness(t)
	h.setTemp(179) // inside the hysteresis band (on at <=178)

	events := h.scan()
	h.expectState(t, StateIdle)
	h.expectOutputs(t, false, false)
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestIgnitionTiming(t *testing.T) {
	h := newHarness(t)

	h.scan() // ignite at t0
	h.expectState(t, StateIgniting)

	// 1 ms before the ignition window ends: igniter still on.
	h.scanAfter(4999)
	h.expectOutputs(t, true, true)
	h.expectState(t, StateIgniting)

	// At exactly 5000 ms (flame detection disabled): success.
	events := h.scanAfter(1)
	h.expectState(t, StateHeating)
	h.expectOutputs(t, true, false)
	if !hasEvent(events, EventIgniteOK) {
		t.Error("expected IGNITE_OK event")
	}
	if got := h.ctrl.Status().IgnitionAttempt; got != 0 {
		t.Errorf("attempt after success = %d, want 0", got)
	}
}

func TestHysteresisBand(t *testing.T) {
	h := newHarness(t)

	// Heat up to HEATING.
	h.scan()
	h.scanAfter(5000)
	h.expectState(t, StateHeating)

	// Inside the band: stable, no transitions.
	for _, temp := range []float64{179, 180, 181, 181.9} {
		h.setTemp(temp)
		// A few scans so the filter window fully reflects the new value.
		h.scanAfter(100)
		h.scanAfter(100)
		if events := h.scanAfter(100); len(events) != 0 {
			t.Errorf("temp %.1f: unexpected events %v", temp, events)
		}
		h.expectState(t, StateHeating)
	}

	// At the upper threshold: heat off.
	h.setTemp(185)
	var events []Event
	for i := 0; i < 3; i++ {
		events = append(events, h.scanAfter(100)...)
	}
	h.expectState(t, StateIdle)
	h.expectOutputs(t, false, false)
	if !hasEvent(events, EventHeatOff) {
		t.Error("expected HEAT_OFF event")
	}

	// Inside the band from above: no re-ignition.
	h.setTemp(179)
	h.scanAfter(100)
	h.scanAfter(100)
	h.scanAfter(100)
	h.expectState(t, StateIdle)

	// Below the lower threshold: re-ignite.
	h.setTemp(170)
	h.scanAfter(100)
	h.scanAfter(100)
	h.scanAfter(100)
	h.expectState(t, StateIgniting)
}

func TestDoorOverrideFromEveryActiveState(t *testing.T) {
	for name, setup := range map[string]func(h *harness){
		"igniting": func(h *harness) { h.scan() },
		"heating":  func(h *harness) { h.scan(); h.scanAfter(5000) },
		"idle":     func(h *harness) { h.setTemp(179); h.scan() },
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			setup(h)

			h.ctrl.SetDoorOpen(true)
			h.scanAfter(100)
			h.expectState(t, StateIdle)
			h.expectOutputs(t, false, false)
			if got := h.ctrl.Status().IgnitionAttempt; got != 0 {
				t.Errorf("attempt after override = %d, want 0", got)
			}
			if !h.ctrl.Status().DoorOpen {
				t.Error("status should report door open")
			}

			// Door open keeps everything off even with heat demand.
			h.setTemp(100)
			h.scanAfter(100)
			h.expectState(t, StateIdle)
			h.expectOutputs(t, false, false)

			// Door closed: normal operation resumes.
			h.ctrl.SetDoorOpen(false)
			h.scanAfter(100)
			h.expectState(t, StateIgniting)
		})
	}
}

func TestOverrideEmitsEventOnlyWhenOutputsWereOn(t *testing.T) {
	h := newHarness(t)
	h.scan() // igniting, outputs on

	h.ctrl.SetDoorOpen(true)
	events := h.scanAfter(100)
	if !hasEvent(events, EventOverrideOff) {
		t.Error("expected OVERRIDE_OFF when shutting outputs")
	}

	// Already off: no repeat event.
	events = h.scanAfter(100)
	if hasEvent(events, EventOverrideOff) {
		t.Error("OVERRIDE_OFF repeated while outputs already off")
	}
}

func TestSensorFaultForcesShutdown(t *testing.T) {
	h := newHarness(t)
	h.scan() // igniting
	h.expectOutputs(t, true, true)

	// Bad vref held past the debounce window. The median filter takes two
	// scans to flip, then the 1000 ms window must elapse.
	h.sampler.Set(4000, mvForTemp(4000, 160))
	for i := 0; i < 15; i++ {
		h.scanAfter(100)
	}

	st := h.ctrl.Status()
	if !st.SensorFault {
		t.Fatal("sensor fault should be latched")
	}
	h.expectState(t, StateIdle)
	h.expectOutputs(t, false, false)
	if st.IgnitionAttempt != 0 {
		t.Errorf("attempt = %d, want 0 after fault shutdown", st.IgnitionAttempt)
	}
}

func TestSensorFaultAutoResumeReignites(t *testing.T) {
	h := newHarness(t)
	h.scan()

	// Latch a fault.
	h.sampler.Set(4000, mvForTemp(4000, 160))
	for i := 0; i < 15; i++ {
		h.scanAfter(100)
	}
	if !h.ctrl.Status().SensorFault {
		t.Fatal("fault not latched")
	}

	// Valid readings for the auto-resume window.
	h.setTemp(160)
	var cleared bool
	for i := 0; i < 36; i++ {
		events := h.scanAfter(100)
		if hasEvent(events, EventFaultCleared) {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected FAULT_CLEARED event")
	}
	if h.ctrl.Status().SensorFault {
		t.Fatal("fault should have cleared")
	}

	// Temperature is still below the band: re-ignition follows.
	h.scanAfter(100)
	h.expectState(t, StateIgniting)
	h.expectOutputs(t, true, true)
}

func TestFaultLatchEmitsEvent(t *testing.T) {
	h := newHarness(t)
	h.setTemp(179) // idle, no demand

	h.sampler.Set(4000, mvForTemp(4000, 179))
	var latched bool
	for i := 0; i < 15; i++ {
		if hasEvent(h.scanAfter(100), EventFaultLatched) {
			latched = true
		}
	}
	if !latched {
		t.Error("expected FAULT_LATCHED event")
	}
}

func TestFailedIgnitionPurgesAndRetries(t *testing.T) {
	h := newHarness(t)
	h.cfg.SetFlameDetectEnabled(true)

	h.scan() // attempt 1; temperature never rises
	h.expectState(t, StateIgniting)

	events := h.scanAfter(5000)
	h.expectState(t, StatePurging)
	h.expectOutputs(t, false, false)
	if !hasEvent(events, EventIgniteFail) {
		t.Error("expected IGNITE_FAIL event")
	}
	if got := h.ctrl.Status().IgnitionAttempt; got != 1 {
		t.Errorf("attempt during purge = %d, want 1", got)
	}

	// Outputs stay off for the whole purge.
	h.scanAfter(1000)
	h.expectState(t, StatePurging)
	h.expectOutputs(t, false, false)

	// Purge complete: back to idle, then retry.
	h.scanAfter(1500)
	h.expectState(t, StateIdle)
	h.scanAfter(100)
	h.expectState(t, StateIgniting)
	if got := h.ctrl.Status().IgnitionAttempt; got != 2 {
		t.Errorf("retry attempt = %d, want 2", got)
	}
}

func TestFlameDetectSuccessOnTemperatureRise(t *testing.T) {
	h := newHarness(t)
	h.cfg.SetFlameDetectEnabled(true)

	h.setTemp(160)
	h.scan()
	h.expectState(t, StateIgniting)

	// Temperature rise beyond the threshold during the ignition window.
	h.setTemp(165)
	h.scanAfter(100)
	h.scanAfter(100)
	h.scanAfter(100)

	events := h.scanAfter(4700) // past the 5000 ms window
	h.expectState(t, StateHeating)
	h.expectOutputs(t, true, false)
	if !hasEvent(events, EventIgniteOK) {
		t.Error("expected IGNITE_OK event")
	}
	if got := h.ctrl.Status().IgnitionAttempt; got != 0 {
		t.Errorf("attempt after flame detect = %d, want 0", got)
	}
}

func runToLockout(t *testing.T, h *harness) {
	t.Helper()
	h.cfg.SetFlameDetectEnabled(true)

	for attempt := 1; attempt <= 3; attempt++ {
		h.scanAfter(100)
		if h.ctrl.Status().State != StateIgniting {
			t.Fatalf("attempt %d: not igniting", attempt)
		}
		h.scanAfter(5000)
		if attempt < 3 {
			if h.ctrl.Status().State != StatePurging {
				t.Fatalf("attempt %d: expected purge, got %s", attempt, h.ctrl.Status().State)
			}
			h.scanAfter(2500)
			if h.ctrl.Status().State != StateIdle {
				t.Fatalf("attempt %d: purge did not finish", attempt)
			}
		}
	}
	if h.ctrl.Status().State != StateLockout {
		t.Fatalf("expected lockout after 3 failed attempts, got %s", h.ctrl.Status().State)
	}
}

func TestLockoutAfterMaxAttempts(t *testing.T) {
	h := newHarness(t)
	runToLockout(t, h)

	st := h.ctrl.Status()
	if !st.IgnitionLockout {
		t.Error("lockout flag not set")
	}
	h.expectOutputs(t, false, false)

	// Lockout is terminal: heat demand is ignored indefinitely.
	for i := 0; i < 50; i++ {
		h.scanAfter(1000)
	}
	h.expectState(t, StateLockout)
	h.expectOutputs(t, false, false)
}

func TestLockoutSurvivesDoorCycle(t *testing.T) {
	h := newHarness(t)
	runToLockout(t, h)

	h.ctrl.SetDoorOpen(true)
	h.scanAfter(100)
	h.expectState(t, StateLockout)
	h.expectOutputs(t, false, false)

	h.ctrl.SetDoorOpen(false)
	h.scanAfter(100)
	h.expectState(t, StateLockout)
	h.expectOutputs(t, false, false)
}

func TestLockoutResetRestoresIdle(t *testing.T) {
	h := newHarness(t)
	runToLockout(t, h)

	h.ctrl.ResetLockout()

	st := h.ctrl.Status()
	if st.State != StateIdle {
		t.Errorf("state after reset = %s, want IDLE", st.State)
	}
	if st.IgnitionLockout {
		t.Error("lockout flag still set after reset")
	}
	if st.IgnitionAttempt != 0 {
		t.Errorf("attempt after reset = %d, want 0", st.IgnitionAttempt)
	}

	// The reset event is delivered by the next scan.
	events := h.scanAfter(100)
	if !hasEvent(events, EventLockoutReset) {
		t.Error("expected LOCKOUT_RESET event on next scan")
	}
	// With heat demand still present, the next cycle begins.
	h.scanAfter(100)
	h.expectState(t, StateIgniting)
	if got := h.ctrl.Status().IgnitionAttempt; got != 1 {
		t.Errorf("attempt after reset and reignition = %d, want 1", got)
	}
}

func TestLockoutEventEmitted(t *testing.T) {
	h := newHarness(t)
	h.cfg.SetFlameDetectEnabled(true)

	var sawLockout bool
	for attempt := 1; attempt <= 3; attempt++ {
		h.scanAfter(100)
		if hasEvent(h.scanAfter(5000), EventLockout) {
			sawLockout = true
		}
		if attempt < 3 {
			h.scanAfter(2500)
		}
	}
	if !sawLockout {
		t.Error("expected LOCKOUT event")
	}
}

func TestSamplerErrorBecomesFault(t *testing.T) {
	h := newHarness(t)
	h.setTemp(179)
	h.scan()

	h.sampler.ReadError = errors.New("adc gone")
	for i := 0; i < 15; i++ {
		h.scanAfter(100)
	}

	st := h.ctrl.Status()
	if !st.SensorFault {
		t.Error("persistent read errors should latch a sensor fault")
	}
	if !st.VrefFault {
		t.Error("a 0 mV vref should trip the instantaneous bit")
	}
}

func TestUnknownStateRecovered(t *testing.T) {
	h := newHarness(t)
	h.setTemp(179)
	h.scan()

	h.ctrl.mu.Lock()
	h.ctrl.state = State(42)
	h.ctrl.mu.Unlock()

	h.scanAfter(100)
	h.expectState(t, StateIdle)
	h.expectOutputs(t, false, false)
}

func TestHighTempCutoffDuringIgnition(t *testing.T) {
	h := newHarness(t)
	h.scan()
	h.expectState(t, StateIgniting)

	// Runaway rise mid-ignition: upper threshold still wins.
	h.setTemp(200)
	h.scanAfter(100)
	h.scanAfter(100)
	h.scanAfter(100)
	h.expectState(t, StateIdle)
	h.expectOutputs(t, false, false)
}

func TestStatusSnapshotFields(t *testing.T) {
	h := newHarness(t)
	h.scan()

	st := h.ctrl.Status()
	if st.VrefVolts < 4.9 || st.VrefVolts > 5.1 {
		t.Errorf("vref volts = %v, want ~5.0", st.VrefVolts)
	}
	if st.TemperatureC < 159 || st.TemperatureC > 161 {
		t.Errorf("temperature = %v, want ~160", st.TemperatureC)
	}
	if st.State != StateIgniting {
		t.Errorf("state = %s, want IGNITING", st.State)
	}
}

func TestFilterWarmupFlagInStatus(t *testing.T) {
	h := newHarness(t) // window 3

	h.scan()
	if h.ctrl.Status().SensorValid {
		t.Error("sensor valid after one sample")
	}
	h.scanAfter(100)
	if h.ctrl.Status().SensorValid {
		t.Error("sensor valid after two samples")
	}
	h.scanAfter(100)
	if !h.ctrl.Status().SensorValid {
		t.Error("sensor not valid after a full window")
	}
}

func TestConfigChangeAppliesNextScan(t *testing.T) {
	h := newHarness(t)
	h.setTemp(170) // below default threshold of 178

	// Tighten the target below the current temperature first.
	h.cfg.SetTempTargetC(150)
	h.scan()
	h.expectState(t, StateIdle)

	// Restore: demand reappears on the very next scan.
	h.cfg.SetTempTargetC(180)
	h.scanAfter(100)
	h.expectState(t, StateIgniting)
}
