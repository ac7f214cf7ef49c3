// Package control implements the oven heating state machine: bang-bang
// hysteresis around a target temperature, door and sensor-fault interlocks,
// bounded ignition retries with purge periods, and a manual-reset lockout.
//
// The controller is driven by a single scan loop calling Update once per
// tick. The door flag is the only value written from outside the loop (the
// door-switch event goroutine) and is held in an atomic bool. Everything
// else is guarded by one RWMutex so status reads and the lockout reset can
// come from other goroutines.
//
// Timing is evaluated against a uint32 millisecond scan clock using uint32
// subtraction throughout, which keeps elapsed checks correct across counter
// wraparound.
package control

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sweeney/oven-controller/internal/config"
	"github.com/sweeney/oven-controller/internal/faults"
	"github.com/sweeney/oven-controller/internal/filter"
	"github.com/sweeney/oven-controller/internal/hw"
)

// Deps are the collaborators injected into the controller. Sampler, Outputs
// and NowMS are required; the rest default sensibly.
type Deps struct {
	Sampler hw.Sampler
	Outputs hw.Outputs

	// NowMS returns the scan clock in milliseconds.
	NowMS func() uint32

	// WallClock stamps events; defaults to time.Now.
	WallClock func() time.Time

	// Logf is the diagnostic sink; defaults to log.Printf.
	Logf func(format string, args ...any)

	// FilterWindow is the median filter window size, clamped to [3,10].
	FilterWindow int
}

// Controller owns all control and safety state for one oven.
type Controller struct {
	cfg     *config.Store
	sampler hw.Sampler
	outputs hw.Outputs
	nowMS   func() uint32
	wall    func() time.Time
	logf    func(format string, args ...any)

	filter  *filter.SensorFilter
	monitor *faults.Monitor

	door atomic.Bool // written from the door-event goroutine

	mu sync.RWMutex
	// Machine state, guarded by mu. Update is the single writer during a
	// scan; ResetLockout takes the same lock.
	state         State
	gasOn         bool
	igniterOn     bool
	attempt       int
	lockout       bool
	ignitionStart uint32 // scan clock at ignition start
	purgeStart    uint32 // scan clock at purge start
	tempAtIgnite  float64
	lastLog       uint32
	pending       []Event // events queued outside Update (lockout reset)
	status        Status
}

// New creates a Controller reading its tunables from cfg.
func New(cfg *config.Store, deps Deps) *Controller {
	if deps.WallClock == nil {
		deps.WallClock = time.Now
	}
	if deps.Logf == nil {
		deps.Logf = log.Printf
	}
	c := &Controller{
		cfg:     cfg,
		sampler: deps.Sampler,
		outputs: deps.Outputs,
		nowMS:   deps.NowMS,
		wall:    deps.WallClock,
		logf:    deps.Logf,
		filter:  filter.New(deps.FilterWindow),
		monitor: faults.NewMonitor(),
		status:  Status{TemperatureC: -10.0},
	}
	c.logf("oven control init (filter window %d)", c.filter.WindowSize())
	return c
}

// SetDoorOpen updates the door flag. Safe to call from the door-switch
// event goroutine; it never blocks.
func (c *Controller) SetDoorOpen(open bool) {
	c.door.Store(open)
}

// DoorOpen returns the current door flag.
func (c *Controller) DoorOpen() bool {
	return c.door.Load()
}

// Status returns the snapshot published by the last completed scan.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// ResetLockout acknowledges a lockout: the machine returns to IDLE with the
// attempt counter cleared, unconditionally — regardless of clock or sensor
// state. It is the only way out of LOCKOUT.
func (c *Controller) ResetLockout() {
	c.mu.Lock()
	defer c.mu.Unlock()

	wasLockout := c.state == StateLockout
	c.state = StateIdle
	c.lockout = false
	c.attempt = 0
	c.gasOn = false
	c.igniterOn = false

	c.status.State = c.state
	c.status.IgnitionLockout = false
	c.status.IgnitionAttempt = 0
	c.status.GasOn = false
	c.status.IgniterOn = false

	if wasLockout {
		c.logf("ignition lockout reset")
		c.pending = append(c.pending, Event{
			Timestamp: c.wall(),
			Type:      EventLockoutReset,
			Status:    c.status,
		})
	}
}

// Update runs one scan: sample, filter, fault evaluation, state machine,
// output drive, status publication and periodic logging. It returns the
// events raised by this scan, oldest first.
func (c *Controller) Update() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	events := c.pending
	c.pending = nil

	p := c.cfg.Snapshot()
	now := c.nowMS()

	// Sample exactly once per scan, even while the filter warms up.
	rawVref, rawSignal, err := c.sampler.ReadMillivolts()
	if err != nil {
		// A dead ADC reads as 0 mV, which is out of range on both
		// channels; the debounce window decides whether it persists.
		c.logf("sensor read error: %v", err)
		rawVref, rawSignal = 0, 0
	}

	reading := c.filter.Update(rawVref, rawSignal)
	prevFault := c.monitor.Latched()
	fres := c.monitor.Evaluate(now, reading, p)
	temp := faults.Temperature(reading.VrefMV, reading.SignalMV)
	doorOpen := c.door.Load()

	if fres.SensorFault != prevFault {
		if fres.SensorFault {
			c.logf("sensor fault latched (vref_fault=%v signal_fault=%v)", fres.VrefFault, fres.SignalFault)
		} else {
			c.logf("sensor fault cleared")
		}
	}

	stepEvents := c.step(now, temp, doorOpen, fres.SensorFault, p)

	c.applyOutputs()

	c.status = Status{
		VrefVolts:       float64(reading.VrefMV) / 1000.0,
		SignalVolts:     float64(reading.SignalMV) / 1000.0,
		TemperatureC:    temp,
		SensorValid:     reading.Valid,
		DoorOpen:        doorOpen,
		GasOn:           c.gasOn,
		IgniterOn:       c.igniterOn,
		State:           c.state,
		VrefFault:       fres.VrefFault,
		SignalFault:     fres.SignalFault,
		SensorFault:     fres.SensorFault,
		IgnitionAttempt: c.attempt,
		IgnitionLockout: c.lockout,
	}

	if fres.SensorFault != prevFault {
		t := EventFaultCleared
		if fres.SensorFault {
			t = EventFaultLatched
		}
		events = append(events, Event{Timestamp: c.wall(), Type: t, Status: c.status})
	}
	for _, t := range stepEvents {
		events = append(events, Event{Timestamp: c.wall(), Type: t, Status: c.status})
	}

	c.maybeLog(now, p)

	return events
}

// step advances the state machine for one scan. It mutates machine fields
// and returns the event types raised, in order.
func (c *Controller) step(now uint32, temp float64, doorOpen, sensorFault bool, p config.Params) []EventType {
	var events []EventType

	// Door and sensor faults override everything. LOCKOUT keeps its state
	// (outputs are off there anyway): it must survive until an explicit
	// reset, not be cleared by opening the door.
	if doorOpen || sensorFault {
		if c.state == StateLockout {
			c.gasOn = false
			c.igniterOn = false
			return nil
		}
		if c.gasOn || c.igniterOn {
			c.logf("shutdown: door open or sensor fault (door=%v fault=%v)", doorOpen, sensorFault)
			events = append(events, EventOverrideOff)
		}
		c.gasOn = false
		c.igniterOn = false
		c.state = StateIdle
		c.attempt = 0
		return events
	}

	onC := p.TempTargetC - p.TempDeltaC
	offC := p.TempTargetC + p.TempDeltaC

	switch c.state {
	case StateIdle:
		if temp <= onC {
			c.attempt++
			c.gasOn = true
			c.igniterOn = true
			c.ignitionStart = now
			c.tempAtIgnite = temp
			c.state = StateIgniting
			c.logf("ignite start attempt=%d temp=%.1fC", c.attempt, temp)
			events = append(events, EventIgniteStart)
		}

	case StateIgniting:
		// The upper hysteresis threshold still applies mid-ignition.
		if temp >= offC {
			c.heatOff(temp)
			events = append(events, EventHeatOff)
			break
		}
		if now-c.ignitionStart < p.IgnitionDurationMS {
			break
		}
		if !p.FlameDetectEnabled || temp-c.tempAtIgnite > p.FlameRiseC {
			c.igniterOn = false
			c.attempt = 0
			c.state = StateHeating
			c.logf("ignite complete temp=%.1fC", temp)
			events = append(events, EventIgniteOK)
			break
		}
		// No flame: gas off before anything else.
		c.gasOn = false
		c.igniterOn = false
		events = append(events, EventIgniteFail)
		if c.attempt >= p.MaxIgnitionAttempts {
			c.state = StateLockout
			c.lockout = true
			c.logf("ignition lockout after %d failed attempts", c.attempt)
			events = append(events, EventLockout)
			break
		}
		c.purgeStart = now
		c.state = StatePurging
		c.logf("ignite failed attempt=%d, purging for %dms", c.attempt, p.PurgeTimeMS)

	case StateHeating:
		if temp >= offC {
			c.heatOff(temp)
			events = append(events, EventHeatOff)
		}

	case StatePurging:
		c.gasOn = false
		c.igniterOn = false
		if now-c.purgeStart >= p.PurgeTimeMS {
			c.state = StateIdle
			c.logf("purge complete")
		}

	case StateLockout:
		c.gasOn = false
		c.igniterOn = false
		c.lockout = true

	default:
		// Corrupted state value: fail safe.
		c.logf("unknown heating state %d, resetting to idle", int(c.state))
		c.gasOn = false
		c.igniterOn = false
		c.state = StateIdle
	}

	return events
}

// heatOff ends a heat cycle: outputs off, back to idle, retry history
// cleared.
func (c *Controller) heatOff(temp float64) {
	c.gasOn = false
	c.igniterOn = false
	c.state = StateIdle
	c.attempt = 0
	c.logf("heat off temp=%.1fC", temp)
}

func (c *Controller) applyOutputs() {
	if err := c.outputs.Set(hw.GasValve, c.gasOn); err != nil {
		c.logf("set gas valve: %v", err)
	}
	if err := c.outputs.Set(hw.Igniter, c.igniterOn); err != nil {
		c.logf("set igniter: %v", err)
	}
}

func (c *Controller) maybeLog(now uint32, p config.Params) {
	if now-c.lastLog < p.PeriodicLogMS {
		return
	}
	c.lastLog = now

	door := "CLOSED"
	if c.status.DoorOpen {
		door = "OPEN"
	}
	c.logf("vref=%dmV signal=%dmV temp=%.1fC door=%s state=%s gas=%d igniter=%d vref_fault=%d signal_fault=%d attempt=%d",
		int(c.status.VrefVolts*1000+0.5),
		int(c.status.SignalVolts*1000+0.5),
		c.status.TemperatureC,
		door,
		c.status.State,
		boolInt(c.status.GasOn),
		boolInt(c.status.IgniterOn),
		boolInt(c.status.VrefFault),
		boolInt(c.status.SignalFault),
		c.status.IgnitionAttempt)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
