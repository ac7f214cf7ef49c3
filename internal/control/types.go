package control

import "time"

// State is the heating state machine state.
type State int

const (
	// StateIdle: outputs off, waiting for heat demand.
	StateIdle State = iota
	// StateIgniting: gas open, igniter sparking, waiting out the ignition window.
	StateIgniting
	// StateHeating: flame established, igniter off, gas open.
	StateHeating
	// StatePurging: forced cool-down after a failed ignition, outputs off.
	StatePurging
	// StateLockout: too many failed ignitions; terminal until an explicit reset.
	StateLockout
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateIgniting:
		return "IGNITING"
	case StateHeating:
		return "HEATING"
	case StatePurging:
		return "PURGING"
	case StateLockout:
		return "LOCKOUT"
	default:
		return "UNKNOWN"
	}
}

// EventType identifies a controller event.
type EventType string

const (
	EventIgniteStart  EventType = "IGNITE_START"
	EventIgniteOK     EventType = "IGNITE_OK"
	EventIgniteFail   EventType = "IGNITE_FAIL"
	EventHeatOff      EventType = "HEAT_OFF"
	EventFaultLatched EventType = "FAULT_LATCHED"
	EventFaultCleared EventType = "FAULT_CLEARED"
	EventLockout      EventType = "LOCKOUT"
	EventLockoutReset EventType = "LOCKOUT_RESET"
	EventOverrideOff  EventType = "OVERRIDE_OFF"
)

// Event is a state transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Status    Status
}

// Status is the public read-only snapshot of the controller. It is rebuilt
// in full every scan; readers never observe a partial update.
type Status struct {
	VrefVolts    float64
	SignalVolts  float64
	TemperatureC float64
	SensorValid  bool // filter history full

	DoorOpen  bool
	GasOn     bool
	IgniterOn bool
	State     State

	// VrefFault and SignalFault are instantaneous (this scan only);
	// SensorFault is the latched, authoritative bit.
	VrefFault   bool
	SignalFault bool
	SensorFault bool

	IgnitionAttempt int
	IgnitionLockout bool
}
