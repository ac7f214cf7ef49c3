package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Oven OvenInner `json:"oven"`
}

// OvenInner contains the status details.
type OvenInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	State         string       `json:"state"`
	TemperatureC  float64      `json:"temperature_c"`
	VrefVolts     float64      `json:"vref_volts"`
	SignalVolts   float64      `json:"signal_volts"`
	SensorValid   bool         `json:"sensor_valid"`
	Door          string       `json:"door"`
	Gas           string       `json:"gas"`
	Igniter       string       `json:"igniter"`
	Faults        FaultsJSON   `json:"faults"`
	Ignition      IgnitionJSON `json:"ignition"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Params        ParamsJSON   `json:"params"`
	Config        ConfigJSON   `json:"config"`
}

// FaultsJSON is the JSON representation of the fault bits.
type FaultsJSON struct {
	Vref   bool `json:"vref"`   // instantaneous
	Signal bool `json:"signal"` // instantaneous
	Sensor bool `json:"sensor"` // latched, authoritative
}

// IgnitionJSON is the JSON representation of ignition retry state.
type IgnitionJSON struct {
	Attempt int  `json:"attempt"`
	Lockout bool `json:"lockout"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ParamsJSON is the JSON representation of the oven tunables.
type ParamsJSON struct {
	IgnitionDurationMs  uint32  `json:"ignition_duration_ms"`
	PeriodicLogMs       uint32  `json:"periodic_log_ms"`
	SensorFaultWindowMs uint32  `json:"sensor_fault_window_ms"`
	AutoResumeDelayMs   uint32  `json:"auto_resume_delay_ms"`
	VrefMinV            float64 `json:"vref_min_v"`
	VrefMaxV            float64 `json:"vref_max_v"`
	TempTargetC         float64 `json:"temp_target_c"`
	TempDeltaC          float64 `json:"temp_delta_c"`
	MaxIgnitionAttempts int     `json:"max_ignition_attempts"`
	PurgeTimeMs         uint32  `json:"purge_time_ms"`
	FlameRiseC          float64 `json:"flame_rise_c"`
	FlameDetectEnabled  bool    `json:"flame_detect_enabled"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs       int64  `json:"poll_ms"`
	HeartbeatMs  int64  `json:"heartbeat_ms"`
	Broker       string `json:"broker"`
	HTTPAddr     string `json:"http_addr"`
	FilterWindow int    `json:"filter_window"`
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func buildInner(snap Snapshot) OvenInner {
	door := "CLOSED"
	if snap.Oven.DoorOpen {
		door = "OPEN"
	}

	return OvenInner{
		State:        snap.Oven.State.String(),
		TemperatureC: snap.Oven.TemperatureC,
		VrefVolts:    snap.Oven.VrefVolts,
		SignalVolts:  snap.Oven.SignalVolts,
		SensorValid:  snap.Oven.SensorValid,
		Door:         door,
		Gas:          onOff(snap.Oven.GasOn),
		Igniter:      onOff(snap.Oven.IgniterOn),
		Faults: FaultsJSON{
			Vref:   snap.Oven.VrefFault,
			Signal: snap.Oven.SignalFault,
			Sensor: snap.Oven.SensorFault,
		},
		Ignition: IgnitionJSON{
			Attempt: snap.Oven.IgnitionAttempt,
			Lockout: snap.Oven.IgnitionLockout,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Params: ParamsJSON{
			IgnitionDurationMs:  snap.Params.IgnitionDurationMS,
			PeriodicLogMs:       snap.Params.PeriodicLogMS,
			SensorFaultWindowMs: snap.Params.SensorFaultWindowMS,
			AutoResumeDelayMs:   snap.Params.AutoResumeDelayMS,
			VrefMinV:            snap.Params.VrefMinV,
			VrefMaxV:            snap.Params.VrefMaxV,
			TempTargetC:         snap.Params.TempTargetC,
			TempDeltaC:          snap.Params.TempDeltaC,
			MaxIgnitionAttempts: snap.Params.MaxIgnitionAttempts,
			PurgeTimeMs:         snap.Params.PurgeTimeMS,
			FlameRiseC:          snap.Params.FlameRiseC,
			FlameDetectEnabled:  snap.Params.FlameDetectEnabled,
		},
		Config: ConfigJSON{
			PollMs:       snap.Config.PollMs,
			HeartbeatMs:  snap.Config.HeartbeatMs,
			Broker:       snap.Config.Broker,
			HTTPAddr:     snap.Config.HTTPAddr,
			FilterWindow: snap.Config.FilterWindow,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Oven: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Oven: inner})
	return data
}
