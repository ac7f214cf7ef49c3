// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/oven-controller/internal/control"
)

// Topic is the MQTT topic for oven controller events.
const Topic = "home/oven/controller/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/oven/controller/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a controller event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event control.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Oven OvenPayload `json:"oven"`
}

// OvenPayload contains the controller event details.
type OvenPayload struct {
	ID           string  `json:"id"`
	Timestamp    string  `json:"timestamp"`
	Event        string  `json:"event"`
	State        string  `json:"state"`
	TemperatureC float64 `json:"temperature_c"`
	Gas          string  `json:"gas"`
	Igniter      string  `json:"igniter"`
	Door         string  `json:"door"`
	SensorFault  bool    `json:"sensor_fault"`
	Attempt      int     `json:"attempt"`
	Lockout      bool    `json:"lockout"`
}

// FormatPayload creates the JSON payload for a controller event. Every
// payload carries a fresh event ID so consumers can deduplicate replays
// from the offline buffer.
func FormatPayload(event control.Event) ([]byte, error) {
	door := "CLOSED"
	if event.Status.DoorOpen {
		door = "OPEN"
	}
	payload := Payload{
		Oven: OvenPayload{
			ID:           uuid.NewString(),
			Timestamp:    event.Timestamp.UTC().Format(time.RFC3339),
			Event:        string(event.Type),
			State:        event.Status.State.String(),
			TemperatureC: event.Status.TemperatureC,
			Gas:          onOff(event.Status.GasOn),
			Igniter:      onOff(event.Status.IgniterOn),
			Door:         door,
			SensorFault:  event.Status.SensorFault,
			Attempt:      event.Status.IgnitionAttempt,
			Lockout:      event.Status.IgnitionLockout,
		},
	}
	return json.Marshal(payload)
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			ID:        uuid.NewString(),
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
