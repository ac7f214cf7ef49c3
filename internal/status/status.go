// Package status provides a thread-safe status tracker for the
// oven-controller daemon. It is read by HTTP handlers and by the MQTT
// heartbeat publisher.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/oven-controller/internal/config"
	"github.com/sweeney/oven-controller/internal/control"
)

// DaemonConfig contains daemon-level settings for display.
type DaemonConfig struct {
	PollMs       int64
	HeartbeatMs  int64
	Broker       string
	HTTPAddr     string
	FilterWindow int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Oven          control.Status
	Params        config.Params
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        DaemonConfig
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg DaemonConfig) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update stores the controller status and the parameters it ran with.
// Called from the scan loop on every tick.
func (t *Tracker) Update(oven control.Status, params config.Params) {
	t.mu.Lock()
	t.snap.Oven = oven
	t.snap.Params = params
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
