// Package status provides a thread-safe status tracker for the dht11-sensor daemon.
// It is written by the read loop and read by HTTP handlers and MQTT system events.
package status

import (
	"net/url"
	"sync"
	"time"

	"github.com/sweeney/dht11-sensor/internal/logic"
)

// NetworkInfo contains network state, as written by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Name        string
	Chip        string
	Pin         int
	Attempts    int
	IntervalMs  int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	ReportURL   string // empty = remote reporting disabled
}

// RedactURL reduces raw to its scheme and host, dropping userinfo, path,
// query and fragment. A URL without a host is fully redacted.
func RedactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "[redacted]"
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host}).String()
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Reading       logic.Reading
	Ready         bool
	Lost          bool
	LastFailure   logic.Failure
	LastFailureAt time.Time
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
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
// Broker and ReportURL are kept only in redacted form.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	cfg.Broker = RedactURL(cfg.Broker)
	cfg.ReportURL = RedactURL(cfg.ReportURL)
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update copies the monitor's view of the sensor into the tracker.
// Called from runLoop after every read.
func (t *Tracker) Update(m *logic.Monitor) {
	t.mu.Lock()
	t.snap.Reading = m.LastReading()
	t.snap.Ready = m.IsReady()
	t.snap.Lost = m.IsLost()
	t.snap.Counts = m.EventCountsSnapshot()
	t.mu.Unlock()
}

// RecordFailure notes the kind and time of the latest failed read.
func (t *Tracker) RecordFailure(f logic.Failure, at time.Time) {
	t.mu.Lock()
	t.snap.LastFailure = f
	t.snap.LastFailureAt = at
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
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
