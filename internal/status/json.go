package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Name          string       `json:"name"`
	Sensor        string       `json:"sensor"`
	Reading       *ReadingJSON `json:"reading,omitempty"`
	LastFailure   *FailureJSON `json:"last_failure,omitempty"`
	Ready         bool         `json:"ready"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"read_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// ReadingJSON is the last good reading.
type ReadingJSON struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	ReadAt      string  `json:"read_at"`
	AgeSeconds  int64   `json:"age_seconds"`
}

// FailureJSON describes the latest failed read.
type FailureJSON struct {
	Reason string `json:"reason"`
	At     string `json:"at"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of read counts.
type CountsJSON struct {
	Reads            int `json:"reads"`
	ConnectionErrors int `json:"connection_errors"`
	ChecksumErrors   int `json:"checksum_errors"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Chip        string `json:"chip"`
	Pin         int    `json:"pin"`
	Attempts    int    `json:"attempts"`
	IntervalMs  int64  `json:"interval_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	ReportURL   string `json:"report_url,omitempty"`
}

// SensorState returns "OK", "LOST" or "WAITING" (no reading yet).
func (s Snapshot) SensorState() string {
	switch {
	case s.Lost:
		return "LOST"
	case s.Ready:
		return "OK"
	default:
		return "WAITING"
	}
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Name:          snap.Config.Name,
		Sensor:        snap.SensorState(),
		Ready:         snap.Ready,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Reads:            snap.Counts.Reads,
			ConnectionErrors: snap.Counts.ConnectionErrors,
			ChecksumErrors:   snap.Counts.ChecksumErrors,
		},
		Config: ConfigJSON{
			Chip:        snap.Config.Chip,
			Pin:         snap.Config.Pin,
			Attempts:    snap.Config.Attempts,
			IntervalMs:  snap.Config.IntervalMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			ReportURL:   snap.Config.ReportURL,
		},
	}

	if snap.Ready {
		inner.Reading = &ReadingJSON{
			Temperature: snap.Reading.Temperature,
			Humidity:    snap.Reading.Humidity,
			ReadAt:      snap.Reading.Time.UTC().Format(time.RFC3339),
			AgeSeconds:  int64(snap.Now.Sub(snap.Reading.Time).Truncate(time.Second).Seconds()),
		}
	}
	if snap.LastFailure != "" {
		inner.LastFailure = &FailureJSON{
			Reason: string(snap.LastFailure),
			At:     snap.LastFailureAt.UTC().Format(time.RFC3339),
		}
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
