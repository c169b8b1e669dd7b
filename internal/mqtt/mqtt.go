// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/dht11-sensor/internal/logic"
)

// DefaultTopicPrefix is the topic root for sensor messages.
const DefaultTopicPrefix = "environment/dht11"

// ReadingsTopic returns the topic for reading events under prefix.
func ReadingsTopic(prefix string) string {
	return prefix + "/readings"
}

// SystemTopic returns the topic for system lifecycle events under prefix.
func SystemTopic(prefix string) string {
	return prefix + "/system"
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a reading event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

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
	Sensor SensorPayload `json:"sensor"`
}

// SensorPayload contains the reading event details.
type SensorPayload struct {
	Timestamp   string  `json:"timestamp"`
	Event       string  `json:"event"`
	Name        string  `json:"name"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	ReadAt      string  `json:"read_at,omitempty"`
	Reason      string  `json:"reason,omitempty"`
}

// FormatPayload creates the JSON payload for a reading event from the
// sensor called name. Failure events carry the preserved last good reading.
func FormatPayload(event logic.Event, name string) ([]byte, error) {
	payload := Payload{
		Sensor: SensorPayload{
			Timestamp:   event.Timestamp.UTC().Format(time.RFC3339),
			Event:       string(event.Type),
			Name:        name,
			Temperature: event.Reading.Temperature,
			Humidity:    event.Reading.Humidity,
			Reason:      string(event.Reason),
		},
	}
	if !event.Reading.Time.IsZero() {
		payload.Sensor.ReadAt = event.Reading.Time.UTC().Format(time.RFC3339)
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
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
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
