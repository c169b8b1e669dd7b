// Package logic contains pure business logic for sensor reading tracking.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// EventType represents a reading outcome or sensor state change.
type EventType string

const (
	EventReading         EventType = "READING"
	EventReadFailed      EventType = "READ_FAILED"
	EventSensorLost      EventType = "SENSOR_LOST"
	EventSensorRecovered EventType = "SENSOR_RECOVERED"
)

// Failure classifies a failed read.
type Failure string

const (
	FailureNone             Failure = ""
	FailureConnectionFailed Failure = "CONNECTION_FAILED"
	FailureChecksumMismatch Failure = "CHECKSUM_MISMATCH"
)

// Reading is one validated sensor measurement.
type Reading struct {
	Temperature float64 // °C
	Humidity    float64 // %RH
	Time        time.Time
}

// Input represents the outcome of one read transaction.
type Input struct {
	Time        time.Time
	Temperature float64 // only meaningful when Failure is FailureNone
	Humidity    float64
	Failure     Failure
}

// Event represents something to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	// Reading is the current last good reading. For READ_FAILED and
	// SENSOR_LOST it is the reading preserved from before the failure.
	Reading Reading
	Reason  Failure // failure kind (READ_FAILED, SENSOR_LOST only)
}

// EventCounts tracks read outcomes since startup.
type EventCounts struct {
	Reads            int
	ConnectionErrors int
	ChecksumErrors   int
}

// Failures returns the total number of failed reads.
func (c EventCounts) Failures() int {
	return c.ConnectionErrors + c.ChecksumErrors
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
	Reading   Reading
}
