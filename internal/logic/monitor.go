package logic

import "time"

// DefaultLostAfter is the number of consecutive failed reads after which the
// sensor is reported lost.
const DefaultLostAfter = 5

// Monitor tracks read outcomes, the last good reading and sensor presence.
type Monitor struct {
	lostAfter     int
	last          Reading
	ready         bool
	failStreak    int
	lost          bool
	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewMonitor creates a monitor that declares the sensor lost after
// lostAfter consecutive failures (DefaultLostAfter if <= 0).
// The startTime is used for calculating uptime in heartbeat events.
func NewMonitor(lostAfter int, startTime time.Time) *Monitor {
	if lostAfter <= 0 {
		lostAfter = DefaultLostAfter
	}
	return &Monitor{
		lostAfter:     lostAfter,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process takes one read outcome and returns the events to emit.
// A failure never changes the last good reading.
func (m *Monitor) Process(input Input) []Event {
	if input.Failure != FailureNone {
		return m.processFailure(input)
	}

	m.last = Reading{
		Temperature: input.Temperature,
		Humidity:    input.Humidity,
		Time:        input.Time,
	}
	m.ready = true
	m.failStreak = 0
	m.eventCounts.Reads++

	var events []Event
	if m.lost {
		m.lost = false
		events = append(events, Event{Timestamp: input.Time, Type: EventSensorRecovered, Reading: m.last})
	}
	return append(events, Event{Timestamp: input.Time, Type: EventReading, Reading: m.last})
}

func (m *Monitor) processFailure(input Input) []Event {
	switch input.Failure {
	case FailureChecksumMismatch:
		m.eventCounts.ChecksumErrors++
	default:
		m.eventCounts.ConnectionErrors++
	}
	m.failStreak++

	events := []Event{{
		Timestamp: input.Time,
		Type:      EventReadFailed,
		Reading:   m.last,
		Reason:    input.Failure,
	}}

	// Lost is reported once per outage.
	if !m.lost && m.failStreak >= m.lostAfter {
		m.lost = true
		events = append(events, Event{
			Timestamp: input.Time,
			Type:      EventSensorLost,
			Reading:   m.last,
			Reason:    input.Failure,
		})
	}
	return events
}

// IsReady returns whether at least one read has succeeded.
func (m *Monitor) IsReady() bool {
	return m.ready
}

// IsLost returns whether the sensor is currently considered lost.
func (m *Monitor) IsLost() bool {
	return m.lost
}

// LastReading returns the last good reading.
func (m *Monitor) LastReading() Reading {
	return m.last
}

// FailStreak returns the number of consecutive failed reads.
func (m *Monitor) FailStreak() int {
	return m.failStreak
}

// EventCountsSnapshot returns a copy of the current counts.
func (m *Monitor) EventCountsSnapshot() EventCounts {
	return m.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if no read has succeeded yet, if the
// interval has not elapsed, or if interval is <= 0 (disabled).
func (m *Monitor) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if !m.ready {
		return nil
	}

	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.eventCounts,
		Reading:   m.last,
	}
}
