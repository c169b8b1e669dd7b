// Package gpio drives a single bidirectional GPIO line with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation simulates a single-wire sensor without hardware.
package gpio

import "time"

// Direction is the mode a line is configured for.
type Direction int

const (
	Input  Direction = iota // sense: line released, level read back
	Output                  // drive: level set by SetLevel
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// Level is the electrical level of a line.
type Level int

const (
	Low  Level = 0
	High Level = 1
)

func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// Line switches one GPIO line between drive and sense and moves levels on it.
// Implementations report no errors: a line that does not work reads as idle
// high, which callers observe as a protocol timeout.
type Line interface {
	// SetDirection configures the line as drive (Output) or sense (Input).
	SetDirection(d Direction)

	// SetLevel drives the line. Only meaningful while in Output mode.
	SetLevel(l Level)

	// ReadLevel samples the line. Only meaningful while in Input mode.
	ReadLevel() Level

	// Close releases GPIO resources.
	Close() error
}

// Clock is the time source and delay primitive used for bit timing.
type Clock interface {
	Now() time.Time

	// Delay blocks for at least d.
	Delay(d time.Duration)
}

// Pulse is one segment of a waveform: the line held at Level for Duration.
type Pulse struct {
	Level    Level
	Duration time.Duration
}

// DefaultChip is the GPIO character device used when none is configured.
const DefaultChip = "gpiochip0"

// DefaultPin is the BCM line offset the sensor data wire is attached to.
const DefaultPin = 4
