package dht11

import (
	"time"

	"github.com/sweeney/dht11-sensor/internal/gpio"
)

// Sensor-side durations of a DHT11 response, measured from the release of
// the start pulse.
const (
	ResponseDelay = 30 * time.Microsecond // pull-up before the sensor answers
	AckLow        = 80 * time.Microsecond
	AckHigh       = 80 * time.Microsecond
	BitLow        = 50 * time.Microsecond
	BitZeroHigh   = 26 * time.Microsecond
	BitOneHigh    = 70 * time.Microsecond
)

// SimulatedResponse returns the waveform a DHT11 sends for f, for use as a
// gpio.FakeLine response.
func SimulatedResponse(f Frame) []gpio.Pulse {
	pulses := make([]gpio.Pulse, 0, 4+2*frameBits)
	pulses = append(pulses,
		gpio.Pulse{Level: gpio.High, Duration: ResponseDelay},
		gpio.Pulse{Level: gpio.Low, Duration: AckLow},
		gpio.Pulse{Level: gpio.High, Duration: AckHigh},
	)
	for i := 0; i < frameBits; i++ {
		high := BitZeroHigh
		if f[i/8]&(1<<(7-uint(i%8))) != 0 {
			high = BitOneHigh
		}
		pulses = append(pulses,
			gpio.Pulse{Level: gpio.Low, Duration: BitLow},
			gpio.Pulse{Level: gpio.High, Duration: high},
		)
	}
	// End of frame: the sensor pulls low once more, then releases the bus.
	return append(pulses, gpio.Pulse{Level: gpio.Low, Duration: BitLow})
}

// NewSimulatedSensor wires a Sensor to a FakeLine that answers every start
// pulse with frames, in order, repeating the last.
func NewSimulatedSensor(pin int, clock *gpio.SimClock, frames ...Frame) (*Sensor, *gpio.FakeLine) {
	responses := make([][]gpio.Pulse, len(frames))
	for i, f := range frames {
		responses[i] = SimulatedResponse(f)
	}
	line := gpio.NewFakeLine(clock, responses...)
	return NewSensor(pin, line, clock, DefaultTiming()), line
}
