// Package dht11 reads a DHT11 humidity/temperature sensor over a single
// software-timed GPIO line.
//
// A transaction is: start pulse, three-phase handshake (retried with a
// cooldown up to a caller-supplied budget), 40 data bits, checksum. It is
// blocking and runs to completion; the caller must own the line exclusively
// for its duration and serialize access to the Sensor.
package dht11

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/dht11-sensor/internal/gpio"
)

// timedOut is the duration a timed out wait reports.
const timedOut time.Duration = -1

// Sensor is one DHT11 on one line, plus the last good reading.
// Temperature and Humidity change only on a fully successful Read.
type Sensor struct {
	Pin         int
	Temperature float64 // °C, one decimal digit
	Humidity    float64 // %RH, one decimal digit

	line     gpio.Line
	clock    gpio.Clock
	timing   Timing
	lastRead time.Time
	log      *log.Entry
}

// NewSensor creates a Sensor reading through line with zero-valued readings.
func NewSensor(pin int, line gpio.Line, clock gpio.Clock, timing Timing) *Sensor {
	if timing.PollStep <= 0 {
		timing.PollStep = DefaultTiming().PollStep
	}
	return &Sensor{
		Pin:    pin,
		line:   line,
		clock:  clock,
		timing: timing,
		log:    log.WithField("pin", pin),
	}
}

// LastRead returns the clock time of the last successful Read, or the zero
// time if there has been none.
func (s *Sensor) LastRead() time.Time {
	return s.lastRead
}

// Read runs one transaction. The handshake is attempted up to maxAttempts
// times (at least once), each failure followed by the cooldown. It returns
// ErrConnectionFailed when every attempt failed and a *ChecksumError
// (matching ErrChecksumMismatch) for a corrupt frame. On any error the
// stored readings are left untouched.
func (s *Sensor) Read(maxAttempts int) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	connected := false
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := s.handshake()
		if err == nil {
			connected = true
			break
		}
		s.log.WithField("attempt", attempt).WithError(err).Debug("handshake failed")
		s.clock.Delay(s.timing.Cooldown)
	}
	if !connected {
		return errors.Wrapf(ErrConnectionFailed, "after %d attempts", maxAttempts)
	}

	frame, err := s.readFrame()
	if err != nil {
		return err
	}
	if !frame.Valid() {
		s.log.WithField("frame", frame.String()).Warn("wrong checksum")
		return &ChecksumError{Frame: frame}
	}

	s.Humidity = frame.Humidity()
	s.Temperature = frame.Temperature()
	s.lastRead = s.clock.Now()
	return nil
}

// handshake sends the start pulse and waits through the sensor's
// acknowledgement: low, high, then low for the first data bit.
func (s *Sensor) handshake() error {
	s.line.SetDirection(gpio.Input)
	s.holdLow(s.timing.StartHold)

	if _, ok := s.waitFor(gpio.Low, s.timing.AckLowTimeout); !ok {
		return &HandshakeError{Phase: 1}
	}
	if _, ok := s.waitFor(gpio.High, s.timing.AckHighTimeout); !ok {
		return &HandshakeError{Phase: 2}
	}
	if _, ok := s.waitFor(gpio.Low, s.timing.DataTimeout); !ok {
		return &HandshakeError{Phase: 3}
	}
	return nil
}

// holdLow drives the line low for d, then releases it high.
func (s *Sensor) holdLow(d time.Duration) {
	s.line.SetDirection(gpio.Output)
	s.line.SetLevel(gpio.Low)
	s.clock.Delay(d)
	s.line.SetLevel(gpio.High)
}

// readFrame samples 40 bits. Each bit is a low phase of fixed length
// followed by a high phase whose length encodes the value: a high phase
// longer than the low phase is a one.
func (s *Sensor) readFrame() (Frame, error) {
	var f Frame
	for i := 0; i < frameBits; i++ {
		low, lowOK := s.waitFor(gpio.High, s.timing.BitLowTimeout)
		high, highOK := s.waitFor(gpio.Low, s.timing.BitHighTimeout)
		if s.timing.AbortOnBitTimeout && !(lowOK && highOK) {
			return f, errors.Wrapf(ErrConnectionFailed, "timeout at bit %d", i)
		}
		f.setBit(i, high > low)
	}
	return f, nil
}

// waitFor polls the line until it reads level. It returns the time waited
// on the clock, so the cost of sensing the line counts against timeout, or
// timedOut and false if level was not seen within timeout.
func (s *Sensor) waitFor(level gpio.Level, timeout time.Duration) (time.Duration, bool) {
	s.line.SetDirection(gpio.Input)
	start := s.clock.Now()
	for s.line.ReadLevel() != level {
		if s.clock.Now().Sub(start) >= timeout {
			return timedOut, false
		}
		s.clock.Delay(s.timing.PollStep)
	}
	return s.clock.Now().Sub(start), true
}
