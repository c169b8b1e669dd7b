package dht11

import "time"

// MinReadInterval is the shortest spacing between transactions the sensor
// tolerates. Read does not enforce it; callers schedule reads accordingly.
const MinReadInterval = 2 * time.Second

// Timing holds the hold times and timeouts of a transaction.
type Timing struct {
	StartHold      time.Duration // line held low to wake the sensor
	AckLowTimeout  time.Duration // phase 1: wait for the sensor to pull low
	AckHighTimeout time.Duration // phase 2: wait for the sensor to release high
	DataTimeout    time.Duration // phase 3: wait for the first bit's low phase
	Cooldown       time.Duration // settle time after a failed handshake
	BitLowTimeout  time.Duration // bit low phase, waiting for high
	BitHighTimeout time.Duration // bit high phase, waiting for low
	PollStep       time.Duration // sampling granularity of every wait

	// AbortOnBitTimeout fails the transaction with ErrConnectionFailed when
	// any wait inside the data phase times out. When false, a timed out
	// wait takes part in the bit comparison as a negative duration.
	AbortOnBitTimeout bool
}

// DefaultTiming returns the reference timings for the DHT11.
func DefaultTiming() Timing {
	return Timing{
		StartHold:      18 * time.Millisecond,
		AckLowTimeout:  40 * time.Microsecond,
		AckHighTimeout: 90 * time.Microsecond,
		DataTimeout:    90 * time.Microsecond,
		Cooldown:       20 * time.Millisecond,
		BitLowTimeout:  58 * time.Microsecond,
		BitHighTimeout: 74 * time.Microsecond,
		PollStep:       2 * time.Microsecond,
	}
}
