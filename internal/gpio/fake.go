package gpio

import "time"

// SimClock is a deterministic Clock for tests. Time only advances on Delay.
type SimClock struct {
	now time.Time

	// Delays records every Delay call in order.
	Delays []time.Duration
}

// NewSimClock creates a SimClock starting at start.
func NewSimClock(start time.Time) *SimClock {
	return &SimClock{now: start}
}

// Now returns the simulated time.
func (c *SimClock) Now() time.Time {
	return c.now
}

// Delay advances simulated time by d.
func (c *SimClock) Delay(d time.Duration) {
	c.Delays = append(c.Delays, d)
	c.now = c.now.Add(d)
}

// Count returns how many recorded delays were exactly d.
func (c *SimClock) Count(d time.Duration) int {
	n := 0
	for _, got := range c.Delays {
		if got == d {
			n++
		}
	}
	return n
}

// DefaultMinStartHold is how long the line must be held low before the
// simulated sensor answers.
const DefaultMinStartHold = 18 * time.Millisecond

// FakeLine is a test double simulating a single-wire sensor on one line.
// When it sees the line driven low for at least MinStartHold and then
// released, it plays the next scripted response, measured from the release.
// Outside a response the line idles high (pull-up).
type FakeLine struct {
	clock *SimClock

	// Responses contains scripted waveforms. Each start pulse consumes the
	// next one; once exhausted the last is repeated.
	Responses [][]Pulse

	// Absent, if set, never answers a start pulse.
	Absent bool

	// StuckLow, if set, reads low whenever the line is sensed.
	StuckLow bool

	// MinStartHold is the shortest low hold recognised as a start pulse.
	MinStartHold time.Duration

	// StartPulses counts recognised start pulses.
	StartPulses int

	// Closed tracks if Close was called.
	Closed bool

	dir      Direction
	driven   Level
	lowSince time.Time
	index    int
	active   []Pulse
	armedAt  time.Time
}

// NewFakeLine creates a FakeLine on clock that plays responses.
func NewFakeLine(clock *SimClock, responses ...[]Pulse) *FakeLine {
	return &FakeLine{
		clock:        clock,
		Responses:    responses,
		MinStartHold: DefaultMinStartHold,
		driven:       High,
	}
}

// SetDirection records the line mode.
func (f *FakeLine) SetDirection(d Direction) {
	f.dir = d
}

// SetLevel drives the line. A low-to-high edge after a long enough hold is
// treated as a start pulse.
func (f *FakeLine) SetLevel(l Level) {
	if f.dir != Output {
		return
	}
	now := f.clock.Now()
	switch {
	case l == Low && f.driven == High:
		f.lowSince = now
	case l == High && f.driven == Low:
		if now.Sub(f.lowSince) >= f.MinStartHold {
			f.StartPulses++
			f.arm(now)
		}
	}
	f.driven = l
}

func (f *FakeLine) arm(now time.Time) {
	f.active = nil
	if f.Absent || len(f.Responses) == 0 {
		return
	}
	f.active = f.Responses[f.index]
	if f.index < len(f.Responses)-1 {
		f.index++
	}
	f.armedAt = now
}

// ReadLevel returns the simulated sensor output at the current clock time.
func (f *FakeLine) ReadLevel() Level {
	if f.dir == Output {
		return f.driven
	}
	if f.StuckLow {
		return Low
	}
	offset := f.clock.Now().Sub(f.armedAt)
	for _, p := range f.active {
		if offset < p.Duration {
			return p.Level
		}
		offset -= p.Duration
	}
	return High
}

// Close marks the line as closed.
func (f *FakeLine) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the scripted responses and clears counters.
func (f *FakeLine) Reset() {
	f.index = 0
	f.active = nil
	f.StartPulses = 0
	f.Closed = false
}
