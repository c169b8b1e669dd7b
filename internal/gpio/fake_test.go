package gpio

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// startPulse drives the line low for hold and releases it into input mode.
func startPulse(f *FakeLine, c *SimClock, hold time.Duration) {
	f.SetDirection(Output)
	f.SetLevel(Low)
	c.Delay(hold)
	f.SetLevel(High)
	f.SetDirection(Input)
}

func TestSimClockDelay(t *testing.T) {
	c := NewSimClock(epoch)

	c.Delay(2 * time.Microsecond)
	c.Delay(20 * time.Millisecond)
	c.Delay(2 * time.Microsecond)

	if got := c.Now().Sub(epoch); got != 20*time.Millisecond+4*time.Microsecond {
		t.Errorf("elapsed: got %v", got)
	}
	if len(c.Delays) != 3 {
		t.Fatalf("expected 3 recorded delays, got %d", len(c.Delays))
	}
	if n := c.Count(2 * time.Microsecond); n != 2 {
		t.Errorf("Count(2µs): got %d, want 2", n)
	}
}

func TestFakeLineIdlesHigh(t *testing.T) {
	c := NewSimClock(epoch)
	f := NewFakeLine(c)
	f.SetDirection(Input)

	if got := f.ReadLevel(); got != High {
		t.Errorf("expected idle high, got %s", got)
	}
}

func TestFakeLinePlaysResponse(t *testing.T) {
	c := NewSimClock(epoch)
	f := NewFakeLine(c, []Pulse{
		{Level: High, Duration: 10 * time.Microsecond},
		{Level: Low, Duration: 20 * time.Microsecond},
	})

	startPulse(f, c, DefaultMinStartHold)
	if f.StartPulses != 1 {
		t.Fatalf("expected 1 start pulse, got %d", f.StartPulses)
	}

	checks := []struct {
		at   time.Duration
		want Level
	}{
		{0, High},
		{8 * time.Microsecond, High},
		{10 * time.Microsecond, Low},
		{29 * time.Microsecond, Low},
		{30 * time.Microsecond, High},
		{time.Millisecond, High},
	}
	elapsed := time.Duration(0)
	for _, tc := range checks {
		c.Delay(tc.at - elapsed)
		elapsed = tc.at
		if got := f.ReadLevel(); got != tc.want {
			t.Errorf("at %v: got %s, want %s", tc.at, got, tc.want)
		}
	}
}

func TestFakeLineShortHoldIgnored(t *testing.T) {
	c := NewSimClock(epoch)
	f := NewFakeLine(c, []Pulse{{Level: Low, Duration: time.Millisecond}})

	startPulse(f, c, time.Millisecond)

	if f.StartPulses != 0 {
		t.Errorf("expected no start pulse, got %d", f.StartPulses)
	}
	if got := f.ReadLevel(); got != High {
		t.Errorf("expected no response, got %s", got)
	}
}

func TestFakeLineAbsent(t *testing.T) {
	c := NewSimClock(epoch)
	f := NewFakeLine(c, []Pulse{{Level: Low, Duration: time.Millisecond}})
	f.Absent = true

	startPulse(f, c, DefaultMinStartHold)

	if f.StartPulses != 1 {
		t.Errorf("start pulse should still be counted, got %d", f.StartPulses)
	}
	if got := f.ReadLevel(); got != High {
		t.Errorf("absent sensor should leave line high, got %s", got)
	}
}

func TestFakeLineStuckLow(t *testing.T) {
	c := NewSimClock(epoch)
	f := NewFakeLine(c)
	f.StuckLow = true
	f.SetDirection(Input)

	if got := f.ReadLevel(); got != Low {
		t.Errorf("expected low, got %s", got)
	}
}

func TestFakeLineRepeatsLastResponse(t *testing.T) {
	c := NewSimClock(epoch)
	first := []Pulse{{Level: Low, Duration: 10 * time.Microsecond}}
	second := []Pulse{{Level: High, Duration: 10 * time.Microsecond}, {Level: Low, Duration: 10 * time.Microsecond}}
	f := NewFakeLine(c, first, second)

	want := []Level{Low, High, High}
	for i, w := range want {
		startPulse(f, c, DefaultMinStartHold)
		if got := f.ReadLevel(); got != w {
			t.Errorf("pulse %d: got %s, want %s", i, got, w)
		}
	}
	if f.StartPulses != 3 {
		t.Errorf("expected 3 start pulses, got %d", f.StartPulses)
	}
}

func TestFakeLineReadWhileDriving(t *testing.T) {
	c := NewSimClock(epoch)
	f := NewFakeLine(c)
	f.SetDirection(Output)
	f.SetLevel(Low)

	if got := f.ReadLevel(); got != Low {
		t.Errorf("expected driven level low, got %s", got)
	}
}

func TestFakeLineSetLevelIgnoredAsInput(t *testing.T) {
	c := NewSimClock(epoch)
	f := NewFakeLine(c, []Pulse{{Level: Low, Duration: time.Millisecond}})
	f.SetDirection(Input)
	f.SetLevel(Low)
	c.Delay(DefaultMinStartHold)
	f.SetLevel(High)

	if f.StartPulses != 0 {
		t.Errorf("levels set in input mode should be ignored, got %d start pulses", f.StartPulses)
	}
}

func TestFakeLineCloseAndReset(t *testing.T) {
	c := NewSimClock(epoch)
	f := NewFakeLine(c, []Pulse{{Level: Low, Duration: time.Millisecond}})

	startPulse(f, c, DefaultMinStartHold)
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}

	f.Reset()
	if f.Closed || f.StartPulses != 0 {
		t.Errorf("Reset should clear state, got closed=%v pulses=%d", f.Closed, f.StartPulses)
	}
}

func TestSysClockDelay(t *testing.T) {
	var c SysClock
	start := c.Now()
	c.Delay(50 * time.Microsecond)
	if got := c.Now().Sub(start); got < 50*time.Microsecond {
		t.Errorf("spin delay returned early after %v", got)
	}

	start = c.Now()
	c.Delay(2 * time.Millisecond)
	if got := c.Now().Sub(start); got < 2*time.Millisecond {
		t.Errorf("sleep delay returned early after %v", got)
	}
}

func TestStrings(t *testing.T) {
	if Input.String() != "input" || Output.String() != "output" {
		t.Errorf("direction strings: %s %s", Input, Output)
	}
	if Low.String() != "low" || High.String() != "high" {
		t.Errorf("level strings: %s %s", Low, High)
	}
}
