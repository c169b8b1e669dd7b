package gpio

import (
	"runtime"
	"time"
)

// spinLimit is the longest delay SysClock busy-waits for. Longer delays
// sleep so the scheduler can run other goroutines.
const spinLimit = time.Millisecond

// SysClock is the wall clock.
type SysClock struct{}

// Now returns the current time.
func (SysClock) Now() time.Time {
	return time.Now()
}

// Delay busy-waits for microsecond delays and sleeps for millisecond ones.
// time.Sleep granularity on Linux is far too coarse for bit timing.
func (SysClock) Delay(d time.Duration) {
	if d <= 0 {
		return
	}
	if d >= spinLimit {
		time.Sleep(d)
		return
	}
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}

// LockThread pins the calling goroutine to its OS thread for the duration of
// a timed transaction. The returned func undoes it.
func LockThread() func() {
	runtime.LockOSThread()
	return runtime.UnlockOSThread
}
