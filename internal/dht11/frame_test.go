package dht11

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestFrameChecksum(t *testing.T) {
	tests := []struct {
		frame Frame
		sum   byte
		valid bool
	}{
		{Frame{0x32, 0x00, 0x18, 0x05, 0x4F}, 0x4F, true},
		{Frame{0x32, 0x00, 0x18, 0x05, 0x00}, 0x4F, false},
		{Frame{0xFF, 0xFF, 0xFF, 0xFF, 0xFC}, 0xFC, true}, // wraps modulo 256
		{Frame{}, 0x00, true},
	}
	for _, tc := range tests {
		if got := tc.frame.Checksum(); got != tc.sum {
			t.Errorf("%s: Checksum() = %#x, want %#x", tc.frame, got, tc.sum)
		}
		if got := tc.frame.Valid(); got != tc.valid {
			t.Errorf("%s: Valid() = %v, want %v", tc.frame, got, tc.valid)
		}
	}
}

func TestFrameValues(t *testing.T) {
	f := Frame{0x32, 0x00, 0x18, 0x05, 0x4F}
	if got := f.Humidity(); got != 50.0 {
		t.Errorf("Humidity: got %v, want 50.0", got)
	}
	if got := f.Temperature(); got != 24.5 {
		t.Errorf("Temperature: got %v, want 24.5", got)
	}
}

func TestFrameSetBit(t *testing.T) {
	var f Frame
	f.setBit(0, true)
	f.setBit(7, true)
	f.setBit(8, false)
	f.setBit(39, true)

	if want := (Frame{0x81, 0x00, 0x00, 0x00, 0x01}); f != want {
		t.Errorf("got %s, want %s", f, want)
	}
}

func TestFrameString(t *testing.T) {
	f := Frame{0x32, 0x00, 0x18, 0x05, 0x4F}
	if got, want := f.String(), "[0x32 0x00 0x18 0x05 0x4f]"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFrameStringPadsEachByte(t *testing.T) {
	f := Frame{0x01, 0xff, 0x0a, 0x00, 0x0a}
	if got, want := f.String(), "[0x01 0xff 0x0a 0x00 0x0a]"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestChecksumErrorMessage(t *testing.T) {
	err := &ChecksumError{Frame: Frame{0x32, 0x00, 0x18, 0x05, 0x00}}
	want := "dht11: checksum mismatch: frame [0x32 0x00 0x18 0x05 0x00], want checksum 0x4f"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestChecksumErrorMatching(t *testing.T) {
	err := error(&ChecksumError{Frame: Frame{0x32, 0x00, 0x18, 0x05, 0x00}})
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Error("ChecksumError should match ErrChecksumMismatch")
	}
	if !strings.Contains(err.Error(), "0x4f") {
		t.Errorf("error should name the expected checksum: %v", err)
	}

	wrapped := errors.Wrap(err, "read sensor")
	if !errors.Is(wrapped, ErrChecksumMismatch) {
		t.Error("wrapped ChecksumError should match ErrChecksumMismatch")
	}
}

func TestHandshakeErrorMessage(t *testing.T) {
	err := &HandshakeError{Phase: 2}
	if got := err.Error(); !strings.Contains(got, "phase 2") {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestDefaultTiming(t *testing.T) {
	tm := DefaultTiming()
	if tm.StartHold.Microseconds() != 18000 {
		t.Errorf("StartHold: %v", tm.StartHold)
	}
	if tm.AckLowTimeout.Microseconds() != 40 || tm.AckHighTimeout.Microseconds() != 90 || tm.DataTimeout.Microseconds() != 90 {
		t.Errorf("handshake timeouts: %v %v %v", tm.AckLowTimeout, tm.AckHighTimeout, tm.DataTimeout)
	}
	if tm.Cooldown.Microseconds() != 20000 {
		t.Errorf("Cooldown: %v", tm.Cooldown)
	}
	if tm.BitLowTimeout.Microseconds() != 58 || tm.BitHighTimeout.Microseconds() != 74 {
		t.Errorf("bit timeouts: %v %v", tm.BitLowTimeout, tm.BitHighTimeout)
	}
	if tm.PollStep.Microseconds() != 2 {
		t.Errorf("PollStep: %v", tm.PollStep)
	}
	if tm.AbortOnBitTimeout {
		t.Error("AbortOnBitTimeout should default to false")
	}
}
