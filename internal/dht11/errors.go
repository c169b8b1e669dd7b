package dht11

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrConnectionFailed is returned when no handshake attempt completed:
	// the sensor is absent, miswired or not responding.
	ErrConnectionFailed = errors.New("dht11: connection failed")

	// ErrChecksumMismatch is returned when a full frame was sampled but its
	// checksum byte does not match the data bytes.
	ErrChecksumMismatch = errors.New("dht11: checksum mismatch")
)

// HandshakeError reports which handshake phase timed out. It never reaches
// callers of Read; the retry loop turns it into ErrConnectionFailed.
type HandshakeError struct {
	Phase int
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("dht11: handshake timeout at phase %d", e.Phase)
}

// ChecksumError carries the frame that failed validation.
type ChecksumError struct {
	Frame Frame
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("dht11: checksum mismatch: frame %s, want checksum 0x%02x",
		e.Frame, e.Frame.Checksum())
}

// Is makes errors.Is(err, ErrChecksumMismatch) hold for a *ChecksumError.
func (e *ChecksumError) Is(target error) bool {
	return target == ErrChecksumMismatch
}
