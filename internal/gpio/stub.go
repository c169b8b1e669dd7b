//go:build !linux

package gpio

import "github.com/pkg/errors"

// RealLine is not available on non-Linux platforms.
type RealLine struct{}

// NewRealLine returns an error on non-Linux platforms.
func NewRealLine(chip string, pin int) (*RealLine, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// SetDirection is not implemented on non-Linux platforms.
func (r *RealLine) SetDirection(d Direction) {}

// SetLevel is not implemented on non-Linux platforms.
func (r *RealLine) SetLevel(l Level) {}

// ReadLevel always reports the idle level on non-Linux platforms.
func (r *RealLine) ReadLevel() Level {
	return High
}

// Close is not implemented on non-Linux platforms.
func (r *RealLine) Close() error {
	return nil
}
