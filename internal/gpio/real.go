//go:build linux

package gpio

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/warthog618/go-gpiocdev"
)

// RealLine drives one line on actual hardware using the Linux GPIO character device.
type RealLine struct {
	line *gpiocdev.Line
	pin  int
	dir  Direction
	log  *log.Entry
}

// NewRealLine requests pin on chip. The line starts as an input with the
// pull-up enabled, which is the idle state of a single-wire bus.
func NewRealLine(chip string, pin int) (*RealLine, error) {
	l, err := gpiocdev.RequestLine(chip, pin, gpiocdev.AsInput, gpiocdev.WithPullUp,
		gpiocdev.WithConsumer("dht11-sensor"))
	if err != nil {
		return nil, errors.Wrapf(err, "request %s pin %d", chip, pin)
	}
	return &RealLine{
		line: l,
		pin:  pin,
		dir:  Input,
		log:  log.WithField("pin", pin),
	}, nil
}

// SetDirection reconfigures the line. Reconfiguring is a syscall, so it is
// skipped when the line is already in the requested mode.
func (r *RealLine) SetDirection(d Direction) {
	if d == r.dir {
		return
	}
	var err error
	if d == Output {
		// Released level is high; the caller pulls low explicitly.
		err = r.line.Reconfigure(gpiocdev.AsOutput(int(High)))
	} else {
		err = r.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp)
	}
	if err != nil {
		r.log.WithError(err).Debugf("reconfigure as %s", d)
		return
	}
	r.dir = d
}

// SetLevel drives the line. Ignored unless the line is an output.
func (r *RealLine) SetLevel(l Level) {
	if r.dir != Output {
		return
	}
	if err := r.line.SetValue(int(l)); err != nil {
		r.log.WithError(err).Debugf("set %s", l)
	}
}

// ReadLevel samples the line. Read errors report the idle level.
func (r *RealLine) ReadLevel() Level {
	v, err := r.line.Value()
	if err != nil {
		r.log.WithError(err).Debug("read level")
		return High
	}
	if v == 0 {
		return Low
	}
	return High
}

// Close returns the line to an input with pull-up, matching the bus idle
// state, then releases it.
func (r *RealLine) Close() error {
	if r.line == nil {
		return nil
	}
	var errs []error
	if err := r.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
		errs = append(errs, errors.Wrap(err, "reconfigure line"))
	}
	if err := r.line.Close(); err != nil {
		errs = append(errs, errors.Wrap(err, "close line"))
	}
	r.line = nil
	if len(errs) > 0 {
		return errors.Errorf("close errors: %v", errs)
	}
	return nil
}
