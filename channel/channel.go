// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

// Package channel provides the single hardware output line the actuator
// drives.  Channels that support graduated output get the full level, channels
// that only support on/off output treat any level above 127 as on.
package channel

import (
	"fmt"
	"strings"
	"sync"

	"github.com/schmidtw/glowworm/brightness"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const (
	KindPWM      = "pwm"
	KindDigital  = "digital"
	KindExpander = "expander"
	KindLog      = "log"
)

// Channel is an addressable output line.
type Channel interface {
	// Configure sets the channel up for output.  It must be called once
	// before the first Write.
	Configure() error

	// Write sets the output to the level.
	Write(brightness.Level) error

	String() string
}

// Config selects and describes the output channel.
type Config struct {
	// Kind is one of pwm, digital, expander or log.
	Kind string

	// Pin is the host pin name (e.g. GPIO18) for the pwm and digital kinds.
	Pin string

	// Frequency is the PWM frequency.  Zero lets the driver pick.
	Frequency physic.Frequency

	// The expander kind uses these to find the output.
	I2cFile string
	Address int
	Variant string
	Port    int
	Bit     int
}

var (
	hostOnce sync.Once
	hostErr  error
)

// hostInit loads the periph host drivers, once per process.
func hostInit() error {
	hostOnce.Do(func() {
		_, hostErr = host.Init()
	})
	return hostErr
}

func hostLookup(name string) (gpio.PinIO, error) {
	if err := hostInit(); err != nil {
		return nil, err
	}

	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: '%s'", ErrPinNotFound, name)
	}
	return p, nil
}

// New creates the channel described by the configuration.  No hardware is
// touched until Configure is called.
func New(c Config, log *zap.Logger) (Channel, error) {
	if log == nil {
		log = zap.NewNop()
	}

	switch strings.ToLower(c.Kind) {
	case KindPWM, KindDigital:
		if c.Pin == "" {
			return nil, fmt.Errorf("%w: a pin name is required", ErrInvalidPin)
		}
		return &pinChannel{
			name:      c.Pin,
			frequency: c.Frequency,
			digital:   strings.EqualFold(c.Kind, KindDigital),
			lookup:    hostLookup,
			log:       log,
		}, nil
	case KindExpander:
		e, err := newExpander(c, log)
		if err != nil {
			return nil, err
		}
		return e, nil
	case KindLog, "":
		return &logChannel{log: log}, nil
	}

	return nil, fmt.Errorf("%w: '%s'", ErrUnknownKind, c.Kind)
}
