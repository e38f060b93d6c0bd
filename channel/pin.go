// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"sync"

	"github.com/schmidtw/glowworm/brightness"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// pinChannel drives a host GPIO pin, either with PWM or as a digital output.
type pinChannel struct {
	m         sync.Mutex
	name      string
	frequency physic.Frequency
	digital   bool
	lookup    func(string) (gpio.PinIO, error)
	log       *zap.Logger

	pin gpio.PinIO
}

func (p *pinChannel) Configure() error {
	p.m.Lock()
	defer p.m.Unlock()

	if p.pin != nil {
		return ErrAlreadyConfigured
	}

	pin, err := p.lookup(p.name)
	if err != nil {
		return err
	}

	if err := pin.Out(gpio.Low); err != nil {
		return err
	}

	p.pin = pin
	return nil
}

func (p *pinChannel) Write(l brightness.Level) error {
	p.m.Lock()
	defer p.m.Unlock()

	if p.pin == nil {
		return ErrNotConfigured
	}

	if !p.digital {
		err := p.pin.PWM(l.Duty(), p.frequency)
		if err == nil {
			return nil
		}

		// The pin can't do PWM, so only on and off are left.
		p.log.Warn("PWM not supported, using digital output",
			zap.String("pin", p.name),
			zap.Error(err))
		p.digital = true
	}

	return p.pin.Out(gpio.Level(l.On()))
}

func (p *pinChannel) String() string {
	p.m.Lock()
	defer p.m.Unlock()

	if p.digital {
		return "digital:" + p.name
	}
	return "pwm:" + p.name
}

// logChannel is used when there is no hardware to drive.
type logChannel struct {
	m          sync.Mutex
	configured bool
	log        *zap.Logger
}

func (c *logChannel) Configure() error {
	c.m.Lock()
	defer c.m.Unlock()

	if c.configured {
		return ErrAlreadyConfigured
	}
	c.configured = true
	c.log.Debug("log channel configured")
	return nil
}

func (c *logChannel) Write(l brightness.Level) error {
	c.m.Lock()
	defer c.m.Unlock()

	if !c.configured {
		return ErrNotConfigured
	}
	c.log.Debug("write", zap.Stringer("level", l), zap.Bool("on", l.On()))
	return nil
}

func (c *logChannel) String() string {
	return "log"
}
