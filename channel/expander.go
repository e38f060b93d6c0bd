// SPDX-FileCopyrightText: 2022 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/schmidtw/glowworm/brightness"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/devices/v3/tca95xx"
)

var variants = map[string]tca95xx.Variant{
	"tca9534": tca95xx.TCA9534,
	"tca9535": tca95xx.TCA9535,
}

// Expander drives one output of a tca95xx I2C GPIO expander.  The expanders
// have no PWM, so writes are on/off only.
type Expander struct {
	m       sync.Mutex
	i2cFile string
	variant tca95xx.Variant
	address int
	port    int
	bit     int
	log     *zap.Logger

	ioWrapper busWrapper
	pin       tca95xx.Pin
}

func newExpander(c Config, log *zap.Logger) (*Expander, error) {
	name := strings.ToLower(c.Variant)
	if name == "" {
		name = "tca9534"
	}

	v, ok := variants[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", errUnsupportedVariant, c.Variant)
	}

	if c.Port < 0 || c.Bit < 0 || c.Bit > 7 {
		return nil, fmt.Errorf("%w: port %d bit %d", ErrInvalidPin, c.Port, c.Bit)
	}

	return &Expander{
		i2cFile:   c.I2cFile,
		variant:   v,
		address:   c.Address,
		port:      c.Port,
		bit:       c.Bit,
		log:       log,
		ioWrapper: &hwWrapper{},
	}, nil
}

func (e *Expander) Configure() error {
	e.m.Lock()
	defer e.m.Unlock()

	if e.pin != nil {
		return ErrAlreadyConfigured
	}

	if err := e.ioWrapper.Open(e.i2cFile); err != nil {
		return err
	}

	pins, err := e.ioWrapper.Connect(e.variant, e.address)
	if err != nil {
		_ = e.ioWrapper.Close()
		return err
	}

	if e.port >= len(pins) || e.bit >= len(pins[e.port]) {
		_ = e.ioWrapper.Close()
		return fmt.Errorf("%w: port %d bit %d", ErrInvalidPin, e.port, e.bit)
	}

	pin := pins[e.port][e.bit]
	if err := pin.Out(gpio.Low); err != nil {
		_ = e.ioWrapper.Close()
		return err
	}

	e.pin = pin
	e.log.Info("expander output configured",
		zap.String("i2c", e.i2cFile),
		zap.String("address", "0x"+strconv.FormatInt(int64(e.address), 16)),
		zap.Int("port", e.port),
		zap.Int("bit", e.bit))

	return nil
}

func (e *Expander) Write(l brightness.Level) error {
	e.m.Lock()
	defer e.m.Unlock()

	if e.pin == nil {
		return ErrNotConfigured
	}

	return e.pin.Out(gpio.Level(l.On()))
}

// Close turns the output off and releases the I2C bus.
func (e *Expander) Close() error {
	e.m.Lock()
	defer e.m.Unlock()

	if e.pin == nil {
		return nil
	}

	_ = e.pin.Out(gpio.Low)
	e.pin = nil

	return e.ioWrapper.Close()
}

func (e *Expander) String() string {
	return fmt.Sprintf("expander:%s@0x%x/%d.%d", e.i2cFile, e.address, e.port, e.bit)
}
