// SPDX-FileCopyrightText: 2022 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/tca95xx"
)

// busWrapper is the seam between the expander channel and the I2C hardware.
type busWrapper interface {
	Open(string) error
	Close() error
	Connect(tca95xx.Variant, int) ([][]tca95xx.Pin, error)
}

type hwWrapper struct {
	m    sync.Mutex
	bus  i2c.BusCloser
	devs []*tca95xx.Dev
}

func (h *hwWrapper) Open(file string) (err error) {
	h.m.Lock()
	defer h.m.Unlock()

	if h.bus != nil {
		return ErrAlreadyConfigured
	}

	if err = hostInit(); err != nil {
		return err
	}

	h.bus, err = i2creg.Open(file)
	return err
}

func (h *hwWrapper) Close() (err error) {
	h.m.Lock()
	defer h.m.Unlock()

	for i := range h.devs {
		e := h.devs[i].Close()
		if e != nil && err == nil {
			err = e
		}
	}
	h.devs = nil

	if h.bus != nil {
		e := h.bus.Close()
		if e != nil && err == nil {
			err = e
		}
		h.bus = nil
	}

	return err
}

func (h *hwWrapper) Connect(v tca95xx.Variant, addr int) ([][]tca95xx.Pin, error) {
	h.m.Lock()
	defer h.m.Unlock()

	if h.bus == nil {
		return nil, errInvalidState
	}

	dev, err := tca95xx.New(h.bus, v, uint16(addr))
	if err != nil {
		return nil, err
	}
	h.devs = append(h.devs, dev)

	return dev.Pins, nil
}
