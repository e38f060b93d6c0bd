// SPDX-FileCopyrightText: 2022 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

// Package ratemeter measures how often something happens over a recent
// window of time.
package ratemeter

import (
	"container/list"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"periph.io/x/conn/v3/physic"
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Config provides the rate meter configuration options.
type Config struct {
	// Window is how far back Rate looks.
	Window time.Duration

	// MaxEventCount bounds how many events are kept.  Defaults to 100.  The
	// rate can't be measured above MaxEventCount per Window.
	MaxEventCount int
}

type Option interface {
	apply(m *Meter)
}

type Meter struct {
	mutex         sync.Mutex
	clock         clock.Clock
	window        time.Duration
	total         uint64
	maxEventCount int
	events        list.List
}

// New makes a new rate meter.
func New(cfg Config, opts ...Option) (*Meter, error) {
	if cfg.MaxEventCount < 1 {
		cfg.MaxEventCount = 100
	}
	if cfg.Window <= 0 {
		return nil, ErrInvalidParameter
	}

	m := Meter{
		clock:         clock.New(),
		window:        cfg.Window,
		maxEventCount: cfg.MaxEventCount,
	}

	m.events.Init()

	for _, opt := range opts {
		opt.apply(&m)
	}

	return &m, nil
}

// Mark records one event now and forgets events older than the window.
func (m *Meter) Mark() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.total++

	now := m.clock.Now()
	m.events.PushFront(now)

	until := now.Add(-1 * m.window)
	for m.events.Len() > 0 {
		oldest := m.events.Back()
		if m.events.Len() <= m.maxEventCount && until.Before(oldest.Value.(time.Time)) {
			break
		}
		m.events.Remove(oldest)
	}
}

// Rate returns the event rate over the window.
func (m *Meter) Rate() physic.Frequency {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	until := m.clock.Now().Add(-1 * m.window)

	var events int64
	for e := m.events.Front(); e != nil; e = e.Next() {
		t := e.Value.(time.Time)
		if !until.Before(t) {
			break
		}
		events++
	}

	return physic.Frequency(events * int64(physic.Hertz) * int64(time.Second) / int64(m.window))
}

// Total returns the number of events ever marked.
func (m *Meter) Total() uint64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.total
}

// UseClock provides a way to set the clock used.  This is used for testing.
func UseClock(c clock.Clock) Option {
	return &clockOption{clk: c}
}

type clockOption struct {
	clk clock.Clock
}

func (c clockOption) apply(m *Meter) {
	m.clock = c.clk
}
