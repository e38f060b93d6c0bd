// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"errors"
	"math"
	"sync"
)

// XRange is the span of x covered by one cycle.
const XRange = 2 * math.Pi

var (
	ErrInvalidParameter = errors.New("invalid parameter")
)

// SineConfig provides the sine source configuration options.
type SineConfig struct {
	// InferencesPerCycle is how many points one cycle of x is split into.
	InferencesPerCycle int

	// Amplitude scales y.  Zero means 1.0.  Values above 1 drive the output
	// past its range.
	Amplitude float64
}

// Sine produces points along a sine wave, one per call to Next.
type Sine struct {
	m         sync.Mutex
	perCycle  int
	amplitude float64
	count     int
}

// NewSine makes a new sine source.
func NewSine(cfg SineConfig) (*Sine, error) {
	if cfg.InferencesPerCycle < 1 {
		return nil, ErrInvalidParameter
	}
	if cfg.Amplitude == 0.0 {
		cfg.Amplitude = 1.0
	}

	return &Sine{
		perCycle:  cfg.InferencesPerCycle,
		amplitude: cfg.Amplitude,
	}, nil
}

// Next returns the next point and advances, starting over at x = 0 after
// each cycle.
func (s *Sine) Next() (x, y float64) {
	s.m.Lock()
	defer s.m.Unlock()

	position := float64(s.count) / float64(s.perCycle)
	x = position * XRange
	y = s.amplitude * math.Sin(x)

	s.count++
	if s.count >= s.perCycle {
		s.count = 0
	}

	return x, y
}
