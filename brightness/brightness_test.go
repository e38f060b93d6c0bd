// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package brightness

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"periph.io/x/conn/v3/gpio"
)

func TestFromSignal(t *testing.T) {
	tests := []struct {
		y         float64
		intensity int
		level     Level
		on        bool
		saturated bool
	}{
		{y: -1.0, intensity: 0, level: Off},
		{y: 1.0, intensity: 255, level: Full, on: true},
		{y: 0.0, intensity: 128, level: 128, on: true},
		{y: -0.004, intensity: 127, level: 127},
		{y: 0.5, intensity: 191, level: 191, on: true},
		{y: 5.0, intensity: 765, level: Full, on: true, saturated: true},
		{y: -3.0, intensity: -255, level: Off, saturated: true},
		{y: math.Inf(1), intensity: math.MaxInt32, level: Full, on: true, saturated: true},
		{y: math.Inf(-1), intensity: math.MinInt32, level: Off, saturated: true},
		{y: math.NaN(), intensity: 0, level: Off},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("%v", tc.y), func(t *testing.T) {
			assert := assert.New(t)

			got := FromSignal(tc.y)
			assert.Equal(tc.intensity, got)
			assert.Equal(tc.saturated, Saturated(got))

			l := Clamp(got)
			assert.Equal(tc.level, l)
			assert.Equal(tc.on, l.On())
		})
	}
}

func TestMonotonic(t *testing.T) {
	assert := assert.New(t)

	last := Clamp(FromSignal(-2.0))
	for y := -2.0; y <= 2.0; y += 0.001 {
		l := Clamp(FromSignal(y))
		assert.LessOrEqual(int(last), int(l), "y=%f", y)
		last = l
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		level Level
		duty  gpio.Duty
		str   string
	}{
		{level: Off, duty: 0, str: "0/255"},
		{level: Full, duty: gpio.DutyMax, str: "255/255"},
		{level: 51, duty: gpio.DutyMax / 5, str: "51/255"},
	}

	for _, tc := range tests {
		t.Run(tc.str, func(t *testing.T) {
			assert := assert.New(t)

			assert.Equal(tc.duty, tc.level.Duty())
			assert.Equal(tc.str, tc.level.String())
		})
	}
}
