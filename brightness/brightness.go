// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package brightness

import (
	"fmt"
	"math"

	"periph.io/x/conn/v3/gpio"
)

const (
	// Off is the level of a fully dark output.
	Off Level = 0

	// Full is the level of a fully lit output.
	Full Level = 255

	// onThreshold is the highest level a binary channel still treats as off.
	onThreshold Level = 127
)

// Level is a clamped output intensity in the range [0, 255].
type Level uint8

// FromSignal maps a control signal linearly from [-1.0, 1.0] to [0, 255]
// without clamping.  A y of -1 is 0, a y of 1 is 255.  Signals outside of
// the nominal range produce intensities outside of [0, 255].
func FromSignal(y float64) int {
	v := math.Round(127.5 * (y + 1))

	switch {
	case math.IsNaN(v):
		return 0
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	}

	return int(v)
}

// Clamp saturates an intensity into a Level.
func Clamp(intensity int) Level {
	if intensity < int(Off) {
		return Off
	}
	if intensity > int(Full) {
		return Full
	}
	return Level(intensity)
}

// Saturated reports if the intensity needed clamping.
func Saturated(intensity int) bool {
	return intensity < int(Off) || int(Full) < intensity
}

// On is how a channel that only supports on/off output interprets the level.
func (l Level) On() bool {
	return l > onThreshold
}

// Duty returns the level as a PWM duty cycle.
func (l Level) Duty() gpio.Duty {
	return gpio.Duty(int64(gpio.DutyMax) * int64(l) / int64(Full))
}

// String returns the level formatted as a fraction of full.
func (l Level) String() string {
	return fmt.Sprintf("%d/%d", l, Full)
}
