// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSine(t *testing.T) {
	tests := []struct {
		description string
		cfg         SineConfig
		amplitude   float64
		expectErr   error
	}{
		{
			description: "basic test",
			cfg:         SineConfig{InferencesPerCycle: 20},
			amplitude:   1.0,
		}, {
			description: "larger amplitude",
			cfg:         SineConfig{InferencesPerCycle: 20, Amplitude: 2.5},
			amplitude:   2.5,
		}, {
			description: "no points per cycle",
			expectErr:   ErrInvalidParameter,
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert := assert.New(t)

			s, err := NewSine(tc.cfg)

			if tc.expectErr != nil {
				assert.ErrorIs(err, tc.expectErr)
				assert.Nil(s)
				return
			}

			assert.NoError(err)
			assert.Equal(tc.amplitude, s.amplitude)
		})
	}
}

func TestSineNext(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	s, err := NewSine(SineConfig{InferencesPerCycle: 4})
	require.NoError(err)

	expect := []struct {
		x float64
		y float64
	}{
		{x: 0, y: 0},
		{x: math.Pi / 2, y: 1},
		{x: math.Pi, y: 0},
		{x: 3 * math.Pi / 2, y: -1},
		{x: 0, y: 0}, // wrapped
		{x: math.Pi / 2, y: 1},
	}

	for _, e := range expect {
		x, y := s.Next()
		assert.InDelta(e.x, x, 1e-9)
		assert.InDelta(e.y, y, 1e-9)
	}
}
