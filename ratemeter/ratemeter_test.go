// SPDX-FileCopyrightText: 2022 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package ratemeter

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

func TestNew(t *testing.T) {
	tests := []struct {
		description    string
		cfg            Config
		marks          int
		markPeriod     time.Duration
		after          time.Duration
		expectListSize int
		rate           physic.Frequency
		expectedErr    error
	}{
		{
			description:    "basic test",
			cfg:            Config{Window: time.Second},
			marks:          150,
			markPeriod:     100 * time.Millisecond,
			expectListSize: 10,
			rate:           10 * physic.Hertz,
		}, {
			description:    "about the default pace",
			cfg:            Config{Window: 990 * time.Millisecond},
			marks:          60,
			markPeriod:     33 * time.Millisecond,
			expectListSize: 30,
			rate:           30303030 * physic.MicroHertz, // 30 in 0.99s
		}, {
			description:    "nothing recent",
			cfg:            Config{Window: time.Second, MaxEventCount: 10},
			marks:          15,
			markPeriod:     time.Millisecond,
			after:          time.Minute,
			expectListSize: 10,
			rate:           0,
		}, {
			description:    "window wider than the default event count",
			cfg:            Config{Window: 20 * time.Second, MaxEventCount: 300},
			marks:          250,
			markPeriod:     100 * time.Millisecond,
			expectListSize: 200,
			rate:           10 * physic.Hertz,
		}, {
			description:    "event count caps the rate",
			cfg:            Config{Window: 20 * time.Second},
			marks:          250,
			markPeriod:     100 * time.Millisecond,
			expectListSize: 100,
			rate:           5 * physic.Hertz,
		}, {
			description: "check the error condition",
			expectedErr: ErrInvalidParameter,
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			mclock := clock.NewMock()

			m, err := New(tc.cfg, UseClock(mclock))

			if tc.expectedErr != nil {
				assert.ErrorIs(err, tc.expectedErr)
				assert.Nil(m)
				return
			}

			require.NotNil(m)

			for i := 0; i < tc.marks; i++ {
				mclock.Add(tc.markPeriod)
				m.Mark()
			}
			mclock.Add(tc.after)

			assert.Equal(tc.expectListSize, m.events.Len())
			assert.Equal(uint64(tc.marks), m.Total())
			assert.Equal(tc.rate, m.Rate())
		})
	}
}
