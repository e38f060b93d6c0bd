// SPDX-FileCopyrightText: 2022 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"testing"

	"github.com/schmidtw/glowworm/brightness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/devices/v3/tca95xx"
)

func TestExpander(t *testing.T) {
	tests := []struct {
		description string
		bit         int
		openErr     error
		connectErr  error
		outErr      error
		expectErr   error
	}{
		{
			description: "basic test",
			bit:         1,
		}, {
			description: "open fails",
			openErr:     errUnknown,
			expectErr:   errUnknown,
		}, {
			description: "connect fails",
			connectErr:  errUnknown,
			expectErr:   errUnknown,
		}, {
			description: "the bit is not on the expander",
			bit:         5,
			expectErr:   ErrInvalidPin,
		}, {
			description: "driving the pin low fails",
			outErr:      errUnknown,
			expectErr:   errUnknown,
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			e, err := newExpander(Config{
				I2cFile: "/fake/i2c",
				Address: 0x23,
				Bit:     tc.bit,
			}, zap.NewNop())
			require.NoError(err)
			require.NotNil(e)

			w := new(mockWrapper)
			p0 := new(mockPinIO)
			p1 := new(mockPinIO)
			pins := [][]tca95xx.Pin{{p0, p1}}

			w.On("Open", "/fake/i2c").Return(tc.openErr).Once()
			if tc.openErr == nil {
				w.On("Connect", tca95xx.TCA9534, 0x23).Return(pins, tc.connectErr).Once()
				w.On("Close").Return(nil).Once()
			}
			if tc.openErr == nil && tc.connectErr == nil && tc.bit < 2 {
				p1.On("Out", gpio.Low).Return(tc.outErr).Once()
			}
			e.ioWrapper = w

			err = e.Configure()
			if tc.expectErr != nil {
				assert.ErrorIs(err, tc.expectErr)
				assert.ErrorIs(e.Write(brightness.Full), ErrNotConfigured)
				w.AssertExpectations(t)
				return
			}
			require.NoError(err)
			assert.ErrorIs(e.Configure(), ErrAlreadyConfigured)

			p1.On("Out", gpio.High).Return(nil).Once()
			assert.NoError(e.Write(200))

			p1.On("Out", gpio.Low).Return(nil).Twice()
			assert.NoError(e.Write(100))

			assert.NoError(e.Close())
			assert.NoError(e.Close())

			w.AssertExpectations(t)
			p1.AssertExpectations(t)
			p0.AssertNotCalled(t, "Out", mock.Anything)
		})
	}
}
