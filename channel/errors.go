// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package channel

import "errors"

var (
	ErrUnknownKind        = errors.New("unknown channel kind")
	ErrPinNotFound        = errors.New("pin not found")
	ErrInvalidPin         = errors.New("invalid pin")
	ErrNotConfigured      = errors.New("channel not configured")
	ErrAlreadyConfigured  = errors.New("channel already configured")
	errInvalidState       = errors.New("invalid state")
	errUnsupportedVariant = errors.New("unsupported expander variant")
)
