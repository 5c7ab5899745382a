// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package freeroam

import "errors"

var (
	ErrFrameTooLong      = errors.New("frame too long")
	ErrUnrecognized      = errors.New("unrecognized packet")
	ErrChecksumMismatch  = errors.New("checksum mismatch")
	ErrIdentityMismatch  = errors.New("init burst identities disagree")
	ErrInvalidMACAddress = errors.New("invalid MAC address")
)
