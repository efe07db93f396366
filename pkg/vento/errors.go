// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vento

import "errors"

// Decode errors
var (
	ErrInvalidHeader       = errors.New("vento: invalid header")
	ErrInvalidProtocolType = errors.New("vento: invalid protocol type")
	ErrInvalidChecksum     = errors.New("vento: invalid checksum")
	ErrInvalidParameter    = errors.New("vento: invalid parameter")
	ErrTruncated           = errors.New("vento: truncated packet")
)

// Encode errors
var (
	ErrFrameTooLarge     = errors.New("vento: frame too large")
	ErrInvalidCredential = errors.New("vento: invalid credential")
	ErrInvalidValue      = errors.New("vento: invalid value")
)
