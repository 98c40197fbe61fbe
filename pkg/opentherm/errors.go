// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package opentherm

import "errors"

var (
	ErrAlreadyStarted = errors.New("opentherm: link already started")
	ErrNotInitialized = errors.New("opentherm: link not initialized")
)
