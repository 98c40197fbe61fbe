// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package opentherm

import "time"

// SystemClock is a Clock backed by the runtime monotonic clock.
// Delays spin instead of sleeping so a bit phase is not stretched by the
// scheduler's timer resolution.
type SystemClock struct {
	epoch time.Time
}

// NewSystemClock creates a clock whose counter starts at zero
func NewSystemClock() *SystemClock {
	return &SystemClock{epoch: time.Now()}
}

// Micros implements Clock
func (c *SystemClock) Micros() uint32 {
	return uint32(time.Since(c.epoch).Microseconds())
}

// DelayMicros implements Clock
func (c *SystemClock) DelayMicros(us uint32) {
	deadline := time.Now().Add(time.Duration(us) * time.Microsecond)
	for time.Now().Before(deadline) {
	}
}

// DelayMillis implements Clock
func (c *SystemClock) DelayMillis(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}
