// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package otsim simulates an OpenTherm wire on the host: a virtual
// microsecond clock, pins that deliver edges synchronously like an
// interrupt, and a boiler that answers requests.
//
// Nothing here sleeps. Delays move the virtual clock forward, so a full
// exchange including timeouts runs in microseconds of real time.
package otsim

import "sync/atomic"

// Clock is a virtual opentherm.Clock
type Clock struct {
	now atomic.Uint32
}

// NewClock creates a clock at zero
func NewClock() *Clock {
	return &Clock{}
}

// Micros implements opentherm.Clock
func (c *Clock) Micros() uint32 {
	return c.now.Load()
}

// DelayMicros implements opentherm.Clock by advancing time
func (c *Clock) DelayMicros(us uint32) {
	c.Advance(us)
}

// DelayMillis implements opentherm.Clock by advancing time
func (c *Clock) DelayMillis(ms uint32) {
	c.Advance(ms * 1000)
}

// Advance moves the clock forward, wrapping at 2^32 like a hardware counter
func (c *Clock) Advance(us uint32) {
	c.now.Add(us)
}

// Set jumps to an absolute time, for wraparound tests
func (c *Clock) Set(us uint32) {
	c.now.Store(us)
}
