// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package opentherm

// Transmitter drives a frame onto the wire as 34 Manchester-coded bits:
// a start bit, 32 data bits MSB first and a stop bit. Start and stop are
// always 1.
type Transmitter struct {
	out   Pin
	clock Clock
}

// NewTransmitter creates a transmitter on the given output pin
func NewTransmitter(out Pin, clock Clock) *Transmitter {
	return &Transmitter{out: out, clock: clock}
}

// SendFrame blocks for the whole frame (about 34 ms) and leaves the line
// idle. It cannot be interrupted part way.
func (t *Transmitter) SendFrame(f Frame) {
	t.sendBit(true)
	for i := frameBits - 1; i >= 0; i-- {
		t.sendBit(uint32(f)&(1<<uint(i)) != 0)
	}
	t.sendBit(true)
	t.Idle()
}

// Idle releases the line
func (t *Transmitter) Idle() {
	t.out.Set(LevelIdle)
}

// A 1 is active then idle, a 0 is idle then active.
func (t *Transmitter) sendBit(one bool) {
	first, second := LevelIdle, LevelActive
	if one {
		first, second = LevelActive, LevelIdle
	}
	t.out.Set(first)
	t.clock.DelayMicros(BitHalfPeriod)
	t.out.Set(second)
	t.clock.DelayMicros(BitHalfPeriod)
}
