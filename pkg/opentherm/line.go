// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package opentherm

// Level is the logical state of the wire. Mapping to an electrical level
// (line low means active on the reference hardware) belongs to the Pin.
type Level uint8

// Line levels
const (
	LevelIdle Level = iota
	LevelActive
)

// Pin is the line driver used by a link: one input pin sensing the wire
// and one output pin driving it.
type Pin interface {
	ConfigureInput() error
	ConfigureOutput() error
	Set(level Level)
	Get() Level

	// SetInterrupt registers handler to run on both rising and falling
	// edges. The handler runs in interrupt context and must not block.
	SetInterrupt(handler func()) error
	DisableInterrupt() error
}

// Clock supplies the monotonic microsecond time base and the busy-wait
// delays used for bit timing.
type Clock interface {
	// Micros returns a free-running microsecond counter. It wraps at 2^32.
	Micros() uint32
	DelayMicros(us uint32)
	DelayMillis(ms uint32)
}
