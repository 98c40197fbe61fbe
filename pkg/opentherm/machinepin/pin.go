// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build tinygo || baremetal

// Package machinepin adapts TinyGo machine pins to the opentherm line driver.
package machinepin

import (
	"machine"

	"github.com/Thermoquad/otlink/pkg/opentherm"
)

// Pin drives or senses the OpenTherm interface circuit through a GPIO
type Pin struct {
	pin        machine.Pin
	activeHigh bool
}

// NewOutput returns the transmit pin. On the common interface boards the
// output transistor pulls the line, so a low GPIO is the active state.
func NewOutput(pin machine.Pin) *Pin {
	return &Pin{pin: pin, activeHigh: false}
}

// NewInput returns the receive pin. The optocoupler inverts the line, so a
// high GPIO is the active state.
func NewInput(pin machine.Pin) *Pin {
	return &Pin{pin: pin, activeHigh: true}
}

// WithPolarity overrides the active level for boards wired differently
func (p *Pin) WithPolarity(activeHigh bool) *Pin {
	p.activeHigh = activeHigh
	return p
}

// ConfigureInput implements opentherm.Pin
func (p *Pin) ConfigureInput() error {
	p.pin.Configure(machine.PinConfig{Mode: machine.PinInput})
	return nil
}

// ConfigureOutput implements opentherm.Pin
func (p *Pin) ConfigureOutput() error {
	p.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return nil
}

// Set implements opentherm.Pin
func (p *Pin) Set(level opentherm.Level) {
	p.pin.Set((level == opentherm.LevelActive) == p.activeHigh)
}

// Get implements opentherm.Pin
func (p *Pin) Get() opentherm.Level {
	if p.pin.Get() == p.activeHigh {
		return opentherm.LevelActive
	}
	return opentherm.LevelIdle
}

// SetInterrupt implements opentherm.Pin
func (p *Pin) SetInterrupt(handler func()) error {
	return p.pin.SetInterrupt(machine.PinToggle, func(machine.Pin) {
		handler()
	})
}

// DisableInterrupt implements opentherm.Pin
func (p *Pin) DisableInterrupt() error {
	return p.pin.SetInterrupt(0, nil)
}
