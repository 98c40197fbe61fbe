// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package otsim

import "github.com/Thermoquad/otlink/pkg/opentherm"

// DefaultTick is the virtual time that passes between two master polls
const DefaultTick = 1000

// Simulator runs a master link against a simulated boiler on one
// goroutine. The master's yield advances the clock and lets the boiler
// run, so SendRequest completes without real time passing.
type Simulator struct {
	Wire   *Wire
	Boiler *Boiler
	Tick   uint32
}

// New creates a wire with a running boiler on its slave side
func New(opts ...BoilerOption) (*Simulator, error) {
	w := NewWire()
	b, err := NewBoiler(w, opts...)
	if err != nil {
		return nil, err
	}
	return &Simulator{Wire: w, Boiler: b, Tick: DefaultTick}, nil
}

// Clock returns the shared virtual clock
func (s *Simulator) Clock() *Clock {
	return s.Wire.Clock
}

// Yield advances the clock by one tick and steps the boiler
func (s *Simulator) Yield() {
	s.Wire.Clock.Advance(s.Tick)
	s.Boiler.Step()
}

// NewMaster creates a master link on the controller side of the wire. It
// still has to be started with Begin.
func (s *Simulator) NewMaster(opts ...opentherm.Option) *opentherm.Link {
	in, out := s.Wire.MasterPins()
	opts = append([]opentherm.Option{opentherm.WithYield(s.Yield)}, opts...)
	return opentherm.New(in, out, s.Wire.Clock, opentherm.Master, opts...)
}
