// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package otsim

import (
	"sync"

	"github.com/Thermoquad/otlink/pkg/opentherm"
)

// Edge is one recorded level change
type Edge struct {
	Level  opentherm.Level
	Micros uint32
}

// Line is one direction of the wire: any number of output pins drive it
// and every input pin with an interrupt is notified on each change.
type Line struct {
	mu       sync.Mutex
	clock    *Clock
	level    opentherm.Level
	inputs   []*Pin
	watchers []func(Edge)
}

// NewLine creates an idle line timed by clock
func NewLine(clock *Clock) *Line {
	return &Line{clock: clock, level: opentherm.LevelIdle}
}

// Level returns the current line level
func (l *Line) Level() opentherm.Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Watch registers fn to observe every edge, after input handlers ran
func (l *Line) Watch(fn func(Edge)) {
	l.mu.Lock()
	l.watchers = append(l.watchers, fn)
	l.mu.Unlock()
}

// Output returns a pin that drives this line
func (l *Line) Output() *Pin {
	return &Pin{line: l, output: true}
}

// Input returns a pin that senses this line
func (l *Line) Input() *Pin {
	p := &Pin{line: l}
	l.mu.Lock()
	l.inputs = append(l.inputs, p)
	l.mu.Unlock()
	return p
}

func (l *Line) drive(level opentherm.Level) {
	l.mu.Lock()
	if l.level == level {
		l.mu.Unlock()
		return
	}
	l.level = level
	edge := Edge{Level: level, Micros: l.clock.Micros()}
	handlers := make([]func(), 0, len(l.inputs))
	for _, in := range l.inputs {
		if h := in.interrupt(); h != nil {
			handlers = append(handlers, h)
		}
	}
	watchers := append([]func(Edge){}, l.watchers...)
	l.mu.Unlock()

	for _, h := range handlers {
		h()
	}
	for _, w := range watchers {
		w(edge)
	}
}

// Pin implements opentherm.Pin on a simulated line
type Pin struct {
	line   *Line
	output bool

	mu         sync.Mutex
	handler    func()
	configured bool
}

// ConfigureInput implements opentherm.Pin
func (p *Pin) ConfigureInput() error {
	p.mu.Lock()
	p.configured = true
	p.mu.Unlock()
	return nil
}

// ConfigureOutput implements opentherm.Pin
func (p *Pin) ConfigureOutput() error {
	p.mu.Lock()
	p.configured = true
	p.mu.Unlock()
	return nil
}

// Set implements opentherm.Pin. Input pins ignore it.
func (p *Pin) Set(level opentherm.Level) {
	if p.output {
		p.line.drive(level)
	}
}

// Get implements opentherm.Pin
func (p *Pin) Get() opentherm.Level {
	return p.line.Level()
}

// SetInterrupt implements opentherm.Pin
func (p *Pin) SetInterrupt(handler func()) error {
	p.mu.Lock()
	p.handler = handler
	p.mu.Unlock()
	return nil
}

// DisableInterrupt implements opentherm.Pin
func (p *Pin) DisableInterrupt() error {
	return p.SetInterrupt(nil)
}

// Configured reports whether the link configured this pin
func (p *Pin) Configured() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.configured
}

func (p *Pin) interrupt() func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handler
}

// Wire is the two-way link between a master and a boiler
type Wire struct {
	Clock *Clock

	// Downstream carries master requests, Upstream boiler responses
	Downstream *Line
	Upstream   *Line
}

// NewWire creates an idle wire on a fresh clock
func NewWire() *Wire {
	clock := NewClock()
	return &Wire{
		Clock:      clock,
		Downstream: NewLine(clock),
		Upstream:   NewLine(clock),
	}
}

// MasterPins returns the input and output pins of the controller side
func (w *Wire) MasterPins() (in, out *Pin) {
	return w.Upstream.Input(), w.Downstream.Output()
}

// SlavePins returns the input and output pins of the boiler side
func (w *Wire) SlavePins() (in, out *Pin) {
	return w.Downstream.Input(), w.Upstream.Output()
}
