// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package otsim

import (
	"log"

	"github.com/Thermoquad/otlink/pkg/opentherm"
)

// DefaultResponseDelay is how long the boiler waits before answering, in
// microseconds. OpenTherm slaves answer between 20 and 800 ms.
const DefaultResponseDelay = 20000

// Boiler is a slave link backed by a table of data-id values
type Boiler struct {
	link     *opentherm.Link
	linkOpts []opentherm.Option
	clock    *Clock

	values        map[opentherm.DataID]uint16
	slaveFlags    uint8
	ResponseDelay uint32

	// Fault injection
	Silent        bool // never answer
	CorruptParity bool // flip the parity bit of every answer

	Requests []opentherm.Frame // every request received, valid or not

	pending   bool
	request   opentherm.Frame
	requestAt uint32
}

// BoilerOption configures a Boiler
type BoilerOption func(*Boiler)

// WithValue preloads a data-id with a raw payload
func WithValue(id opentherm.DataID, data uint16) BoilerOption {
	return func(b *Boiler) {
		b.values[id] = data
	}
}

// WithLogger logs the boiler's side of every exchange
func WithLogger(logger *log.Logger) BoilerOption {
	return func(b *Boiler) {
		b.linkOpts = append(b.linkOpts, opentherm.WithLogger(logger))
	}
}

// NewBoiler attaches a boiler to the slave side of the wire and starts it
func NewBoiler(w *Wire, opts ...BoilerOption) (*Boiler, error) {
	in, out := w.SlavePins()
	b := &Boiler{
		clock:         w.Clock,
		values:        defaultValues(),
		slaveFlags:    opentherm.SlaveCHActive | opentherm.SlaveFlameOn,
		ResponseDelay: DefaultResponseDelay,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.link = opentherm.New(in, out, w.Clock, opentherm.Slave, b.linkOpts...)
	if err := b.link.Begin(b.onRequest); err != nil {
		return nil, err
	}
	return b, nil
}

func defaultValues() map[opentherm.DataID]uint16 {
	return map[opentherm.DataID]uint16{
		opentherm.MsgTSet:                   opentherm.FloatToData(60),
		opentherm.MsgSConfigMemberID:        0x0100,
		opentherm.MsgASFFlags:               0x0000,
		opentherm.MsgMaxCapacityMinModLevel: 0x180A,
		opentherm.MsgRelModLevel:            opentherm.FloatToData(35),
		opentherm.MsgCHPressure:             opentherm.FloatToData(1.5),
		opentherm.MsgTBoiler:                opentherm.FloatToData(55.5),
		opentherm.MsgTDHW:                   opentherm.FloatToData(48),
		opentherm.MsgTOutside:               opentherm.FloatToData(-3.25),
		opentherm.MsgTRet:                   opentherm.FloatToData(40),
		opentherm.MsgTDHWSetBounds:          0x3C28,
		opentherm.MsgMaxTSetBounds:          0x5014,
		opentherm.MsgTDHWSet:                opentherm.FloatToData(50),
		opentherm.MsgMaxTSet:                opentherm.FloatToData(80),
		opentherm.MsgBurnerStarts:           1234,
		opentherm.MsgBurnerOperationHours:   5678,
		opentherm.MsgOpenThermVersionSlave:  opentherm.FloatToData(2.2),
		opentherm.MsgSlaveVersion:           0x0101,
	}
}

// Link returns the boiler's slave link
func (b *Boiler) Link() *opentherm.Link {
	return b.link
}

// Value returns the stored payload of a data-id
func (b *Boiler) Value(id opentherm.DataID) (uint16, bool) {
	v, ok := b.values[id]
	return v, ok
}

// SetValue stores a raw payload for a data-id
func (b *Boiler) SetValue(id opentherm.DataID, data uint16) {
	b.values[id] = data
}

// SetFlags replaces the slave status flags reported for MsgStatus
func (b *Boiler) SetFlags(flags uint8) {
	b.slaveFlags = flags
}

// Step polls the slave link and sends a due answer
func (b *Boiler) Step() {
	b.link.Poll()
	if b.pending && b.clock.Micros()-b.requestAt >= b.ResponseDelay {
		b.pending = false
		b.link.SendResponse(b.Respond(b.request))
	}
}

func (b *Boiler) onRequest(request opentherm.Frame, status opentherm.ResponseStatus) {
	if status == opentherm.ResponseTimeout {
		return
	}
	b.Requests = append(b.Requests, request)
	if status != opentherm.ResponseSuccess || b.Silent {
		return
	}
	b.pending = true
	b.request = request
	b.requestAt = b.clock.Micros()
}

// Respond computes the answer to a valid request
func (b *Boiler) Respond(request opentherm.Frame) opentherm.Frame {
	id := request.DataID()
	var response opentherm.Frame

	switch {
	case id == opentherm.MsgStatus:
		data := uint16(request.HighByte())<<8 | uint16(b.slaveFlags)
		response = opentherm.BuildResponse(opentherm.ReadAck, id, data)

	case request.MessageType() == opentherm.WriteData:
		if _, ok := b.values[id]; !ok && !id.Known() {
			response = opentherm.BuildResponse(opentherm.UnknownDataID, id, request.UInt16())
			break
		}
		b.values[id] = request.UInt16()
		response = opentherm.BuildResponse(opentherm.WriteAck, id, request.UInt16())

	default:
		data, ok := b.values[id]
		if !ok {
			response = opentherm.BuildResponse(opentherm.UnknownDataID, id, request.UInt16())
			break
		}
		response = opentherm.BuildResponse(opentherm.ReadAck, id, data)
	}

	if b.CorruptParity {
		response ^= 1 << 31
	}
	return response
}
