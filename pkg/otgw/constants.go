// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package otgw decodes the serial line protocol of an OpenTherm Gateway.
//
// The gateway sits between a thermostat and a boiler and prints every
// frame it sees as one line of text:
//
//	T80190000    thermostat to gateway
//	B40193780    boiler to gateway
//	R80190000    gateway to boiler (a request it inserted or altered)
//	A40193780    gateway to thermostat (an answer it altered)
//
// Commands are sent as "XX=value" lines and answered with "XX: result".
package otgw

// Source identifies who put a frame on the wire
type Source byte

// Frame sources
const (
	SourceThermostat Source = 'T'
	SourceBoiler     Source = 'B'
	SourceRequest    Source = 'R'
	SourceAnswer     Source = 'A'
	SourceText       Source = 0 // gateway message, not a frame
)

// Line limits
const (
	MaxLineLength = 128
	frameLineLen  = 9 // source + 8 hex digits
)

// DefaultBaudRate is the fixed serial speed of the gateway firmware
const DefaultBaudRate = 9600

// String returns a short name for the source
func (s Source) String() string {
	switch s {
	case SourceThermostat:
		return "thermostat"
	case SourceBoiler:
		return "boiler"
	case SourceRequest:
		return "gw-request"
	case SourceAnswer:
		return "gw-answer"
	case SourceText:
		return "text"
	default:
		return "unknown"
	}
}

// IsRequest reports whether frames from this source travel master to slave
func (s Source) IsRequest() bool {
	return s == SourceThermostat || s == SourceRequest
}
