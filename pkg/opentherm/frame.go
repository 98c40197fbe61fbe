// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package opentherm

import (
	"math"
	"math/bits"
)

// Frame is a raw 32-bit OpenTherm message
//
//	bit 31     parity (even over the whole frame)
//	bits 30-28 message type
//	bits 27-24 spare
//	bits 23-16 data-id
//	bits 15-0  payload
type Frame uint32

// Parity reports whether the frame has an odd number of set bits.
// A correctly built frame always has Parity(f) == false.
func Parity(f Frame) bool {
	return bits.OnesCount32(uint32(f))&1 == 1
}

// GetMessageType extracts the message type field
func GetMessageType(f Frame) MessageType {
	return MessageType((uint32(f) & messageTypeMask) >> messageTypeShft)
}

// GetDataID extracts the data-id field
func GetDataID(f Frame) DataID {
	return DataID((uint32(f) & dataIDMask) >> dataIDShift)
}

// BuildRequest creates a master-to-slave frame. Only WriteData is encoded
// as such; every other type produces a ReadData request.
func BuildRequest(t MessageType, id DataID, data uint16) Frame {
	request := uint32(data)
	if t == WriteData {
		request |= uint32(WriteData) << messageTypeShft
	}
	request |= uint32(id) << dataIDShift
	return withParity(request)
}

// BuildResponse creates a slave-to-master frame carrying the given type
func BuildResponse(t MessageType, id DataID, data uint16) Frame {
	response := uint32(data)
	response |= (uint32(t) << messageTypeShft) & messageTypeMask
	response |= uint32(id) << dataIDShift
	return withParity(response)
}

func withParity(v uint32) Frame {
	if Parity(Frame(v)) {
		v |= parityBit
	}
	return Frame(v)
}

// IsValidRequest reports whether f passes parity and carries a request type
func IsValidRequest(f Frame) bool {
	if Parity(f) {
		return false
	}
	t := GetMessageType(f)
	return t == ReadData || t == WriteData
}

// IsValidResponse reports whether f passes parity and carries an ack type
func IsValidResponse(f Frame) bool {
	if Parity(f) {
		return false
	}
	t := GetMessageType(f)
	return t == ReadAck || t == WriteAck
}

// MessageType returns the frame's message type
func (f Frame) MessageType() MessageType {
	return GetMessageType(f)
}

// DataID returns the frame's data-id
func (f Frame) DataID() DataID {
	return GetDataID(f)
}

// UInt16 returns the payload as an unsigned value
func (f Frame) UInt16() uint16 {
	return uint16(uint32(f) & payloadMask)
}

// Int16 returns the payload as a signed value
func (f Frame) Int16() int16 {
	return int16(f.UInt16())
}

// HighByte returns the upper payload byte (master flags for MsgStatus)
func (f Frame) HighByte() uint8 {
	return uint8(f.UInt16() >> 8)
}

// LowByte returns the lower payload byte (slave flags for MsgStatus)
func (f Frame) LowByte() uint8 {
	return uint8(f.UInt16())
}

// Float returns the payload as a signed 8.8 fixed point value
func (f Frame) Float() float64 {
	return DataToFloat(f.UInt16())
}

// DataToFloat decodes a signed 8.8 fixed point payload
func DataToFloat(data uint16) float64 {
	if data&0x8000 != 0 {
		return -float64(0x10000-uint32(data)) / 256.0
	}
	return float64(data) / 256.0
}

// TemperatureToData encodes a temperature setpoint, clamped to 0-100 °C.
// NaN encodes as 0.
func TemperatureToData(temperature float64) uint16 {
	if math.IsNaN(temperature) || temperature < 0 {
		temperature = 0
	}
	if temperature > 100 {
		temperature = 100
	}
	return uint16(temperature * 256)
}

// FloatToData encodes any value in the signed 8.8 range without clamping
// to the setpoint domain. Values outside -128..127.996 saturate, NaN
// encodes as 0.
func FloatToData(v float64) uint16 {
	if math.IsNaN(v) {
		return 0
	}
	scaled := v * 256
	if scaled > 32767 {
		scaled = 32767
	}
	if scaled < -32768 {
		scaled = -32768
	}
	return uint16(int16(scaled))
}
