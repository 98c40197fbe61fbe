// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package opentherm

// Request builders for the exchanges a thermostat runs every cycle, and
// accessors for the fields of their answers.

// BuildSetBoilerStatusRequest creates the master status request (id 0).
// The enable flags go into the master byte.
func BuildSetBoilerStatusRequest(centralHeating, hotWater, cooling, outsideTempCompensation, centralHeating2 bool) Frame {
	var flags uint16
	if centralHeating {
		flags |= MasterCHEnable
	}
	if hotWater {
		flags |= MasterDHWEnable
	}
	if cooling {
		flags |= MasterCoolingEnable
	}
	if outsideTempCompensation {
		flags |= MasterOTCActive
	}
	if centralHeating2 {
		flags |= MasterCH2Enable
	}
	return BuildRequest(ReadData, MsgStatus, flags<<8)
}

// BuildSetBoilerTemperatureRequest writes the CH water setpoint (id 1)
func BuildSetBoilerTemperatureRequest(temperature float64) Frame {
	return BuildRequest(WriteData, MsgTSet, TemperatureToData(temperature))
}

// BuildGetBoilerTemperatureRequest reads the boiler flow temperature (id 25)
func BuildGetBoilerTemperatureRequest() Frame {
	return BuildRequest(ReadData, MsgTBoiler, 0)
}

// IsFault reports the slave fault flag of a status response
func IsFault(response Frame) bool {
	return response.LowByte()&SlaveFault != 0
}

// IsCentralHeatingActive reports the slave CH mode flag
func IsCentralHeatingActive(response Frame) bool {
	return response.LowByte()&SlaveCHActive != 0
}

// IsHotWaterActive reports the slave DHW mode flag
func IsHotWaterActive(response Frame) bool {
	return response.LowByte()&SlaveDHWActive != 0
}

// IsFlameOn reports the slave flame flag
func IsFlameOn(response Frame) bool {
	return response.LowByte()&SlaveFlameOn != 0
}

// IsCoolingActive reports the slave cooling flag
func IsCoolingActive(response Frame) bool {
	return response.LowByte()&SlaveCoolingActive != 0
}

// IsDiagnostic reports the slave diagnostic indication
func IsDiagnostic(response Frame) bool {
	return response.LowByte()&SlaveDiagnostic != 0
}

// SetBoilerStatus sends the master status and returns the boiler's answer
// (0 on failure)
func (l *Link) SetBoilerStatus(centralHeating, hotWater, cooling, outsideTempCompensation, centralHeating2 bool) Frame {
	return l.SendRequest(BuildSetBoilerStatusRequest(centralHeating, hotWater, cooling, outsideTempCompensation, centralHeating2))
}

// SetBoilerTemperature writes the CH setpoint and reports whether the boiler
// acknowledged it
func (l *Link) SetBoilerTemperature(temperature float64) bool {
	return IsValidResponse(l.SendRequest(BuildSetBoilerTemperatureRequest(temperature)))
}

// BoilerTemperature reads the flow temperature, 0 on failure
func (l *Link) BoilerTemperature() float64 {
	return l.readFloat(MsgTBoiler)
}

// ReturnTemperature reads the return water temperature, 0 on failure
func (l *Link) ReturnTemperature() float64 {
	return l.readFloat(MsgTRet)
}

// Modulation reads the relative modulation level in percent, 0 on failure
func (l *Link) Modulation() float64 {
	return l.readFloat(MsgRelModLevel)
}

// Pressure reads the CH water pressure in bar, 0 on failure
func (l *Link) Pressure() float64 {
	return l.readFloat(MsgCHPressure)
}

// Fault reads the application-specific fault flags byte
func (l *Link) Fault() uint8 {
	return l.SendRequest(BuildRequest(ReadData, MsgASFFlags, 0)).HighByte()
}

func (l *Link) readFloat(id DataID) float64 {
	response := l.SendRequest(BuildRequest(ReadData, id, 0))
	if !IsValidResponse(response) {
		return 0
	}
	return response.Float()
}
