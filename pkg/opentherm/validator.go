// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package opentherm

import "fmt"

// AnomalyType represents different types of frame anomalies
type AnomalyType int

const (
	AnomalyParityError AnomalyType = iota
	AnomalyIllegalType
	AnomalySpareBits
	AnomalyUnknownDataID
	AnomalyInvalidTemp
	AnomalyInvalidModulation
	AnomalyInvalidPressure
)

// ValidationError represents a frame validation failure
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateFrame checks the structure of a frame and the plausibility of
// its value. Returns a slice of validation errors (empty if frame is valid)
func ValidateFrame(f Frame) []ValidationError {
	errors := []ValidationError{}

	if Parity(f) {
		errors = append(errors, ValidationError{
			Type:    AnomalyParityError,
			Message: fmt.Sprintf("Parity error in frame %08X", uint32(f)),
			Details: map[string]interface{}{"frame": uint32(f)},
		})
	}

	if t := f.MessageType(); t == Reserved || t == InvalidData {
		errors = append(errors, ValidationError{
			Type:    AnomalyIllegalType,
			Message: fmt.Sprintf("Illegal message type %s", t),
			Details: map[string]interface{}{"type": uint8(t)},
		})
	}

	if spare := uint32(f) & spareMask; spare != 0 {
		errors = append(errors, ValidationError{
			Type:    AnomalySpareBits,
			Message: fmt.Sprintf("Spare bits set (0x%08X)", spare),
			Details: map[string]interface{}{"spare": spare},
		})
	}

	id := f.DataID()
	if !id.Known() {
		return append(errors, ValidationError{
			Type:    AnomalyUnknownDataID,
			Message: fmt.Sprintf("Unknown data-id %d", uint8(id)),
			Details: map[string]interface{}{"id": uint8(id)},
		})
	}

	// Only acknowledged values and written values carry meaningful data
	switch f.MessageType() {
	case ReadAck, WriteAck, WriteData:
		errors = append(errors, validateValue(id, f)...)
	}

	return errors
}

func validateValue(id DataID, f Frame) []ValidationError {
	switch id {
	case MsgTSet, MsgTSetCH2, MsgTBoiler, MsgTDHW, MsgTRet, MsgTFlowCH2,
		MsgTDHW2, MsgTStorage, MsgTDHWSet, MsgMaxTSet, MsgTr, MsgTrSet,
		MsgTOutside:
		temp := f.Float()
		if temp < -40.0 || temp > 127.0 {
			return []ValidationError{{
				Type:    AnomalyInvalidTemp,
				Message: fmt.Sprintf("Temperature out of range (%.1f°C, valid: -40 to 127°C)", temp),
				Details: map[string]interface{}{"value": temp, "min": -40.0, "max": 127.0},
			}}
		}

	case MsgRelModLevel, MsgMaxRelModLevelSetting:
		level := f.Float()
		if level < 0 || level > 100 {
			return []ValidationError{{
				Type:    AnomalyInvalidModulation,
				Message: fmt.Sprintf("Modulation out of range (%.1f%%, valid: 0 to 100%%)", level),
				Details: map[string]interface{}{"value": level, "min": 0.0, "max": 100.0},
			}}
		}

	case MsgCHPressure:
		pressure := f.Float()
		if pressure < 0 || pressure > 5 {
			return []ValidationError{{
				Type:    AnomalyInvalidPressure,
				Message: fmt.Sprintf("Pressure out of range (%.2f bar, valid: 0 to 5 bar)", pressure),
				Details: map[string]interface{}{"value": pressure, "min": 0.0, "max": 5.0},
			}}
		}
	}
	return nil
}
