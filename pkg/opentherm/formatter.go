// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package opentherm

import (
	"fmt"
	"strconv"
	"strings"
)

var messageTypeNames = [...]string{
	ReadData:      "READ_DATA",
	WriteData:     "WRITE_DATA",
	InvalidData:   "INVALID_DATA",
	Reserved:      "RESERVED",
	ReadAck:       "READ_ACK",
	WriteAck:      "WRITE_ACK",
	DataInvalid:   "DATA_INVALID",
	UnknownDataID: "UNKNOWN_DATA_ID",
}

var statusNames = [...]string{
	StatusNotInitialized:    "NOT_INITIALIZED",
	StatusReady:             "READY",
	StatusRequestSending:    "REQUEST_SENDING",
	StatusResponseWaiting:   "RESPONSE_WAITING",
	StatusResponseStartBit:  "RESPONSE_START_BIT",
	StatusResponseReceiving: "RESPONSE_RECEIVING",
	StatusResponseReady:     "RESPONSE_READY",
	StatusResponseInvalid:   "RESPONSE_INVALID",
	StatusDelay:             "DELAY",
}

var responseStatusNames = [...]string{
	ResponseNone:    "NONE",
	ResponseSuccess: "SUCCESS",
	ResponseInvalid: "INVALID",
	ResponseTimeout: "TIMEOUT",
}

// String returns the protocol name of the message type
func (t MessageType) String() string {
	if int(t) < len(messageTypeNames) {
		return messageTypeNames[t]
	}
	return "UNKNOWN"
}

// String returns the name of the session state
func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "UNKNOWN"
}

// String returns the name of the exchange outcome
func (s ResponseStatus) String() string {
	if int(s) < len(responseStatusNames) {
		return responseStatusNames[s]
	}
	return "UNKNOWN"
}

// String returns "master" or "slave"
func (r Role) String() string {
	if r == Slave {
		return "slave"
	}
	return "master"
}

type dataIDInfo struct {
	name string
	kind PayloadKind
	unit string
}

var dataIDs = map[DataID]dataIDInfo{
	MsgStatus:                    {"STATUS", KindFlag8Flag8, ""},
	MsgTSet:                      {"TSET", KindF88, "°C"},
	MsgMConfigMemberID:           {"M_CONFIG_M_MEMBERIDCODE", KindFlag8U8, ""},
	MsgSConfigMemberID:           {"S_CONFIG_S_MEMBERIDCODE", KindFlag8U8, ""},
	MsgCommand:                   {"COMMAND", KindU8U8, ""},
	MsgASFFlags:                  {"ASF_FLAGS_OEM_FAULT_CODE", KindFlag8U8, ""},
	MsgRBPFlags:                  {"RBP_FLAGS", KindFlag8Flag8, ""},
	MsgCoolingControl:            {"COOLING_CONTROL", KindF88, "%"},
	MsgTSetCH2:                   {"TSET_CH2", KindF88, "°C"},
	MsgTrOverride:                {"TR_OVERRIDE", KindF88, "°C"},
	MsgTSP:                       {"TSP", KindU8U8, ""},
	MsgTSPIndexValue:             {"TSP_INDEX_TSP_VALUE", KindU8U8, ""},
	MsgFHBSize:                   {"FHB_SIZE", KindU8U8, ""},
	MsgFHBIndexValue:             {"FHB_INDEX_FHB_VALUE", KindU8U8, ""},
	MsgMaxRelModLevelSetting:     {"MAX_REL_MOD_LEVEL_SETTING", KindF88, "%"},
	MsgMaxCapacityMinModLevel:    {"MAX_CAPACITY_MIN_MOD_LEVEL", KindU8U8, ""},
	MsgTrSet:                     {"TR_SET", KindF88, "°C"},
	MsgRelModLevel:               {"REL_MOD_LEVEL", KindF88, "%"},
	MsgCHPressure:                {"CH_PRESSURE", KindF88, "bar"},
	MsgDHWFlowRate:               {"DHW_FLOW_RATE", KindF88, "l/min"},
	MsgDayTime:                   {"DAY_TIME", KindU8U8, ""},
	MsgDate:                      {"DATE", KindU8U8, ""},
	MsgYear:                      {"YEAR", KindU16, ""},
	MsgTrSetCH2:                  {"TR_SET_CH2", KindF88, "°C"},
	MsgTr:                        {"TR", KindF88, "°C"},
	MsgTBoiler:                   {"TBOILER", KindF88, "°C"},
	MsgTDHW:                      {"TDHW", KindF88, "°C"},
	MsgTOutside:                  {"TOUTSIDE", KindF88, "°C"},
	MsgTRet:                      {"TRET", KindF88, "°C"},
	MsgTStorage:                  {"TSTORAGE", KindF88, "°C"},
	MsgTCollector:                {"TCOLLECTOR", KindF88, "°C"},
	MsgTFlowCH2:                  {"TFLOW_CH2", KindF88, "°C"},
	MsgTDHW2:                     {"TDHW2", KindF88, "°C"},
	MsgTExhaust:                  {"TEXHAUST", KindS16, "°C"},
	MsgTBoilerHeatExchanger:      {"TBOILER_HEAT_EXCHANGER", KindF88, "°C"},
	MsgBoilerFanSpeed:            {"BOILER_FAN_SPEED", KindU16, "rpm"},
	MsgFlameCurrent:              {"FLAME_CURRENT", KindF88, "µA"},
	MsgTrCH2:                     {"TR_CH2", KindF88, "°C"},
	MsgRelativeHumidity:          {"RELATIVE_HUMIDITY", KindF88, "%"},
	MsgTrOverride2:               {"TR_OVERRIDE2", KindF88, "°C"},
	MsgTDHWSetBounds:             {"TDHW_SET_UB_TDHW_SET_LB", KindS8S8, "°C"},
	MsgMaxTSetBounds:             {"MAX_TSET_UB_MAX_TSET_LB", KindS8S8, "°C"},
	MsgHCRatioBounds:             {"HCRATIO_UB_HCRATIO_LB", KindS8S8, ""},
	MsgTDHWSet:                   {"TDHW_SET", KindF88, "°C"},
	MsgMaxTSet:                   {"MAX_TSET", KindF88, "°C"},
	MsgHCRatio:                   {"HCRATIO", KindF88, ""},
	MsgStatusVH:                  {"STATUS_VH", KindFlag8Flag8, ""},
	MsgControlSetpointVH:         {"CONTROL_SETPOINT_VH", KindU8U8, ""},
	MsgASFFaultCodeVH:            {"ASF_FAULT_CODE_VH", KindFlag8U8, ""},
	MsgDiagnosticCodeVH:          {"DIAGNOSTIC_CODE_VH", KindU16, ""},
	MsgConfigMemberIDVH:          {"CONFIG_MEMBER_ID_VH", KindFlag8U8, ""},
	MsgOpenThermVersionVH:        {"OPENTHERM_VERSION_VH", KindF88, ""},
	MsgVersionTypeVH:             {"VERSION_TYPE_VH", KindU8U8, ""},
	MsgRelativeVentilation:       {"RELATIVE_VENTILATION", KindU8U8, "%"},
	MsgRelativeHumidityExhaust:   {"RELATIVE_HUMIDITY_EXHAUST", KindU8U8, "%"},
	MsgCO2LevelExhaust:           {"CO2_LEVEL_EXHAUST", KindU16, "ppm"},
	MsgTSupplyInlet:              {"TSUPPLY_INLET", KindF88, "°C"},
	MsgTSupplyOutlet:             {"TSUPPLY_OUTLET", KindF88, "°C"},
	MsgTExhaustInlet:             {"TEXHAUST_INLET", KindF88, "°C"},
	MsgTExhaustOutlet:            {"TEXHAUST_OUTLET", KindF88, "°C"},
	MsgRPMExhaust:                {"RPM_EXHAUST", KindU16, "rpm"},
	MsgRPMSupply:                 {"RPM_SUPPLY", KindU16, "rpm"},
	MsgRBPFlagsVH:                {"RBP_FLAGS_VH", KindFlag8Flag8, ""},
	MsgNominalVentilationValue:   {"NOMINAL_VENTILATION_VALUE", KindU8U8, "%"},
	MsgTSPSizeVH:                 {"TSP_SIZE_VH", KindU8U8, ""},
	MsgTSPIndexValueVH:           {"TSP_INDEX_TSP_VALUE_VH", KindU8U8, ""},
	MsgFHBSizeVH:                 {"FHB_SIZE_VH", KindU8U8, ""},
	MsgFHBIndexValueVH:           {"FHB_INDEX_FHB_VALUE_VH", KindU8U8, ""},
	MsgBrand:                     {"BRAND", KindU8U8, ""},
	MsgBrandVersion:              {"BRAND_VERSION", KindU8U8, ""},
	MsgBrandSerialNumber:         {"BRAND_SERIAL_NUMBER", KindU8U8, ""},
	MsgCoolingOperationHours:     {"COOLING_OPERATION_HOURS", KindU16, "h"},
	MsgPowerCycles:               {"POWER_CYCLES", KindU16, ""},
	MsgRFSensorStatus:            {"RF_SENSOR_STATUS", KindFlag8Flag8, ""},
	MsgRemoteOverrideMode:        {"REMOTE_OVERRIDE_OPERATING_MODE", KindFlag8Flag8, ""},
	MsgRemoteOverrideFunction:    {"REMOTE_OVERRIDE_FUNCTION", KindFlag8Flag8, ""},
	MsgSolarStorageStatus:        {"SOLAR_STORAGE_STATUS", KindFlag8Flag8, ""},
	MsgSolarStorageASFFlags:      {"SOLAR_STORAGE_ASF_FLAGS", KindFlag8U8, ""},
	MsgSolarStorageConfig:        {"SOLAR_STORAGE_CONFIG", KindFlag8U8, ""},
	MsgSolarStorageVersion:       {"SOLAR_STORAGE_VERSION", KindU8U8, ""},
	MsgSolarStorageTSP:           {"SOLAR_STORAGE_TSP", KindU8U8, ""},
	MsgSolarStorageTSPValue:      {"SOLAR_STORAGE_TSP_INDEX_VALUE", KindU8U8, ""},
	MsgSolarStorageFHBSize:       {"SOLAR_STORAGE_FHB_SIZE", KindU8U8, ""},
	MsgSolarStorageFHBValue:      {"SOLAR_STORAGE_FHB_INDEX_VALUE", KindU8U8, ""},
	MsgElectricityProducerStarts: {"ELECTRICITY_PRODUCER_STARTS", KindU16, ""},
	MsgElectricityProducerHours:  {"ELECTRICITY_PRODUCER_HOURS", KindU16, "h"},
	MsgElectricityProduction:     {"ELECTRICITY_PRODUCTION", KindU16, "W"},
	MsgCumulativeElectricity:     {"CUMULATIVE_ELECTRICITY_PRODUCTION", KindU16, "kWh"},
	MsgUnsuccessfulBurnerStarts:  {"UNSUCCESSFUL_BURNER_STARTS", KindU16, ""},
	MsgFlameSignalTooLow:         {"FLAME_SIGNAL_TOO_LOW_COUNT", KindU16, ""},
	MsgOEMDiagnosticCode:         {"OEM_DIAGNOSTIC_CODE", KindU16, ""},
	MsgBurnerStarts:              {"BURNER_STARTS", KindU16, ""},
	MsgCHPumpStarts:              {"CH_PUMP_STARTS", KindU16, ""},
	MsgDHWPumpValveStarts:        {"DHW_PUMP_VALVE_STARTS", KindU16, ""},
	MsgDHWBurnerStarts:           {"DHW_BURNER_STARTS", KindU16, ""},
	MsgBurnerOperationHours:      {"BURNER_OPERATION_HOURS", KindU16, "h"},
	MsgCHPumpOperationHours:      {"CH_PUMP_OPERATION_HOURS", KindU16, "h"},
	MsgDHWPumpValveHours:         {"DHW_PUMP_VALVE_OPERATION_HOURS", KindU16, "h"},
	MsgDHWBurnerOperationHours:   {"DHW_BURNER_OPERATION_HOURS", KindU16, "h"},
	MsgOpenThermVersionMaster:    {"OPENTHERM_VERSION_MASTER", KindF88, ""},
	MsgOpenThermVersionSlave:     {"OPENTHERM_VERSION_SLAVE", KindF88, ""},
	MsgMasterVersion:             {"MASTER_VERSION", KindU8U8, ""},
	MsgSlaveVersion:              {"SLAVE_VERSION", KindU8U8, ""},
}

// String returns the catalog name of the data-id, or "ID_<n>" when the
// id is not defined by the protocol
func (id DataID) String() string {
	if info, ok := dataIDs[id]; ok {
		return info.name
	}
	return fmt.Sprintf("ID_%d", uint8(id))
}

// Known reports whether the data-id is part of the catalog
func (id DataID) Known() bool {
	_, ok := dataIDs[id]
	return ok
}

// Kind returns the documented payload layout for the data-id
func (id DataID) Kind() PayloadKind {
	return dataIDs[id].kind
}

// ParseMessageType accepts a protocol name (READ_DATA, write_ack) or a
// number 0-7
func ParseMessageType(s string) (MessageType, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range messageTypeNames {
		if n == name {
			return MessageType(i), nil
		}
	}
	v, err := strconv.ParseUint(name, 0, 8)
	if err != nil || v > uint64(UnknownDataID) {
		return 0, fmt.Errorf("unknown message type %q", s)
	}
	return MessageType(v), nil
}

// ParseDataID accepts a catalog name (TBOILER) or a number 0-255
func ParseDataID(s string) (DataID, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for id, info := range dataIDs {
		if info.name == name {
			return id, nil
		}
	}
	v, err := strconv.ParseUint(name, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("unknown data-id %q", s)
	}
	return DataID(v), nil
}

// FormatFrameShort renders a frame on one line
func FormatFrameShort(f Frame) string {
	return fmt.Sprintf("%08X %s %s %s", uint32(f), f.MessageType(), f.DataID(), FormatPayload(f.DataID(), f.UInt16()))
}

// FormatFrame renders a frame with its decoded fields
func FormatFrame(f Frame) string {
	parity := "OK"
	if Parity(f) {
		parity = "ERROR"
	}
	result := fmt.Sprintf("%08X %s (%d) id=%s (%d)\n", uint32(f), f.MessageType(), f.MessageType(), f.DataID(), f.DataID())
	result += fmt.Sprintf("  Parity: %s\n", parity)
	result += fmt.Sprintf("  Value: %s\n", FormatPayload(f.DataID(), f.UInt16()))
	if f.DataID() == MsgStatus {
		result += formatStatusFlags(f)
	}
	return result
}

// FormatPayload renders a payload according to the data-id's layout
func FormatPayload(id DataID, data uint16) string {
	info := dataIDs[id]
	unit := ""
	if info.unit != "" {
		unit = " " + info.unit
	}
	hi, lo := uint8(data>>8), uint8(data)

	switch info.kind {
	case KindF88:
		return fmt.Sprintf("%.2f%s", DataToFloat(data), unit)
	case KindU16:
		return fmt.Sprintf("%d%s", data, unit)
	case KindS16:
		return fmt.Sprintf("%d%s", int16(data), unit)
	case KindU8U8:
		return fmt.Sprintf("%d/%d%s", hi, lo, unit)
	case KindS8S8:
		return fmt.Sprintf("%d/%d%s", int8(hi), int8(lo), unit)
	case KindFlag8Flag8:
		return fmt.Sprintf("%08b/%08b", hi, lo)
	case KindFlag8U8:
		return fmt.Sprintf("%08b/%d", hi, lo)
	default:
		return fmt.Sprintf("0x%04X", data)
	}
}

func formatStatusFlags(f Frame) string {
	master, slave := f.HighByte(), f.LowByte()
	onOff := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}
	result := fmt.Sprintf("  Master: CH=%s DHW=%s Cooling=%s OTC=%s CH2=%s\n",
		onOff(master&MasterCHEnable != 0), onOff(master&MasterDHWEnable != 0),
		onOff(master&MasterCoolingEnable != 0), onOff(master&MasterOTCActive != 0),
		onOff(master&MasterCH2Enable != 0))
	result += fmt.Sprintf("  Slave: Fault=%s CH=%s DHW=%s Flame=%s Cooling=%s CH2=%s Diag=%s\n",
		onOff(slave&SlaveFault != 0), onOff(slave&SlaveCHActive != 0),
		onOff(slave&SlaveDHWActive != 0), onOff(slave&SlaveFlameOn != 0),
		onOff(slave&SlaveCoolingActive != 0), onOff(slave&SlaveCH2Active != 0),
		onOff(slave&SlaveDiagnostic != 0))
	return result
}
