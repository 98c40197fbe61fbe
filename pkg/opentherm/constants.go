// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package opentherm implements the OpenTherm point-to-point link between a
// heating controller (master) and a boiler (slave).
//
// It provides the 32-bit frame codec, a bit-banged transmitter, an
// edge-driven receive state machine meant to run from a pin interrupt, and
// the polling session that sequences request/response exchanges.
package opentherm

// Bit timing in microseconds
const (
	BitHalfPeriod         = 500     // one phase of a Manchester bit
	SampleThreshold       = 750     // minimum spacing between two sampled edges
	ResponseTimeoutMicros = 1000000 // silence before an exchange is abandoned
	TurnaroundDelay       = 100000  // minimum pause between two exchanges
	ActivationDelay       = 1000    // ms of idle line before the first exchange
)

// Frame layout
const (
	frameBits       = 32
	parityBit       = 1 << 31
	messageTypeMask = 0x70000000
	messageTypeShft = 28
	dataIDMask      = 0x00FF0000
	dataIDShift     = 16
	payloadMask     = 0x0000FFFF
	spareMask       = 0x0F000000
)

// MessageType is the 3-bit message type field of a frame
type MessageType uint8

// Message types - master to slave (0-3), slave to master (4-7)
const (
	ReadData      MessageType = 0
	WriteData     MessageType = 1
	InvalidData   MessageType = 2
	Reserved      MessageType = 3
	ReadAck       MessageType = 4
	WriteAck      MessageType = 5
	DataInvalid   MessageType = 6
	UnknownDataID MessageType = 7
)

// Status is the state of the link session
type Status uint8

// Session states
const (
	StatusNotInitialized Status = iota
	StatusReady
	StatusRequestSending
	StatusResponseWaiting
	StatusResponseStartBit
	StatusResponseReceiving
	StatusResponseReady
	StatusResponseInvalid
	StatusDelay
)

// ResponseStatus is the outcome of a completed exchange
type ResponseStatus uint8

// Exchange outcomes
const (
	ResponseNone ResponseStatus = iota
	ResponseSuccess
	ResponseInvalid
	ResponseTimeout
)

// Role selects which side of the link a session plays
type Role uint8

// Link roles
const (
	Master Role = iota // controller, initiates exchanges
	Slave              // boiler, answers them
)

// DataID selects the parameter a frame refers to
type DataID uint8

// Data-ids - class 1/2: control, configuration and remote commands
const (
	MsgStatus                    DataID = 0
	MsgTSet                      DataID = 1
	MsgMConfigMemberID           DataID = 2
	MsgSConfigMemberID           DataID = 3
	MsgCommand                   DataID = 4
	MsgASFFlags                  DataID = 5
	MsgRBPFlags                  DataID = 6
	MsgCoolingControl            DataID = 7
	MsgTSetCH2                   DataID = 8
	MsgTrOverride                DataID = 9
	MsgTSP                       DataID = 10
	MsgTSPIndexValue             DataID = 11
	MsgFHBSize                   DataID = 12
	MsgFHBIndexValue             DataID = 13
	MsgMaxRelModLevelSetting     DataID = 14
	MsgMaxCapacityMinModLevel    DataID = 15
	MsgTrSet                     DataID = 16
	MsgRelModLevel               DataID = 17
	MsgCHPressure                DataID = 18
	MsgDHWFlowRate               DataID = 19
	MsgDayTime                   DataID = 20
	MsgDate                      DataID = 21
	MsgYear                      DataID = 22
	MsgTrSetCH2                  DataID = 23
	MsgTr                        DataID = 24
	MsgTBoiler                   DataID = 25
	MsgTDHW                      DataID = 26
	MsgTOutside                  DataID = 27
	MsgTRet                      DataID = 28
	MsgTStorage                  DataID = 29
	MsgTCollector                DataID = 30
	MsgTFlowCH2                  DataID = 31
	MsgTDHW2                     DataID = 32
	MsgTExhaust                  DataID = 33
	MsgTBoilerHeatExchanger      DataID = 34
	MsgBoilerFanSpeed            DataID = 35
	MsgFlameCurrent              DataID = 36
	MsgTrCH2                     DataID = 37
	MsgRelativeHumidity          DataID = 38
	MsgTrOverride2               DataID = 39
	MsgTDHWSetBounds             DataID = 48
	MsgMaxTSetBounds             DataID = 49
	MsgHCRatioBounds             DataID = 50
	MsgTDHWSet                   DataID = 56
	MsgMaxTSet                   DataID = 57
	MsgHCRatio                   DataID = 58
	MsgStatusVH                  DataID = 70
	MsgControlSetpointVH         DataID = 71
	MsgASFFaultCodeVH            DataID = 72
	MsgDiagnosticCodeVH          DataID = 73
	MsgConfigMemberIDVH          DataID = 74
	MsgOpenThermVersionVH        DataID = 75
	MsgVersionTypeVH             DataID = 76
	MsgRelativeVentilation       DataID = 77
	MsgRelativeHumidityExhaust   DataID = 78
	MsgCO2LevelExhaust           DataID = 79
	MsgTSupplyInlet              DataID = 80
	MsgTSupplyOutlet             DataID = 81
	MsgTExhaustInlet             DataID = 82
	MsgTExhaustOutlet            DataID = 83
	MsgRPMExhaust                DataID = 84
	MsgRPMSupply                 DataID = 85
	MsgRBPFlagsVH                DataID = 86
	MsgNominalVentilationValue   DataID = 87
	MsgTSPSizeVH                 DataID = 88
	MsgTSPIndexValueVH           DataID = 89
	MsgFHBSizeVH                 DataID = 90
	MsgFHBIndexValueVH           DataID = 91
	MsgBrand                     DataID = 93
	MsgBrandVersion              DataID = 94
	MsgBrandSerialNumber         DataID = 95
	MsgCoolingOperationHours     DataID = 96
	MsgPowerCycles               DataID = 97
	MsgRFSensorStatus            DataID = 98
	MsgRemoteOverrideMode        DataID = 99
	MsgRemoteOverrideFunction    DataID = 100
	MsgSolarStorageStatus        DataID = 101
	MsgSolarStorageASFFlags      DataID = 102
	MsgSolarStorageConfig        DataID = 103
	MsgSolarStorageVersion       DataID = 104
	MsgSolarStorageTSP           DataID = 105
	MsgSolarStorageTSPValue      DataID = 106
	MsgSolarStorageFHBSize       DataID = 107
	MsgSolarStorageFHBValue      DataID = 108
	MsgElectricityProducerStarts DataID = 109
	MsgElectricityProducerHours  DataID = 110
	MsgElectricityProduction     DataID = 111
	MsgCumulativeElectricity     DataID = 112
	MsgUnsuccessfulBurnerStarts  DataID = 113
	MsgFlameSignalTooLow         DataID = 114
	MsgOEMDiagnosticCode         DataID = 115
	MsgBurnerStarts              DataID = 116
	MsgCHPumpStarts              DataID = 117
	MsgDHWPumpValveStarts        DataID = 118
	MsgDHWBurnerStarts           DataID = 119
	MsgBurnerOperationHours      DataID = 120
	MsgCHPumpOperationHours      DataID = 121
	MsgDHWPumpValveHours         DataID = 122
	MsgDHWBurnerOperationHours   DataID = 123
	MsgOpenThermVersionMaster    DataID = 124
	MsgOpenThermVersionSlave     DataID = 125
	MsgMasterVersion             DataID = 126
	MsgSlaveVersion              DataID = 127
)

// PayloadKind describes how the 16-bit payload of a data-id is laid out
type PayloadKind uint8

// Payload kinds
const (
	KindUnknown PayloadKind = iota
	KindFlag8Flag8
	KindFlag8U8
	KindF88
	KindU16
	KindS16
	KindU8U8
	KindS8S8
)

// Status flag bits (MsgStatus, slave byte)
const (
	SlaveFault         = 0x01
	SlaveCHActive      = 0x02
	SlaveDHWActive     = 0x04
	SlaveFlameOn       = 0x08
	SlaveCoolingActive = 0x10
	SlaveCH2Active     = 0x20
	SlaveDiagnostic    = 0x40
)

// Master status flag bits (MsgStatus, master byte)
const (
	MasterCHEnable      = 0x01
	MasterDHWEnable     = 0x02
	MasterCoolingEnable = 0x04
	MasterOTCActive     = 0x08
	MasterCH2Enable     = 0x10
)
