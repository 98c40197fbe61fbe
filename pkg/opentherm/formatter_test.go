// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package opentherm

import (
	"strings"
	"testing"
)

func TestMessageTypeString(t *testing.T) {
	tests := []struct {
		mt   MessageType
		want string
	}{
		{ReadData, "READ_DATA"},
		{WriteAck, "WRITE_ACK"},
		{UnknownDataID, "UNKNOWN_DATA_ID"},
		{MessageType(9), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.mt.String(); got != tt.want {
			t.Errorf("MessageType(%d).String() = %q, want %q", tt.mt, got, tt.want)
		}
	}
}

func TestStatusString(t *testing.T) {
	if StatusResponseStartBit.String() != "RESPONSE_START_BIT" {
		t.Errorf("got %q", StatusResponseStartBit.String())
	}
	if StatusDelay.String() != "DELAY" {
		t.Errorf("got %q", StatusDelay.String())
	}
	if ResponseTimeout.String() != "TIMEOUT" {
		t.Errorf("got %q", ResponseTimeout.String())
	}
}

func TestDataIDString(t *testing.T) {
	if MsgTBoiler.String() != "TBOILER" {
		t.Errorf("got %q", MsgTBoiler.String())
	}
	if DataID(200).String() != "ID_200" {
		t.Errorf("got %q", DataID(200).String())
	}
	if DataID(40).Known() {
		t.Error("id 40 reported as known")
	}
	if MsgCHPressure.Kind() != KindF88 {
		t.Errorf("kind = %d", MsgCHPressure.Kind())
	}
}

func TestFormatPayload(t *testing.T) {
	tests := []struct {
		id   DataID
		data uint16
		want string
	}{
		{MsgTBoiler, 0x3780, "55.50 °C"},
		{MsgCHPressure, 0x0180, "1.50 bar"},
		{MsgBurnerStarts, 1234, "1234"},
		{MsgTExhaust, 0xFFF6, "-10 °C"},
		{MsgTDHWSetBounds, 0x3C28, "60/40 °C"},
		{MsgStatus, 0x030A, "00000011/00001010"},
		{MsgASFFlags, 0x0107, "00000001/7"},
		{DataID(200), 0xBEEF, "0xBEEF"},
	}
	for _, tt := range tests {
		if got := FormatPayload(tt.id, tt.data); got != tt.want {
			t.Errorf("FormatPayload(%s, %04X) = %q, want %q", tt.id, tt.data, got, tt.want)
		}
	}
}

func TestFormatFrameShort(t *testing.T) {
	got := FormatFrameShort(BuildResponse(ReadAck, MsgTBoiler, 0x1234))
	want := "C0191234 READ_ACK TBOILER 18.20 °C"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatFrame(t *testing.T) {
	out := FormatFrame(BuildResponse(ReadAck, MsgStatus, 0x030A))
	for _, want := range []string{"READ_ACK (4)", "STATUS (0)", "Parity: OK", "Master: CH=on DHW=on", "Flame=on"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	bad := FormatFrame(BuildResponse(ReadAck, MsgTBoiler, 0) ^ parityBit)
	if !strings.Contains(bad, "Parity: ERROR") {
		t.Errorf("parity error not shown:\n%s", bad)
	}
}

func TestParseMessageType(t *testing.T) {
	tests := []struct {
		in      string
		want    MessageType
		wantErr bool
	}{
		{"READ_DATA", ReadData, false},
		{"write_data", WriteData, false},
		{"5", WriteAck, false},
		{"8", 0, true},
		{"BOGUS", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMessageType(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMessageType(%q) = %s, %v", tt.in, got, err)
		}
	}
}

func TestParseDataID(t *testing.T) {
	tests := []struct {
		in      string
		want    DataID
		wantErr bool
	}{
		{"TBOILER", MsgTBoiler, false},
		{"ch_pressure", MsgCHPressure, false},
		{"25", MsgTBoiler, false},
		{"0x7F", MsgSlaveVersion, false},
		{"200", DataID(200), false},
		{"256", 0, true},
		{"NOPE", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDataID(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseDataID(%q) = %d, %v", tt.in, got, err)
		}
	}
}
