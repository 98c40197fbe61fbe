// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Thermoquad/otlink/pkg/capture"
	"github.com/Thermoquad/otlink/pkg/opentherm"
	"github.com/Thermoquad/otlink/pkg/otgw"
)

// ============================================================
// Frame arguments
// ============================================================

func TestParseFrameArg(t *testing.T) {
	tests := []struct {
		arg  string
		want opentherm.Frame
	}{
		{"80190000", 0x80190000},
		{"0x80190000", 0x80190000},
		{"0X00000300", 0x00000300},
		{"T80190000", 0x80190000},
		{"B40193780", 0x40193780},
		{" c0191234 ", 0xC0191234},
	}

	for _, tt := range tests {
		got, err := parseFrameArg(tt.arg)
		if err != nil {
			t.Errorf("parseFrameArg(%q) error: %v", tt.arg, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseFrameArg(%q) = %08X, want %08X", tt.arg, uint32(got), uint32(tt.want))
		}
	}
}

func TestParseFrameArgInvalid(t *testing.T) {
	for _, arg := range []string{"", "XYZ", "Z80190000", "180190000F"} {
		if _, err := parseFrameArg(arg); err == nil {
			t.Errorf("parseFrameArg(%q) expected error", arg)
		}
	}
}

// ============================================================
// Gateway frame classification
// ============================================================

func TestFrameStatus(t *testing.T) {
	request := opentherm.BuildRequest(opentherm.ReadData, opentherm.MsgTBoiler, 0)
	response := opentherm.BuildResponse(opentherm.ReadAck, opentherm.MsgTBoiler, 0x3780)

	tests := []struct {
		name   string
		source otgw.Source
		frame  opentherm.Frame
		want   opentherm.ResponseStatus
	}{
		{"thermostat request", otgw.SourceThermostat, request, opentherm.ResponseSuccess},
		{"gateway request", otgw.SourceRequest, request, opentherm.ResponseSuccess},
		{"boiler answer", otgw.SourceBoiler, response, opentherm.ResponseSuccess},
		{"gateway answer", otgw.SourceAnswer, response, opentherm.ResponseSuccess},
		{"answer from thermostat", otgw.SourceThermostat, response, opentherm.ResponseInvalid},
		{"request from boiler", otgw.SourceBoiler, request, opentherm.ResponseInvalid},
		{"bad parity", otgw.SourceBoiler, response ^ 0x80000000, opentherm.ResponseInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &otgw.Message{Source: tt.source, Frame: tt.frame, Timestamp: time.Now()}
			if got := frameStatus(msg); got != tt.want {
				t.Errorf("frameStatus() = %v, want %v", got, tt.want)
			}
			if ex := exchangeFromMessage(msg); ex.Status != tt.want || ex.Frame != tt.frame {
				t.Errorf("exchangeFromMessage() = %+v", ex)
			}
		})
	}
}

// ============================================================
// Recorder
// ============================================================

func TestRecorderNilIsNoop(t *testing.T) {
	rec, err := openRecorder("")
	if err != nil {
		t.Fatalf("openRecorder(\"\") error: %v", err)
	}
	if rec != nil {
		t.Fatal("expected nil recorder for empty path")
	}
	if err := rec.record(time.Now(), capture.SourceMaster, 0, opentherm.ResponseNone); err != nil {
		t.Errorf("nil record() error: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Errorf("nil Close() error: %v", err)
	}
}

func TestRecorderWritesCapture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "link.cbor")
	rec, err := openRecorder(path)
	if err != nil {
		t.Fatalf("openRecorder() error: %v", err)
	}

	msg, err := otgw.ParseLine("B40193780")
	if err != nil {
		t.Fatalf("ParseLine() error: %v", err)
	}
	if err := rec.recordMessage(msg); err != nil {
		t.Fatalf("recordMessage() error: %v", err)
	}
	if err := rec.record(time.Now(), capture.SourceSlave, 0, opentherm.ResponseTimeout); err != nil {
		t.Fatalf("record() error: %v", err)
	}
	if rec.count != 2 {
		t.Errorf("count = %d, want 2", rec.count)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	records := readCapture(t, path)
	if len(records) != 2 {
		t.Fatalf("read %d records, want 2", len(records))
	}
	if records[0].Source != byte(otgw.SourceBoiler) || records[0].OpenThermFrame() != 0x40193780 {
		t.Errorf("record 0 = %+v", records[0])
	}
	if records[0].ResponseStatus() != opentherm.ResponseSuccess {
		t.Errorf("record 0 status = %v, want SUCCESS", records[0].ResponseStatus())
	}
	if records[1].ResponseStatus() != opentherm.ResponseTimeout {
		t.Errorf("record 1 status = %v, want TIMEOUT", records[1].ResponseStatus())
	}
}

func readCapture(t *testing.T, path string) []capture.Record {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open capture: %v", err)
	}
	defer f.Close()

	r, err := capture.NewReader(f)
	if err != nil {
		t.Fatalf("NewReader() error: %v", err)
	}
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	return records
}

// ============================================================
// Source names
// ============================================================

func TestSourceName(t *testing.T) {
	tests := []struct {
		source byte
		want   string
	}{
		{capture.SourceMaster, "master"},
		{capture.SourceSlave, "slave"},
		{byte(otgw.SourceBoiler), otgw.SourceBoiler.String()},
	}
	for _, tt := range tests {
		if got := sourceName(tt.source); got != tt.want {
			t.Errorf("sourceName(%q) = %q, want %q", tt.source, got, tt.want)
		}
	}
}
