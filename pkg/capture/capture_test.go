// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package capture

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/Thermoquad/otlink/pkg/opentherm"
)

func TestWriteRead(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	start := time.UnixMicro(1760000000000000)
	frames := []opentherm.Frame{
		opentherm.BuildGetBoilerTemperatureRequest(),
		opentherm.BuildResponse(opentherm.ReadAck, opentherm.MsgTBoiler, 0x1234),
		0,
	}
	statuses := []opentherm.ResponseStatus{opentherm.ResponseNone, opentherm.ResponseSuccess, opentherm.ResponseTimeout}
	sources := []byte{'T', 'B', SourceMaster}

	for i, f := range frames {
		rec := NewRecord(start.Add(time.Duration(i)*time.Second), sources[i], f, statuses[i])
		if err := w.Write(rec); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(records) != len(frames) {
		t.Fatalf("got %d records, want %d", len(records), len(frames))
	}
	for i, rec := range records {
		if rec.OpenThermFrame() != frames[i] || rec.ResponseStatus() != statuses[i] || rec.Source != sources[i] {
			t.Errorf("record %d = %+v", i, rec)
		}
		if !rec.Time().Equal(start.Add(time.Duration(i) * time.Second)) {
			t.Errorf("record %d time = %v", i, rec.Time())
		}
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next after end = %v, want io.EOF", err)
	}
}

func TestRecordWireFormat(t *testing.T) {
	rec := Record{Timestamp: 1, Source: 'B', Frame: 0x40191234, Status: 1}
	data, err := cbor.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}

	var m map[int]interface{}
	if err := cbor.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m[2] != uint64(0x40191234) || m[1] != uint64('B') || m[3] != uint64(1) {
		t.Errorf("unexpected map %v", m)
	}
}

func TestNewReader_BadHeader(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not cbor", []byte{0xFF, 0xFF}},
		{"wrong magic", mustMarshal(t, header{Magic: "not-a-capture", Version: Version})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(bytes.NewReader(tt.data))
			if !errors.Is(err, ErrBadHeader) {
				t.Errorf("err = %v, want ErrBadHeader", err)
			}
		})
	}
}

func TestNewReader_Version(t *testing.T) {
	_, err := NewReader(bytes.NewReader(mustMarshal(t, header{Magic: Magic, Version: 99})))
	if err == nil || errors.Is(err, ErrBadHeader) {
		t.Errorf("err = %v, want version error", err)
	}
}

func TestNext_Truncated(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(Record{Timestamp: 12345678, Source: 'T', Frame: 0x80190000}); err != nil {
		t.Fatal(err)
	}

	data := buf.Bytes()[:buf.Len()-2]
	r, err := NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Next(); err == nil || err == io.EOF {
		t.Errorf("truncated record returned %v", err)
	}
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := cbor.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
