// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package capture stores observed OpenTherm frames as a stream of CBOR
// records, for later replay and offline analysis.
package capture

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/Thermoquad/otlink/pkg/opentherm"
)

// File header values
const (
	Magic   = "otlink-capture"
	Version = 1
)

// Sources used for frames seen on a local link rather than a gateway
const (
	SourceMaster byte = 'M'
	SourceSlave  byte = 'S'
)

// ErrBadHeader is returned when a stream does not start with a capture header
var ErrBadHeader = errors.New("capture: not a capture file")

type header struct {
	Magic   string `cbor:"0,keyasint"`
	Version uint   `cbor:"1,keyasint"`
}

// Record is one captured frame
type Record struct {
	Timestamp int64  `cbor:"0,keyasint"` // unix microseconds
	Source    byte   `cbor:"1,keyasint"` // gateway source letter or SourceMaster/SourceSlave
	Frame     uint32 `cbor:"2,keyasint"`
	Status    uint8  `cbor:"3,keyasint"` // opentherm.ResponseStatus
}

// NewRecord creates a record stamped with t
func NewRecord(t time.Time, source byte, f opentherm.Frame, status opentherm.ResponseStatus) Record {
	return Record{
		Timestamp: t.UnixMicro(),
		Source:    source,
		Frame:     uint32(f),
		Status:    uint8(status),
	}
}

// Time returns the capture time
func (r Record) Time() time.Time {
	return time.UnixMicro(r.Timestamp)
}

// OpenThermFrame returns the captured frame
func (r Record) OpenThermFrame() opentherm.Frame {
	return opentherm.Frame(r.Frame)
}

// ResponseStatus returns the outcome the frame was captured with
func (r Record) ResponseStatus() opentherm.ResponseStatus {
	return opentherm.ResponseStatus(r.Status)
}

// Writer appends records to a capture stream
type Writer struct {
	enc *cbor.Encoder
}

// NewWriter writes the capture header and returns a record writer
func NewWriter(w io.Writer) (*Writer, error) {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}
	enc := em.NewEncoder(w)
	if err := enc.Encode(header{Magic: Magic, Version: Version}); err != nil {
		return nil, fmt.Errorf("failed to write capture header: %w", err)
	}
	return &Writer{enc: enc}, nil
}

// Write appends one record
func (w *Writer) Write(r Record) error {
	if err := w.enc.Encode(r); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Reader streams records back from a capture
type Reader struct {
	dec *cbor.Decoder
}

// NewReader checks the capture header and returns a record reader
func NewReader(r io.Reader) (*Reader, error) {
	dec := cbor.NewDecoder(r)
	var h header
	if err := dec.Decode(&h); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrBadHeader
		}
		return nil, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	if h.Magic != Magic {
		return nil, ErrBadHeader
	}
	if h.Version != Version {
		return nil, fmt.Errorf("capture: unsupported version %d", h.Version)
	}
	return &Reader{dec: dec}, nil
}

// Next returns the next record, or io.EOF at the end of the stream
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("failed to read record: %w", err)
	}
	return rec, nil
}

// ReadAll returns every remaining record
func (r *Reader) ReadAll() ([]Record, error) {
	var records []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}
