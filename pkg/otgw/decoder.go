// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package otgw

import "fmt"

// Decoder splits the gateway byte stream into lines
type Decoder struct {
	buffer   []byte
	overflow bool
}

// NewDecoder creates a new line decoder
func NewDecoder() *Decoder {
	return &Decoder{buffer: make([]byte, 0, MaxLineLength)}
}

// Reset discards any partial line
func (d *Decoder) Reset() {
	d.buffer = d.buffer[:0]
	d.overflow = false
}

// GetRawBytes returns the bytes of the current partial line
func (d *Decoder) GetRawBytes() []byte {
	return d.buffer
}

// DecodeByte processes a single byte
// Returns a completed message, or nil if the line is incomplete
// Returns an error for overlong lines and malformed frames
func (d *Decoder) DecodeByte(b byte) (*Message, error) {
	switch b {
	case '\r':
		return nil, nil

	case '\n':
		if d.overflow {
			d.Reset()
			return nil, fmt.Errorf("line too long (max %d bytes)", MaxLineLength)
		}
		if len(d.buffer) == 0 {
			return nil, nil
		}
		line := string(d.buffer)
		d.Reset()
		return ParseLine(line)
	}

	if d.overflow {
		return nil, nil
	}
	if len(d.buffer) >= MaxLineLength {
		d.overflow = true
		return nil, nil
	}
	d.buffer = append(d.buffer, b)
	return nil, nil
}

// Decode feeds a chunk of bytes and returns every completed message. The
// first error is returned after the whole chunk was consumed.
func (d *Decoder) Decode(data []byte) ([]*Message, error) {
	var messages []*Message
	var firstErr error
	for _, b := range data {
		msg, err := d.DecodeByte(b)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if msg != nil {
			messages = append(messages, msg)
		}
	}
	return messages, firstErr
}
