// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/otlink/pkg/capture"
	"github.com/Thermoquad/otlink/pkg/opentherm"
	"github.com/Thermoquad/otlink/pkg/otgw"
)

// frameStatus classifies a gateway frame the way the receiving side of the
// link would: requests must pass IsValidRequest, answers IsValidResponse
func frameStatus(msg *otgw.Message) opentherm.ResponseStatus {
	valid := opentherm.IsValidResponse(msg.Frame)
	if msg.Source.IsRequest() {
		valid = opentherm.IsValidRequest(msg.Frame)
	}
	if valid {
		return opentherm.ResponseSuccess
	}
	return opentherm.ResponseInvalid
}

// exchangeFromMessage converts a gateway frame line for the statistics
func exchangeFromMessage(msg *otgw.Message) opentherm.Exchange {
	return opentherm.Exchange{
		Frame:     msg.Frame,
		Status:    frameStatus(msg),
		Timestamp: msg.Timestamp,
	}
}

// recorder appends frames to a capture file; a nil recorder does nothing
type recorder struct {
	file   *os.File
	writer *capture.Writer
	count  int
}

func openRecorder(path string) (*recorder, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture file: %w", err)
	}
	w, err := capture.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &recorder{file: f, writer: w}, nil
}

func (r *recorder) record(t time.Time, source byte, f opentherm.Frame, status opentherm.ResponseStatus) error {
	if r == nil {
		return nil
	}
	r.count++
	return r.writer.Write(capture.NewRecord(t, source, f, status))
}

func (r *recorder) recordMessage(msg *otgw.Message) error {
	return r.record(msg.Timestamp, byte(msg.Source), msg.Frame, frameStatus(msg))
}

func (r *recorder) Close() error {
	if r == nil {
		return nil
	}
	return r.file.Close()
}
