// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package otgw

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Thermoquad/otlink/pkg/opentherm"
)

// Message is one decoded gateway line
type Message struct {
	Source    Source
	Frame     opentherm.Frame // zero for text lines
	Text      string          // the line without its terminator
	Timestamp time.Time
}

// IsFrame reports whether the line carried an OpenTherm frame
func (m *Message) IsFrame() bool {
	return m.Source != SourceText
}

// ResponseTo returns the result of a gateway command reply ("PR: A=...")
// if the line answers the given two-letter code
func (m *Message) ResponseTo(code string) (string, bool) {
	if m.IsFrame() {
		return "", false
	}
	prefix := strings.ToUpper(code) + ":"
	if !strings.HasPrefix(m.Text, prefix) {
		return "", false
	}
	return strings.TrimSpace(m.Text[len(prefix):]), true
}

// String renders the message for logs
func (m *Message) String() string {
	if !m.IsFrame() {
		return m.Text
	}
	return fmt.Sprintf("%-10s %s", m.Source, opentherm.FormatFrameShort(m.Frame))
}

// ParseLine decodes one line without its CR/LF terminator. Lines that do
// not look like a frame are returned as SourceText.
func ParseLine(line string) (*Message, error) {
	msg := &Message{Source: SourceText, Text: line, Timestamp: time.Now()}
	if len(line) != frameLineLen {
		return msg, nil
	}

	switch src := Source(line[0]); src {
	case SourceThermostat, SourceBoiler, SourceRequest, SourceAnswer:
		v, err := strconv.ParseUint(line[1:], 16, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid frame hex %q: %w", line[1:], err)
		}
		msg.Source = src
		msg.Frame = opentherm.Frame(v)
	}
	return msg, nil
}
