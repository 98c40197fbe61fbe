// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package opentherm

import "sync/atomic"

// linkState is the block shared between the edge handler and the polling
// session. Fields are never exposed individually: status travels with its
// timestamp in one cell and the accumulator with its bit count in another,
// so either side always observes a consistent pair.
type linkState struct {
	event   atomic.Uint64 // status << 32 | timestamp
	frame   atomic.Uint64 // bit index << 32 | accumulator
	isSlave bool
}

func packEvent(status Status, ts uint32) uint64 {
	return uint64(status)<<32 | uint64(ts)
}

// snapshot returns the current status and the time of the last event
func (s *linkState) snapshot() (Status, uint32) {
	v := s.event.Load()
	return Status(v >> 32), uint32(v)
}

func (s *linkState) store(status Status, ts uint32) {
	s.event.Store(packEvent(status, ts))
}

// transition moves from an observed snapshot to a new state. It fails if
// the other context changed the state since the snapshot was taken.
func (s *linkState) transition(status Status, ts uint32, next Status, nextTs uint32) bool {
	return s.event.CompareAndSwap(packEvent(status, ts), packEvent(next, nextTs))
}

func (s *linkState) response() (Frame, int) {
	v := s.frame.Load()
	return Frame(uint32(v)), int(v >> 32)
}

func (s *linkState) setResponse(f Frame, bitIndex int) {
	s.frame.Store(uint64(bitIndex)<<32 | uint64(uint32(f)))
}

// handleEdge is the receive state machine. It runs from the input pin
// interrupt on every level change and must stay short: no blocking, no
// logging, no callbacks.
func (l *Link) handleEdge() {
	s := &l.state
	status, ts := s.snapshot()
	level := l.in.Get()

	from := status
	if status == StatusReady {
		// A slave wakes up on the start bit of a master request.
		if !s.isSlave || level != LevelActive {
			return
		}
		status = StatusResponseWaiting
	}

	now := l.clock.Micros()
	switch status {
	case StatusResponseWaiting:
		if level == LevelActive {
			s.transition(from, ts, StatusResponseStartBit, now)
		} else {
			s.transition(from, ts, StatusResponseInvalid, now)
		}

	case StatusResponseStartBit:
		if now-ts < SampleThreshold && level == LevelIdle {
			s.setResponse(0, 0)
			s.transition(from, ts, StatusResponseReceiving, now)
		} else {
			s.transition(from, ts, StatusResponseInvalid, now)
		}

	case StatusResponseReceiving:
		// Edges closer than the threshold are the bit boundary, not the
		// mid-bit transition that carries the value.
		if now-ts <= SampleThreshold {
			return
		}
		acc, bitIndex := s.response()
		if bitIndex < frameBits {
			var bit Frame
			if level == LevelIdle {
				bit = 1
			}
			s.setResponse(acc<<1|bit, bitIndex+1)
			s.transition(from, ts, StatusResponseReceiving, now)
		} else {
			// stop bit
			s.transition(from, ts, StatusResponseReady, now)
		}
	}
}
