// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package opentherm

import (
	"fmt"
	"log"
	"runtime"
)

// ResponseCallback receives the final frame and outcome of every exchange.
// It is always called from Poll, never from the edge handler.
type ResponseCallback func(frame Frame, status ResponseStatus)

// Link is one end of an OpenTherm wire. The edge handler installed by
// Begin runs asynchronously; everything else must be called from a single
// polling goroutine or loop.
type Link struct {
	in    Pin
	out   Pin
	clock Clock
	tx    *Transmitter
	role  Role
	state linkState

	// polling context only
	callback       ResponseCallback
	responseStatus ResponseStatus
	started        bool
	yield          func()
	logger         *log.Logger
}

// Option configures a Link
type Option func(*Link)

// WithYield sets the function SendRequest calls between two polls.
// The default is runtime.Gosched.
func WithYield(yield func()) Option {
	return func(l *Link) {
		l.yield = yield
	}
}

// WithLogger enables a log line per completed exchange
func WithLogger(logger *log.Logger) Option {
	return func(l *Link) {
		l.logger = logger
	}
}

// New creates a link bound to a role. The link is inert until Begin.
func New(in, out Pin, clock Clock, role Role, opts ...Option) *Link {
	l := &Link{
		in:    in,
		out:   out,
		clock: clock,
		tx:    NewTransmitter(out, clock),
		role:  role,
		yield: runtime.Gosched,
	}
	l.state.isSlave = role == Slave
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Begin configures the pins, attaches the edge handler and holds the line
// idle for one second so the boiler sees a powered link. The callback may
// be nil.
func (l *Link) Begin(callback ResponseCallback) error {
	if l.started {
		return ErrAlreadyStarted
	}
	if err := l.in.ConfigureInput(); err != nil {
		return fmt.Errorf("configure input pin: %w", err)
	}
	if err := l.out.ConfigureOutput(); err != nil {
		return fmt.Errorf("configure output pin: %w", err)
	}
	if err := l.in.SetInterrupt(l.handleEdge); err != nil {
		return fmt.Errorf("attach edge interrupt: %w", err)
	}

	l.tx.Idle()
	l.clock.DelayMillis(ActivationDelay)

	l.callback = callback
	l.started = true
	l.state.store(StatusReady, l.clock.Micros())
	return nil
}

// Close detaches the edge handler. The link can be started again.
func (l *Link) Close() error {
	if !l.started {
		return ErrNotInitialized
	}
	l.started = false
	l.state.store(StatusNotInitialized, l.clock.Micros())
	if err := l.in.DisableInterrupt(); err != nil {
		return fmt.Errorf("detach edge interrupt: %w", err)
	}
	return nil
}

// Role returns the side of the link this session plays
func (l *Link) Role() Role {
	return l.role
}

// Status returns the current session state
func (l *Link) Status() Status {
	status, _ := l.state.snapshot()
	return status
}

// IsReady reports whether a new exchange can start
func (l *Link) IsReady() bool {
	return l.Status() == StatusReady
}

// LastResponseStatus returns the outcome reported by the latest callback
func (l *Link) LastResponseStatus() ResponseStatus {
	return l.responseStatus
}

// SendRequestAsync transmits a request and arms reception of the answer.
// It returns false without touching the line when the link is busy.
func (l *Link) SendRequestAsync(request Frame) bool {
	status, ts := l.state.snapshot()
	if status != StatusReady {
		return false
	}
	if !l.state.transition(status, ts, StatusRequestSending, ts) {
		return false
	}
	l.state.setResponse(0, 0)
	l.responseStatus = ResponseNone

	l.tx.SendFrame(request)

	l.state.store(StatusResponseWaiting, l.clock.Micros())
	return true
}

// SendRequest runs a whole exchange, polling until the link is ready
// again. It returns the received frame, or 0 when the link was busy or the
// exchange did not succeed.
func (l *Link) SendRequest(request Frame) Frame {
	if !l.SendRequestAsync(request) {
		return 0
	}
	for !l.IsReady() {
		l.Poll()
		l.yield()
	}
	if l.responseStatus != ResponseSuccess {
		return 0
	}
	response, _ := l.state.response()
	return response
}

// SendResponse transmits an answer to a request already received. It does
// not wait for READY and leaves the link READY afterwards.
func (l *Link) SendResponse(response Frame) bool {
	l.state.store(StatusRequestSending, l.clock.Micros())
	l.state.setResponse(0, 0)
	l.responseStatus = ResponseNone

	l.tx.SendFrame(response)

	l.state.store(StatusReady, l.clock.Micros())
	return true
}

// Poll advances the session: it reports finished or timed out exchanges
// and ends the turnaround pause. Call it often from the host loop.
func (l *Link) Poll() {
	status, ts := l.state.snapshot()
	if status == StatusReady || status == StatusNotInitialized {
		return
	}

	now := l.clock.Micros()
	elapsed := now - ts

	switch status {
	case StatusDelay:
		if elapsed > TurnaroundDelay {
			l.state.transition(status, ts, StatusReady, now)
		}

	case StatusResponseInvalid:
		if l.state.transition(status, ts, StatusDelay, ts) {
			l.complete(ResponseInvalid)
		}

	case StatusResponseReady:
		response, _ := l.state.response()
		result := ResponseInvalid
		if l.isValid(response) {
			result = ResponseSuccess
		}
		if l.state.transition(status, ts, StatusDelay, ts) {
			l.complete(result)
		}

	default:
		if elapsed > ResponseTimeoutMicros {
			if l.state.transition(status, ts, StatusReady, now) {
				l.complete(ResponseTimeout)
			}
		}
	}
}

// A master receives responses, a slave receives requests.
func (l *Link) isValid(f Frame) bool {
	if l.role == Slave {
		return IsValidRequest(f)
	}
	return IsValidResponse(f)
}

func (l *Link) complete(result ResponseStatus) {
	l.responseStatus = result
	frame, _ := l.state.response()
	if l.logger != nil {
		l.logger.Printf("%s %s: %s", l.role, result, FormatFrameShort(frame))
	}
	if l.callback != nil {
		l.callback(frame, result)
	}
}
