// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package opentherm

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"
)

// ============================================================
// Test Doubles
// ============================================================

type fakeClock struct {
	now uint32
}

func (c *fakeClock) Micros() uint32        { return c.now }
func (c *fakeClock) DelayMicros(us uint32) { c.now += us }
func (c *fakeClock) DelayMillis(ms uint32) { c.now += ms * 1000 }

type pinEvent struct {
	level Level
	at    uint32
}

type fakePin struct {
	clock     *fakeClock
	level     Level
	handler   func()
	events    []pinEvent
	input     bool
	output    bool
	attachErr error
}

func (p *fakePin) ConfigureInput() error  { p.input = true; return nil }
func (p *fakePin) ConfigureOutput() error { p.output = true; return nil }
func (p *fakePin) Get() Level             { return p.level }

func (p *fakePin) Set(level Level) {
	p.level = level
	p.events = append(p.events, pinEvent{level, p.clock.now})
}

func (p *fakePin) SetInterrupt(handler func()) error {
	if p.attachErr != nil {
		return p.attachErr
	}
	p.handler = handler
	return nil
}

func (p *fakePin) DisableInterrupt() error {
	p.handler = nil
	return nil
}

// drive changes the sensed level and fires the handler on a change
func (p *fakePin) drive(level Level) {
	if level == p.level {
		return
	}
	p.level = level
	if p.handler != nil {
		p.handler()
	}
}

// feed plays a Manchester coded frame into an input pin
func feed(p *fakePin, f Frame) {
	bits := []bool{true}
	for i := frameBits - 1; i >= 0; i-- {
		bits = append(bits, uint32(f)&(1<<uint(i)) != 0)
	}
	bits = append(bits, true)

	for _, one := range bits {
		first, second := LevelIdle, LevelActive
		if one {
			first, second = LevelActive, LevelIdle
		}
		p.drive(first)
		p.clock.now += BitHalfPeriod
		p.drive(second)
		p.clock.now += BitHalfPeriod
	}
	p.drive(LevelIdle)
}

type result struct {
	frame  Frame
	status ResponseStatus
}

type harness struct {
	clock   *fakeClock
	in      *fakePin
	out     *fakePin
	link    *Link
	results []result
}

func newHarness(t *testing.T, role Role, opts ...Option) *harness {
	t.Helper()
	clock := &fakeClock{}
	h := &harness{
		clock: clock,
		in:    &fakePin{clock: clock},
		out:   &fakePin{clock: clock},
	}
	h.link = New(h.in, h.out, clock, role, opts...)
	if err := h.link.Begin(func(f Frame, s ResponseStatus) {
		h.results = append(h.results, result{f, s})
	}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	return h
}

// ============================================================
// Begin / Close Tests
// ============================================================

func TestBegin(t *testing.T) {
	h := newHarness(t, Master)

	if !h.in.input || !h.out.output {
		t.Error("pins not configured")
	}
	if h.in.handler == nil {
		t.Error("edge handler not attached")
	}
	if h.clock.now != ActivationDelay*1000 {
		t.Errorf("activation delay = %d us, want %d", h.clock.now, ActivationDelay*1000)
	}
	if len(h.out.events) != 1 || h.out.events[0].level != LevelIdle {
		t.Errorf("output not idled: %v", h.out.events)
	}
	if !h.link.IsReady() {
		t.Errorf("status = %s, want READY", h.link.Status())
	}
	if err := h.link.Begin(nil); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Begin = %v, want ErrAlreadyStarted", err)
	}
}

func TestBegin_InterruptError(t *testing.T) {
	clock := &fakeClock{}
	attach := errors.New("no free interrupt")
	l := New(&fakePin{clock: clock, attachErr: attach}, &fakePin{clock: clock}, clock, Master)

	err := l.Begin(nil)
	if !errors.Is(err, attach) {
		t.Fatalf("Begin = %v, want wrapped %v", err, attach)
	}
	if l.Status() != StatusNotInitialized {
		t.Errorf("status = %s after failed Begin", l.Status())
	}
}

func TestClose(t *testing.T) {
	h := newHarness(t, Master)
	if err := h.link.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if h.in.handler != nil {
		t.Error("edge handler still attached")
	}
	if h.link.Status() != StatusNotInitialized {
		t.Errorf("status = %s", h.link.Status())
	}
	if h.link.SendRequestAsync(BuildGetBoilerTemperatureRequest()) {
		t.Error("closed link accepted a request")
	}
	if err := h.link.Close(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("second Close = %v", err)
	}
}

// ============================================================
// Transmit Tests
// ============================================================

func TestSendFrame_Waveform(t *testing.T) {
	clock := &fakeClock{now: 5000}
	out := &fakePin{clock: clock}
	tx := NewTransmitter(out, clock)

	f := BuildRequest(WriteData, MsgTSet, 0x3C00)
	tx.SendFrame(f)

	// two Set calls per bit plus the final idle
	if len(out.events) != 34*2+1 {
		t.Fatalf("got %d level changes, want %d", len(out.events), 34*2+1)
	}
	if clock.now-5000 != 34*2*BitHalfPeriod {
		t.Errorf("frame took %d us, want %d", clock.now-5000, 34*2*BitHalfPeriod)
	}

	for i := 0; i < 34; i++ {
		first, second := out.events[2*i], out.events[2*i+1]
		if second.at-first.at != BitHalfPeriod {
			t.Fatalf("bit %d half period = %d", i, second.at-first.at)
		}
		one := true
		if i > 0 && i < 33 {
			one = uint32(f)&(1<<uint(32-i)) != 0
		}
		want := LevelIdle
		if one {
			want = LevelActive
		}
		if first.level != want || second.level == want {
			t.Fatalf("bit %d encoded as %d/%d, want one=%v", i, first.level, second.level, one)
		}
	}

	if last := out.events[len(out.events)-1]; last.level != LevelIdle {
		t.Error("line not idle after frame")
	}
}

// ============================================================
// Master Exchange Tests
// ============================================================

func TestMaster_Success(t *testing.T) {
	h := newHarness(t, Master)
	response := BuildResponse(ReadAck, MsgTBoiler, 0x1234)

	if !h.link.SendRequestAsync(BuildGetBoilerTemperatureRequest()) {
		t.Fatal("SendRequestAsync returned false on a ready link")
	}
	if h.link.Status() != StatusResponseWaiting {
		t.Fatalf("status = %s, want RESPONSE_WAITING", h.link.Status())
	}

	h.clock.now += 20000
	feed(h.in, response)
	// the frame completed on the mid-bit edge of the stop bit
	readyAt := h.clock.now - BitHalfPeriod
	if h.link.Status() != StatusResponseReady {
		t.Fatalf("status = %s, want RESPONSE_READY", h.link.Status())
	}

	h.link.Poll()
	h.link.Poll()
	if len(h.results) != 1 {
		t.Fatalf("got %d callbacks, want 1", len(h.results))
	}
	if h.results[0] != (result{response, ResponseSuccess}) {
		t.Errorf("callback = %08X %s", uint32(h.results[0].frame), h.results[0].status)
	}
	if h.link.LastResponseStatus() != ResponseSuccess {
		t.Errorf("last status = %s", h.link.LastResponseStatus())
	}
	if h.link.Status() != StatusDelay {
		t.Fatalf("status = %s, want DELAY", h.link.Status())
	}

	// turnaround holds the link busy for 100 ms
	h.clock.now = readyAt + TurnaroundDelay
	h.link.Poll()
	if h.link.IsReady() {
		t.Fatal("link ready before the turnaround delay elapsed")
	}
	if h.link.SendRequestAsync(BuildGetBoilerTemperatureRequest()) {
		t.Fatal("request accepted during turnaround")
	}
	h.clock.now++
	h.link.Poll()
	if !h.link.IsReady() {
		t.Fatalf("status = %s after turnaround", h.link.Status())
	}
}

func TestMaster_BusyRejected(t *testing.T) {
	h := newHarness(t, Master)
	if !h.link.SendRequestAsync(BuildGetBoilerTemperatureRequest()) {
		t.Fatal("first request rejected")
	}
	sent := len(h.out.events)

	if h.link.SendRequestAsync(BuildGetBoilerTemperatureRequest()) {
		t.Error("second request accepted while waiting")
	}
	if got := h.link.SendRequest(BuildGetBoilerTemperatureRequest()); got != 0 {
		t.Errorf("SendRequest on busy link = %08X, want 0", uint32(got))
	}
	if len(h.out.events) != sent {
		t.Error("busy link touched the output pin")
	}
	if len(h.results) != 0 {
		t.Error("busy request produced a callback")
	}
}

func TestMaster_Timeout(t *testing.T) {
	h := newHarness(t, Master)
	h.link.SendRequestAsync(BuildGetBoilerTemperatureRequest())

	h.clock.now += ResponseTimeoutMicros
	h.link.Poll()
	if len(h.results) != 0 {
		t.Fatal("timeout reported before the deadline")
	}

	h.clock.now++
	h.link.Poll()
	h.link.Poll()
	if len(h.results) != 1 || h.results[0].status != ResponseTimeout {
		t.Fatalf("results = %v, want one TIMEOUT", h.results)
	}
	if !h.link.IsReady() {
		t.Errorf("status = %s after timeout, want READY", h.link.Status())
	}
}

func TestMaster_TimeoutMidFrame(t *testing.T) {
	h := newHarness(t, Master)
	h.link.SendRequestAsync(BuildGetBoilerTemperatureRequest())

	// start bit only, then silence
	h.in.drive(LevelActive)
	h.clock.now += BitHalfPeriod
	h.in.drive(LevelIdle)
	if h.link.Status() != StatusResponseReceiving {
		t.Fatalf("status = %s, want RESPONSE_RECEIVING", h.link.Status())
	}

	h.clock.now += ResponseTimeoutMicros + 1
	h.link.Poll()
	if len(h.results) != 1 || h.results[0].status != ResponseTimeout {
		t.Fatalf("results = %v, want one TIMEOUT", h.results)
	}
}

func TestMaster_BadParity(t *testing.T) {
	h := newHarness(t, Master)
	h.link.SendRequestAsync(BuildSetBoilerTemperatureRequest(60))

	corrupt := BuildResponse(WriteAck, MsgTSet, TemperatureToData(60)) ^ parityBit
	feed(h.in, corrupt)
	h.link.Poll()

	if len(h.results) != 1 || h.results[0].status != ResponseInvalid {
		t.Fatalf("results = %v, want one INVALID", h.results)
	}
	if h.results[0].frame != corrupt {
		t.Errorf("frame = %08X, want %08X", uint32(h.results[0].frame), uint32(corrupt))
	}
	if h.link.Status() != StatusDelay {
		t.Errorf("status = %s, want DELAY", h.link.Status())
	}
}

func TestMaster_RejectsRequestFrames(t *testing.T) {
	h := newHarness(t, Master)
	h.link.SendRequestAsync(BuildGetBoilerTemperatureRequest())
	feed(h.in, BuildRequest(ReadData, MsgTBoiler, 0))
	h.link.Poll()

	if len(h.results) != 1 || h.results[0].status != ResponseInvalid {
		t.Fatalf("results = %v, want one INVALID", h.results)
	}
}

func TestMaster_Glitches(t *testing.T) {
	tests := []struct {
		name  string
		drive func(h *harness)
	}{
		{
			name: "idle edge while waiting",
			drive: func(h *harness) {
				h.in.level = LevelActive
				h.in.drive(LevelIdle)
			},
		},
		{
			name: "start bit too long",
			drive: func(h *harness) {
				h.in.drive(LevelActive)
				h.clock.now += SampleThreshold
				h.in.drive(LevelIdle)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Master)
			h.link.SendRequestAsync(BuildGetBoilerTemperatureRequest())
			tt.drive(h)
			if h.link.Status() != StatusResponseInvalid {
				t.Fatalf("status = %s, want RESPONSE_INVALID", h.link.Status())
			}

			// late polls still report exactly once, never as TIMEOUT
			h.clock.now += 2 * ResponseTimeoutMicros
			h.link.Poll()
			h.link.Poll()
			if len(h.results) != 1 || h.results[0].status != ResponseInvalid {
				t.Fatalf("results = %v, want one INVALID", h.results)
			}
		})
	}
}

func TestMaster_LatePollReportsSuccess(t *testing.T) {
	h := newHarness(t, Master)
	h.link.SendRequestAsync(BuildGetBoilerTemperatureRequest())
	feed(h.in, BuildResponse(ReadAck, MsgTBoiler, 0x1234))

	h.clock.now += 3 * ResponseTimeoutMicros
	h.link.Poll()
	if len(h.results) != 1 || h.results[0].status != ResponseSuccess {
		t.Fatalf("results = %v, want one SUCCESS", h.results)
	}
}

func TestMaster_ClockWrap(t *testing.T) {
	h := newHarness(t, Master)
	h.clock.now = 0xFFFFFFFF - 10000

	h.link.SendRequestAsync(BuildGetBoilerTemperatureRequest())
	feed(h.in, BuildResponse(ReadAck, MsgTBoiler, 0x1234))
	h.link.Poll()
	if len(h.results) != 1 || h.results[0].status != ResponseSuccess {
		t.Fatalf("results = %v, want one SUCCESS across the wrap", h.results)
	}

	h.clock.now += TurnaroundDelay + 1
	h.link.Poll()
	if !h.link.IsReady() {
		t.Errorf("status = %s after wrap", h.link.Status())
	}
}

func TestMaster_ClockWrapTimeout(t *testing.T) {
	h := newHarness(t, Master)
	h.clock.now = 0xFFFFFFFF - 100
	h.link.SendRequestAsync(BuildGetBoilerTemperatureRequest())

	h.clock.now += ResponseTimeoutMicros / 2
	h.link.Poll()
	if len(h.results) != 0 {
		t.Fatal("timeout reported early across the wrap")
	}
	h.clock.now += ResponseTimeoutMicros
	h.link.Poll()
	if len(h.results) != 1 || h.results[0].status != ResponseTimeout {
		t.Fatalf("results = %v, want one TIMEOUT", h.results)
	}
}

func TestMaster_SendRequestBlocking(t *testing.T) {
	response := BuildResponse(ReadAck, MsgTBoiler, 0x1234)
	var h *harness
	polls := 0
	h = newHarness(t, Master, WithYield(func() {
		polls++
		if polls == 1 {
			feed(h.in, response)
		}
		h.clock.now += 1000
	}))

	got := h.link.SendRequest(BuildGetBoilerTemperatureRequest())
	if got != response {
		t.Fatalf("SendRequest = %08X, want %08X", uint32(got), uint32(response))
	}
	if got.Float() != 18.203125 {
		t.Errorf("Float = %v", got.Float())
	}
	if !h.link.IsReady() {
		t.Error("SendRequest returned before READY")
	}
}

func TestMaster_SendRequestTimeoutReturnsZero(t *testing.T) {
	var h *harness
	h = newHarness(t, Master, WithYield(func() {
		h.clock.now += 10000
	}))

	if got := h.link.SendRequest(BuildGetBoilerTemperatureRequest()); got != 0 {
		t.Fatalf("SendRequest = %08X, want 0", uint32(got))
	}
	if h.link.LastResponseStatus() != ResponseTimeout {
		t.Errorf("last status = %s, want TIMEOUT", h.link.LastResponseStatus())
	}
}

func TestMaster_Logger(t *testing.T) {
	var buf bytes.Buffer
	h := newHarness(t, Master, WithLogger(log.New(&buf, "", 0)))
	h.link.SendRequestAsync(BuildGetBoilerTemperatureRequest())
	feed(h.in, BuildResponse(ReadAck, MsgTBoiler, 0x1234))
	h.link.Poll()

	if !strings.Contains(buf.String(), "master SUCCESS") || !strings.Contains(buf.String(), "TBOILER") {
		t.Errorf("log = %q", buf.String())
	}
}

// ============================================================
// Slave Tests
// ============================================================

func TestSlave_ReceivesRequest(t *testing.T) {
	h := newHarness(t, Slave)
	request := BuildSetBoilerTemperatureRequest(45)

	feed(h.in, request)
	if h.link.Status() != StatusResponseReady {
		t.Fatalf("status = %s, want RESPONSE_READY", h.link.Status())
	}
	h.link.Poll()
	if len(h.results) != 1 || h.results[0] != (result{request, ResponseSuccess}) {
		t.Fatalf("results = %v", h.results)
	}

	response := BuildResponse(WriteAck, MsgTSet, request.UInt16())
	h.clock.now += 20000
	if !h.link.SendResponse(response) {
		t.Fatal("SendResponse failed")
	}
	if !h.link.IsReady() {
		t.Errorf("status = %s after response, want READY", h.link.Status())
	}
	if len(h.out.events) != 1+34*2+1 {
		t.Errorf("response wrote %d level changes", len(h.out.events)-1)
	}
}

func TestSlave_RejectsResponseFrames(t *testing.T) {
	h := newHarness(t, Slave)
	feed(h.in, BuildResponse(ReadAck, MsgTBoiler, 0x1234))
	h.link.Poll()

	if len(h.results) != 1 || h.results[0].status != ResponseInvalid {
		t.Fatalf("results = %v, want one INVALID", h.results)
	}
}

func TestSlave_IgnoresIdleEdgeWhenReady(t *testing.T) {
	h := newHarness(t, Slave)
	h.in.level = LevelActive
	h.in.drive(LevelIdle)
	if !h.link.IsReady() {
		t.Errorf("status = %s, want READY", h.link.Status())
	}
}

func TestMaster_IgnoresEdgesWhenReady(t *testing.T) {
	h := newHarness(t, Master)
	feed(h.in, BuildRequest(ReadData, MsgTBoiler, 0))
	if !h.link.IsReady() {
		t.Errorf("status = %s, want READY", h.link.Status())
	}
}

// ============================================================
// Receive Fuzz Tests
// ============================================================

func TestReceive_RandomFrames(t *testing.T) {
	rng := newFuzzRng(t)
	h := newHarness(t, Master)

	for i := 0; i < getFuzzRounds(); i++ {
		f := Frame(rng.Uint32())
		h.link.SendRequestAsync(BuildGetBoilerTemperatureRequest())
		h.clock.now += uint32(rng.Intn(800000))
		feed(h.in, f)
		h.link.Poll()

		want := ResponseInvalid
		if IsValidResponse(f) {
			want = ResponseSuccess
		}
		last := h.results[len(h.results)-1]
		if last.frame != f || last.status != want {
			t.Fatalf("frame %08X reported as %08X %s, want %s", uint32(f), uint32(last.frame), last.status, want)
		}

		h.clock.now += TurnaroundDelay + 1
		h.link.Poll()
		if !h.link.IsReady() {
			t.Fatalf("round %d: status = %s", i, h.link.Status())
		}
	}
	if len(h.results) != getFuzzRounds() {
		t.Errorf("got %d callbacks for %d exchanges", len(h.results), getFuzzRounds())
	}
}
