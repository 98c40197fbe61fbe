// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/Thermoquad/otlink/pkg/otgw"
)

// ============================================================
// TCP
// ============================================================

func TestTCPConnectionRemoteClose(t *testing.T) {
	local, remote := net.Pipe()
	conn := &TCPConnection{conn: local}
	defer conn.Close()

	go func() {
		remote.Write([]byte("T80190000\r\n"))
		remote.Close()
	}()

	buf := make([]byte, 64)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got := string(buf[:n]); got != "T80190000\r\n" {
		t.Errorf("Read() = %q", got)
	}

	if _, err := conn.Read(buf); err != ErrConnectionClosed {
		t.Errorf("Read() after close = %v, want ErrConnectionClosed", err)
	}
}

// ============================================================
// WebSocket
// ============================================================

func startBridge(t *testing.T, messages []string, received chan<- string) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		if received != nil {
			if _, data, err := c.ReadMessage(); err == nil {
				received <- string(data)
			}
		}
		for _, m := range messages {
			if err := c.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.ReadMessage()
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketConnectionSplitLines(t *testing.T) {
	url := startBridge(t, []string{"T80190000\r\nB4019", "3780\r\n"}, nil)
	conn, err := OpenWebSocketConnection(url, "", "", false)
	if err != nil {
		t.Fatalf("OpenWebSocketConnection() error: %v", err)
	}
	defer conn.Close()

	decoder := otgw.NewDecoder()
	var frames []*otgw.Message
	buf := make([]byte, 4)
	for {
		n, err := conn.Read(buf)
		if err == ErrConnectionClosed {
			break
		}
		if err != nil {
			t.Fatalf("Read() error: %v", err)
		}
		msgs, err := decoder.Decode(buf[:n])
		if err != nil {
			t.Fatalf("Decode() error: %v", err)
		}
		frames = append(frames, msgs...)
	}

	if len(frames) != 2 {
		t.Fatalf("got %d lines, want 2", len(frames))
	}
	if frames[0].Source != otgw.SourceThermostat || frames[0].Frame != 0x80190000 {
		t.Errorf("line 0 = %v", frames[0])
	}
	if frames[1].Source != otgw.SourceBoiler || frames[1].Frame != 0x40193780 {
		t.Errorf("line 1 = %v", frames[1])
	}

	if _, err := conn.Read(buf); err != ErrConnectionClosed {
		t.Errorf("Read() after close = %v, want ErrConnectionClosed", err)
	}
}

func TestWebSocketConnectionWritesText(t *testing.T) {
	received := make(chan string, 1)
	url := startBridge(t, []string{"PR: A=OpenTherm Gateway 6.4\r\n"}, received)
	conn, err := OpenWebSocketConnection(url, "", "", false)
	if err != nil {
		t.Fatalf("OpenWebSocketConnection() error: %v", err)
	}
	defer conn.Close()

	cmdBytes, err := otgw.EncodeCommand("PR", "A")
	if err != nil {
		t.Fatalf("EncodeCommand() error: %v", err)
	}
	if _, err := conn.Write(cmdBytes); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if got := <-received; got != "PR=A\r\n" {
		t.Errorf("bridge received %q", got)
	}
}

func TestOpenWebSocketConnectionRejectsScheme(t *testing.T) {
	if _, err := OpenWebSocketConnection("http://localhost/ws", "", "", false); err == nil {
		t.Error("expected error for http:// URL")
	}
}
