// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/otlink/pkg/opentherm"
	"github.com/Thermoquad/otlink/pkg/otgw"
)

var (
	frameTestTimeout int
)

var frameTestCmd = &cobra.Command{
	Use:   "frame_test",
	Short: "Test connection by waiting for a valid OpenTherm frame",
	Long: `Wait for a valid OpenTherm frame on the gateway connection until timeout.

This command connects to a serial port or WebSocket and waits for a frame
line from the gateway that passes the parity check and carries a message
type legal for its direction. Gateway text lines and corrupted frames are
ignored.

Exit codes:
  0 - Frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error

Useful for checking that a gateway is wired to a live thermostat and boiler.`,
	RunE: runFrameTest,
}

func init() {
	rootCmd.AddCommand(frameTestCmd)
	frameTestCmd.Flags().IntVar(&frameTestTimeout, "timeout", 10, "Timeout in seconds to wait for a frame")
}

func runFrameTest(cmd *cobra.Command, args []string) error {
	// Open connection (serial or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("otlink - Frame Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", frameTestTimeout)
	fmt.Printf("Waiting for valid OpenTherm frame...\n\n")

	decoder := otgw.NewDecoder()
	buf := make([]byte, 128)

	frameChan := make(chan *otgw.Message, 1)
	errChan := make(chan error, 1)

	// Reader goroutine
	go func() {
		skipped := 0
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}

			for i := 0; i < n; i++ {
				msg, decodeErr := decoder.DecodeByte(buf[i])
				if decodeErr != nil {
					skipped++
					continue
				}
				if msg == nil || !msg.IsFrame() {
					continue
				}
				if frameStatus(msg) != opentherm.ResponseSuccess {
					skipped++
					continue
				}
				if skipped > 0 {
					fmt.Printf("(skipped %d invalid lines)\n", skipped)
				}
				frameChan <- msg
				return
			}
		}
	}()

	select {
	case msg := <-frameChan:
		f := msg.Frame
		fmt.Printf("SUCCESS: Received valid frame\n")
		fmt.Printf("  Source: %s\n", msg.Source)
		fmt.Printf("  Type: %s (%d)\n", f.MessageType(), f.MessageType())
		fmt.Printf("  Data-id: %s (%d)\n", f.DataID(), f.DataID())
		fmt.Printf("  Value: %s\n", opentherm.FormatPayload(f.DataID(), f.UInt16()))
		fmt.Printf("  Raw: %08X\n", uint32(f))
		os.Exit(0)

	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)

	case <-time.After(time.Duration(frameTestTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", frameTestTimeout)
		os.Exit(1)
	}

	return nil
}
