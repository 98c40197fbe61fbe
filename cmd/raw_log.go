// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/otlink/pkg/otgw"
)

var rawLogRecord string

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display the gateway frame log in human-readable format",
	Long: `Continuously decode and display OpenTherm frames reported by an OpenTherm
Gateway, showing each frame with timestamp, source, message type, data-id
and decoded value. Gateway text lines are printed as they are.

With --record, every frame is also appended to a CBOR capture file that can
be inspected later with the replay command.

Supports both serial and WebSocket connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().StringVar(&rawLogRecord, "record", "", "Append frames to a capture file")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	// Open connection (serial or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	rec, err := openRecorder(rawLogRecord)
	if err != nil {
		return err
	}
	defer rec.Close()

	fmt.Printf("otlink - Raw Frame Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	if rec != nil {
		fmt.Printf("Recording: %s\n", rawLogRecord)
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := otgw.NewDecoder()
	buf := make([]byte, 128)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			// For WebSocket connections, a read error usually means
			// the connection is permanently closed - exit gracefully
			if err == ErrConnectionClosed {
				log.Printf("Connection closed")
				return nil
			}
			log.Printf("Read error: %v", err)
			continue
		}

		for i := 0; i < n; i++ {
			msg, err := decoder.DecodeByte(buf[i])
			if err != nil {
				fmt.Printf("[ERROR] %v\n", err)
				continue
			}
			if msg == nil {
				continue
			}
			fmt.Printf("[%s] %s\n", msg.Timestamp.Format("15:04:05.000"), msg)
			if msg.IsFrame() {
				if err := rec.recordMessage(msg); err != nil {
					return err
				}
			}
		}
	}
}
