// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/otlink/pkg/otgw"
)

var connTestCmd = &cobra.Command{
	Use:   "conn_test",
	Short: "Test raw gateway connection stability",
	Long: `Test the connection to the gateway without sending anything.

This command connects and just waits, logging every line received and any
error encountered. Useful for debugging flaky serial adapters and WebSocket
bridges.

Exit codes:
  0 - Test completed normally
  1 - Test failed
  2 - Connection error`,
	RunE: runConnTest,
}

var connTestDuration int

func init() {
	rootCmd.AddCommand(connTestCmd)
	connTestCmd.Flags().IntVar(&connTestDuration, "duration", 30, "Test duration in seconds")
}

func runConnTest(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Gateway Connection Stability Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Duration: %d seconds\n\n", connTestDuration)

	readChan := make(chan []byte, 100)
	errChan := make(chan error, 1)

	go func() {
		buf := make([]byte, 256)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				readChan <- data
			}
		}
	}()

	decoder := otgw.NewDecoder()
	endTime := time.Now().Add(time.Duration(connTestDuration) * time.Second)
	bytesReceived := 0
	linesReceived := 0
	framesReceived := 0

	fmt.Printf("Listening for data...\n\n")

	for time.Now().Before(endTime) {
		select {
		case data := <-readChan:
			bytesReceived += len(data)
			msgs, _ := decoder.Decode(data)
			for _, msg := range msgs {
				linesReceived++
				if msg.IsFrame() {
					framesReceived++
				}
				fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05.000"), msg.Text)
			}

		case err := <-errChan:
			fmt.Printf("\n[%s] Connection error: %v\n",
				time.Now().Format("15:04:05.000"), err)
			fmt.Printf("\n--- Test Results ---\n")
			fmt.Printf("Duration: %v\n", time.Since(endTime.Add(-time.Duration(connTestDuration)*time.Second)).Round(time.Second))
			fmt.Printf("Lines received: %d (%d frames)\n", linesReceived, framesReceived)
			fmt.Printf("Bytes received: %d\n", bytesReceived)
			fmt.Printf("Result: FAILED (connection error)\n")
			os.Exit(1)

		case <-time.After(1 * time.Second):
			remaining := time.Until(endTime).Seconds()
			fmt.Printf("[%s] Still connected... (%.0fs remaining)\n",
				time.Now().Format("15:04:05.000"), remaining)
		}
	}

	fmt.Printf("\n--- Test Results ---\n")
	fmt.Printf("Duration: %d seconds\n", connTestDuration)
	fmt.Printf("Lines received: %d (%d frames)\n", linesReceived, framesReceived)
	fmt.Printf("Bytes received: %d\n", bytesReceived)
	fmt.Printf("Result: PASSED (connection stable)\n")

	return nil
}
