// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/otlink/pkg/otgw"
)

var (
	gwCommandCode    string
	gwCommandValue   string
	gwCommandTimeout int
	gwCommandRetries int
)

var gwCommandCmd = &cobra.Command{
	Use:   "gw_command",
	Short: "Send a command to the OpenTherm Gateway and wait for its reply",
	Long: `Send a two-letter command to the OpenTherm Gateway and wait for the reply.

The command is sent as "XX=value". The gateway answers with "XX: result",
or with an error code such as "NG" (no good) or "SE" (syntax error).
Frames reported while waiting are ignored.

Examples:
  otlink gw_command -p /dev/ttyUSB0 --code PR --value A   # firmware version
  otlink gw_command -p /dev/ttyUSB0 --code TT --value 19.5 # temporary setpoint
  otlink gw_command -p /dev/ttyUSB0 --code CS --value 60   # CH setpoint override

Exit codes:
  0 - Gateway acknowledged the command
  1 - Command rejected or timed out
  2 - Connection error`,
	RunE: runGwCommand,
}

func init() {
	rootCmd.AddCommand(gwCommandCmd)
	gwCommandCmd.Flags().StringVar(&gwCommandCode, "code", "PR", "Two-letter command code")
	gwCommandCmd.Flags().StringVar(&gwCommandValue, "value", "A", "Command argument")
	gwCommandCmd.Flags().IntVar(&gwCommandTimeout, "timeout", 5, "Timeout in seconds for each attempt")
	gwCommandCmd.Flags().IntVar(&gwCommandRetries, "retries", 3, "Number of attempts")
}

// Replies the gateway uses to refuse a command
var gatewayErrors = map[string]string{
	"NG": "no good (unknown command)",
	"SE": "syntax error",
	"BV": "bad value",
	"OR": "out of range",
	"NS": "no space",
	"NF": "not found",
	"OE": "overrun error",
}

func runGwCommand(cmd *cobra.Command, args []string) error {
	wireBytes, err := otgw.EncodeCommand(gwCommandCode, gwCommandValue)
	if err != nil {
		return err
	}
	code := strings.ToUpper(gwCommandCode)

	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("otlink - Gateway Command\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Command: %s\n\n", strings.TrimSpace(string(wireBytes)))

	decoder := otgw.NewDecoder()

	// One reader for all attempts
	replyChan := make(chan *otgw.Message, 8)
	errChan := make(chan error, 1)
	go func() {
		buf := make([]byte, 128)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}
			for j := 0; j < n; j++ {
				msg, decodeErr := decoder.DecodeByte(buf[j])
				if decodeErr != nil || msg == nil || msg.IsFrame() {
					continue
				}
				replyChan <- msg
			}
		}
	}()

	for attempt := 1; attempt <= gwCommandRetries; attempt++ {
		fmt.Printf("Attempt %d/%d: ", attempt, gwCommandRetries)

		startTime := time.Now()
		if _, err := conn.Write(wireBytes); err != nil {
			fmt.Printf("SEND FAILED: %v\n", err)
			continue
		}

		deadline := time.After(time.Duration(gwCommandTimeout) * time.Second)
	wait:
		for {
			select {
			case msg := <-replyChan:
				if reason, ok := gatewayErrors[strings.TrimSpace(msg.Text)]; ok {
					fmt.Printf("REJECTED: %s\n", reason)
					os.Exit(1)
				}
				result, ok := msg.ResponseTo(code)
				if !ok {
					// Unrelated gateway output
					continue
				}
				rtt := time.Since(startTime)
				fmt.Printf("%s: %s (rtt=%v)\n", code, result, rtt.Round(time.Millisecond))
				return nil

			case err := <-errChan:
				fmt.Printf("READ FAILED: %v\n", err)
				os.Exit(2)

			case <-deadline:
				fmt.Printf("TIMEOUT (no reply in %ds)\n", gwCommandTimeout)
				break wait
			}
		}
	}

	os.Exit(1)
	return nil
}
