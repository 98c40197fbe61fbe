// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Thermoquad/otlink/pkg/otgw"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// Network connection flags
	tcpAddress    string
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool
)

var rootCmd = &cobra.Command{
	Use:   "otlink",
	Short: "OpenTherm link toolkit",
	Long: `otlink - A CLI tool for monitoring and exercising OpenTherm links.

Watches a live thermostat/boiler link through an OpenTherm Gateway, decodes
and validates frames, records captures, and runs a master against a
simulated boiler to exercise the link layer without hardware.

Connection modes (gateway commands):
  Serial:    --port /dev/ttyUSB0 [--baud 9600]
  TCP:       --tcp otgw.local:6638
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the OTLINK_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version: "1.0.0",
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", otgw.DefaultBaudRate, "Baud rate (serial only)")

	// Network connection flags
	rootCmd.PersistentFlags().StringVar(&tcpAddress, "tcp", "", "Gateway TCP address (host:port)")
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
