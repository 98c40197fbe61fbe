// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/otlink/pkg/opentherm"
	"github.com/Thermoquad/otlink/pkg/otgw"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
)

var errorDetectionCmd = &cobra.Command{
	Use:   "error_detection",
	Short: "Detect and analyze corrupted frames and anomalies",
	Long: `Track frame errors, protocol violations, and anomalous values with statistics.

This command validates each frame reported by the gateway and detects:
  - Parity errors
  - Illegal message types and set spare bits
  - Unknown data-ids
  - Out of range values (temperatures, modulation, CH pressure)
  - Statistics and trends (frame rate, error rate, success rate)

By default, only errors are displayed. Use --show-all to display valid frames too.

Frames are validated in real-time, with errors highlighted immediately and
periodic statistics summaries displayed at configurable intervals.`,
	RunE: runErrorDetection,
}

func init() {
	rootCmd.AddCommand(errorDetectionCmd)
	errorDetectionCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all frames (not just errors)")
	errorDetectionCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	errorDetectionCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

func runErrorDetection(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	if useTUI {
		return runTUIMode(conn, connInfo)
	}
	return runTextMode(conn, connInfo)
}

// printDecodeError prints a decode error in highlighted format
func printDecodeError(err error) {
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;31mDECODE ERROR:\033[0m %v\n", timestamp, err)
	fmt.Printf("  >>> LINE DISCARDED <<<\n\n")
}

// printValidationErrors prints validation errors for a frame
func printValidationErrors(msg *otgw.Message, errors []opentherm.ValidationError) {
	timestamp := msg.Timestamp.Format("15:04:05.000")
	f := msg.Frame

	fmt.Printf("[%s] \033[1;33mVALIDATION ERROR:\033[0m %s %s %s (%08X)\n",
		timestamp, msg.Source, f.MessageType(), f.DataID(), uint32(f))

	for i, err := range errors {
		switch err.Type {
		case opentherm.AnomalyParityError:
			fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, err.Message)

		case opentherm.AnomalyIllegalType, opentherm.AnomalySpareBits:
			fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, err.Message)

		case opentherm.AnomalyUnknownDataID:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, err.Message)
			fmt.Printf("    payload=0x%04X\n", f.UInt16())

		case opentherm.AnomalyInvalidTemp, opentherm.AnomalyInvalidModulation, opentherm.AnomalyInvalidPressure:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, err.Message)
			if v, ok := err.Details["value"].(float64); ok {
				fmt.Printf("    raw=0x%04X decoded=%.3f\n", f.UInt16(), v)
			}

		default:
			fmt.Printf("  Issue %d: %s\n", i+1, err.Message)
		}
	}

	fmt.Printf("  >>> FRAME REJECTED <<<\n\n")
}

// runTUIMode runs error detection in TUI mode
func runTUIMode(conn Connection, connInfo string) error {
	decoder := otgw.NewDecoder()
	synchronized := false
	invalidLinesBeforeSync := 0

	// Create TUI program
	m := initialModel(connInfo, statsInterval, showAll)
	p := tea.NewProgram(m)

	// Reader goroutine
	go func() {
		buf := make([]byte, 128)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				if err == ErrConnectionClosed {
					p.Send(gatewayDataMsg{decodeErr: err})
					return
				}
				log.Printf("Read error: %v", err)
				continue
			}

			for i := 0; i < n; i++ {
				msg, decodeErr := decoder.DecodeByte(buf[i])

				if decodeErr != nil {
					if synchronized {
						p.Send(gatewayDataMsg{decodeErr: decodeErr})
					} else {
						invalidLinesBeforeSync++
					}
					continue
				}
				if msg == nil {
					continue
				}
				if !msg.IsFrame() {
					p.Send(gatewayDataMsg{message: msg})
					continue
				}

				if !synchronized {
					// First frame line, the stream is aligned
					synchronized = true
					p.Send(syncMsg{invalidLines: invalidLinesBeforeSync})
				}

				p.Send(gatewayDataMsg{
					message:          msg,
					validationErrors: opentherm.ValidateFrame(msg.Frame),
				})
			}
		}
	}()

	// Run TUI
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}

// runTextMode runs error detection in text mode
func runTextMode(conn Connection, connInfo string) error {
	fmt.Printf("otlink - Error Detection Mode\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All frames\n")
	} else {
		fmt.Printf("Mode: Errors only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := otgw.NewDecoder()
	stats := opentherm.NewStatistics()

	// Sync tracking - ignore decode errors until first frame line
	synchronized := false
	invalidLinesBeforeSync := 0

	// Statistics ticker
	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	// Channel for non-blocking reads
	readBuf := make(chan []byte, 10)
	readErr := make(chan error, 1)
	go func() {
		buf := make([]byte, 128)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				if err == ErrConnectionClosed {
					readErr <- err
					return
				}
				log.Printf("Read error: %v", err)
				continue
			}
			data := make([]byte, n)
			copy(data, buf[:n])
			readBuf <- data
		}
	}()

	for {
		select {
		case data := <-readBuf:
			for _, b := range data {
				msg, decodeErr := decoder.DecodeByte(b)

				if decodeErr != nil {
					if synchronized {
						printDecodeError(decodeErr)
					} else {
						invalidLinesBeforeSync++
					}
					continue
				}
				if msg == nil {
					continue
				}
				if !msg.IsFrame() {
					if showAll {
						fmt.Printf("[%s] \033[1;36mGATEWAY:\033[0m %s\n\n", msg.Timestamp.Format("15:04:05.000"), msg.Text)
					}
					continue
				}

				if !synchronized {
					synchronized = true
					if invalidLinesBeforeSync > 0 {
						fmt.Printf("[SYNC] Synchronized after skipping %d invalid lines\n\n", invalidLinesBeforeSync)
					} else {
						fmt.Printf("[SYNC] Synchronized\n\n")
					}
				}

				validationErrors := opentherm.ValidateFrame(msg.Frame)
				stats.Update(exchangeFromMessage(msg), validationErrors)

				if len(validationErrors) > 0 {
					printValidationErrors(msg, validationErrors)
				} else if showAll {
					fmt.Printf("[%s] %s\n", msg.Timestamp.Format("15:04:05.000"), msg)
				}
			}

		case err := <-readErr:
			fmt.Println()
			fmt.Print(stats.String())
			return err

		case <-statsTicker.C:
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
		}
	}
}
