// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/otlink/pkg/capture"
	"github.com/Thermoquad/otlink/pkg/opentherm"
	"github.com/Thermoquad/otlink/pkg/otgw"
)

var replayErrorsOnly bool

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Print and validate a capture file",
	Long: `Read a capture file written by raw_log --record or simulate --record,
print every frame and finish with the same statistics as error_detection.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolVar(&replayErrorsOnly, "errors-only", false, "Only print frames with validation issues")
}

func sourceName(source byte) string {
	switch source {
	case capture.SourceMaster:
		return "master"
	case capture.SourceSlave:
		return "slave"
	default:
		return otgw.Source(source).String()
	}
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	r, err := capture.NewReader(f)
	if err != nil {
		return err
	}

	stats := opentherm.NewStatistics()
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		// Requests the master sent itself carry no outcome
		if rec.ResponseStatus() == opentherm.ResponseNone && rec.Source == capture.SourceMaster {
			if !replayErrorsOnly {
				fmt.Printf("[%s] %-10s %s\n", rec.Time().Format("15:04:05.000"), sourceName(rec.Source), opentherm.FormatFrameShort(rec.OpenThermFrame()))
			}
			continue
		}

		var verrs []opentherm.ValidationError
		if rec.ResponseStatus() != opentherm.ResponseTimeout {
			verrs = opentherm.ValidateFrame(rec.OpenThermFrame())
		}
		stats.Update(opentherm.Exchange{
			Frame:     rec.OpenThermFrame(),
			Status:    rec.ResponseStatus(),
			Timestamp: rec.Time(),
		}, verrs)

		if replayErrorsOnly && len(verrs) == 0 && rec.ResponseStatus() == opentherm.ResponseSuccess {
			continue
		}
		fmt.Printf("[%s] %-10s %s %s\n", rec.Time().Format("15:04:05.000"), sourceName(rec.Source),
			opentherm.FormatFrameShort(rec.OpenThermFrame()), rec.ResponseStatus())
		for _, verr := range verrs {
			fmt.Printf("    \033[1;33m%s\033[0m\n", verr.Message)
		}
	}

	fmt.Println()
	fmt.Print(stats.String())
	return nil
}
