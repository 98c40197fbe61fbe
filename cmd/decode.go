// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/otlink/pkg/opentherm"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <hex>...",
	Short: "Decode raw OpenTherm frames",
	Long: `Decode one or more 32-bit OpenTherm frames given as hex and print their
fields, parity and any validation issues. A gateway source letter in front
of the hex digits (T80190000) is accepted and ignored.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

func parseFrameArg(arg string) (opentherm.Frame, error) {
	s := strings.TrimSpace(arg)
	if len(s) == 9 && strings.ContainsRune("TBRA", rune(s[0])) {
		s = s[1:]
	}
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid frame %q: %w", arg, err)
	}
	return opentherm.Frame(v), nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	for _, arg := range args {
		f, err := parseFrameArg(arg)
		if err != nil {
			return err
		}

		fmt.Print(opentherm.FormatFrame(f))
		if opentherm.IsValidRequest(f) {
			fmt.Printf("  Direction: master to slave\n")
		} else if opentherm.IsValidResponse(f) {
			fmt.Printf("  Direction: slave to master\n")
		}
		for _, verr := range opentherm.ValidateFrame(f) {
			fmt.Printf("  \033[1;33mIssue:\033[0m %s\n", verr.Message)
		}
		fmt.Println()
	}
	return nil
}
