// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/otlink/pkg/opentherm"
)

var (
	encodeType  string
	encodeID    string
	encodeValue string
	encodeRaw   bool
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Build an OpenTherm frame",
	Long: `Build a 32-bit OpenTherm frame with correct parity.

Master types (READ_DATA, WRITE_DATA) are built as requests, any other type
as a response. The value is a decimal number encoded as signed 8.8 fixed
point, or a raw 16-bit payload with --raw.

Examples:
  otlink encode --type READ_DATA --id TBOILER
  otlink encode --type WRITE_DATA --id TSET --value 55.5
  otlink encode --type READ_ACK --id STATUS --value 0x030A --raw`,
	RunE: runEncode,
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().StringVar(&encodeType, "type", "READ_DATA", "Message type name or number")
	encodeCmd.Flags().StringVar(&encodeID, "id", "STATUS", "Data-id name or number")
	encodeCmd.Flags().StringVar(&encodeValue, "value", "0", "Value (8.8 fixed point unless --raw)")
	encodeCmd.Flags().BoolVar(&encodeRaw, "raw", false, "Treat --value as a raw 16-bit payload")
}

func runEncode(cmd *cobra.Command, args []string) error {
	mt, err := opentherm.ParseMessageType(encodeType)
	if err != nil {
		return err
	}
	id, err := opentherm.ParseDataID(encodeID)
	if err != nil {
		return err
	}

	var data uint16
	if encodeRaw {
		v, err := strconv.ParseUint(encodeValue, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid raw payload %q: %w", encodeValue, err)
		}
		data = uint16(v)
	} else {
		v, err := strconv.ParseFloat(encodeValue, 64)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", encodeValue, err)
		}
		data = opentherm.FloatToData(v)
	}

	var f opentherm.Frame
	switch mt {
	case opentherm.ReadData, opentherm.WriteData:
		f = opentherm.BuildRequest(mt, id, data)
	default:
		f = opentherm.BuildResponse(mt, id, data)
	}

	fmt.Printf("%08X\n", uint32(f))
	fmt.Print(opentherm.FormatFrame(f))
	return nil
}
