// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package otgw

import (
	"fmt"
	"strings"

	"github.com/Thermoquad/otlink/pkg/opentherm"
)

// EncodeCommand builds a gateway command line "XX=value\r\n"
func EncodeCommand(code, value string) ([]byte, error) {
	code = strings.ToUpper(code)
	if len(code) != 2 || !isUpper(code[0]) || !isUpper(code[1]) {
		return nil, fmt.Errorf("invalid command code %q: want two letters", code)
	}
	for i := 0; i < len(value); i++ {
		if value[i] < 0x20 || value[i] > 0x7E {
			return nil, fmt.Errorf("invalid byte 0x%02X in command value", value[i])
		}
	}
	line := code + "=" + value + "\r\n"
	if len(line) > MaxLineLength {
		return nil, fmt.Errorf("command too long: %d bytes (max %d)", len(line), MaxLineLength)
	}
	return []byte(line), nil
}

// EncodeFrame renders a frame the way the gateway prints it
func EncodeFrame(src Source, f opentherm.Frame) []byte {
	return []byte(fmt.Sprintf("%c%08X\r\n", byte(src), uint32(f)))
}

func isUpper(b byte) bool {
	return b >= 'A' && b <= 'Z'
}
