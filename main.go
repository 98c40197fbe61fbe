// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// otlink - OpenTherm link toolkit
//
// A CLI tool for monitoring OpenTherm links through a gateway and for
// exercising the OpenTherm link layer against a simulated boiler.

package main

import (
	"os"

	"github.com/Thermoquad/otlink/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
