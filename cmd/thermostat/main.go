// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build tinygo && rp2040

// Thermostat firmware for an RP2040 board wired to an OpenTherm interface:
// GPIO2 senses the line, GPIO3 drives it. Build with
//
//	tinygo flash -target pico ./cmd/thermostat
package main

import (
	"machine"
	"time"

	"github.com/Thermoquad/otlink/pkg/opentherm"
	"github.com/Thermoquad/otlink/pkg/opentherm/machinepin"
)

const setpoint = 55.0

func main() {
	in := machinepin.NewInput(machine.GPIO2)
	out := machinepin.NewOutput(machine.GPIO3)
	link := opentherm.New(in, out, opentherm.NewSystemClock(), opentherm.Master)

	if err := link.Begin(nil); err != nil {
		println("begin failed:", err.Error())
		return
	}

	for {
		status := link.SetBoilerStatus(true, true, false, false, false)
		if status == 0 {
			println("status:", link.LastResponseStatus().String())
		} else {
			println("flame:", opentherm.IsFlameOn(status), "fault:", opentherm.IsFault(status))
		}

		if !link.SetBoilerTemperature(setpoint) {
			println("setpoint rejected:", link.LastResponseStatus().String())
		}
		println("flow:", int(link.BoilerTemperature()*10), "/10 C")

		// OpenTherm requires at least one exchange per second
		time.Sleep(800 * time.Millisecond)
	}
}
