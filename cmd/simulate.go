// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/otlink/pkg/capture"
	"github.com/Thermoquad/otlink/pkg/opentherm"
	"github.com/Thermoquad/otlink/pkg/otsim"
)

var (
	simCount    int
	simSetpoint float64
	simDelay    int
	simSilent   bool
	simCorrupt  bool
	simVerbose  bool
	simRecord   string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a master against a simulated boiler",
	Long: `Run the OpenTherm master session against a simulated boiler on a virtual
wire. Every bit is driven through the same transmitter, edge handler and
polling session used on hardware; only the pins and the clock are virtual,
so a one second timeout takes microseconds of real time.

Each cycle sends the master status, writes the CH setpoint and reads the
flow temperature, return temperature, modulation and CH pressure, the way
a room thermostat does. The boiler's flow temperature drifts toward the
setpoint between cycles.

Fault injection:
  --silent   the boiler never answers (every exchange times out)
  --corrupt  the boiler flips the parity bit of every answer`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().IntVar(&simCount, "count", 5, "Number of thermostat cycles")
	simulateCmd.Flags().Float64Var(&simSetpoint, "setpoint", 60, "CH water setpoint in °C")
	simulateCmd.Flags().IntVar(&simDelay, "delay", 20, "Boiler response delay in ms")
	simulateCmd.Flags().BoolVar(&simSilent, "silent", false, "Boiler never answers")
	simulateCmd.Flags().BoolVar(&simCorrupt, "corrupt", false, "Boiler answers with bad parity")
	simulateCmd.Flags().BoolVar(&simVerbose, "verbose", false, "Log every exchange on both sides")
	simulateCmd.Flags().StringVar(&simRecord, "record", "", "Write exchanges to a capture file")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	var boilerOpts []otsim.BoilerOption
	var masterOpts []opentherm.Option
	if simVerbose {
		boilerOpts = append(boilerOpts, otsim.WithLogger(log.New(os.Stderr, "boiler ", log.Lmicroseconds)))
		masterOpts = append(masterOpts, opentherm.WithLogger(log.New(os.Stderr, "master ", log.Lmicroseconds)))
	}

	sim, err := otsim.New(boilerOpts...)
	if err != nil {
		return fmt.Errorf("failed to start boiler: %w", err)
	}
	sim.Boiler.ResponseDelay = uint32(simDelay) * 1000
	sim.Boiler.Silent = simSilent
	sim.Boiler.CorruptParity = simCorrupt

	rec, err := openRecorder(simRecord)
	if err != nil {
		return err
	}
	defer rec.Close()

	// Virtual time is reported relative to the wall clock at start
	start := time.Now()
	virtualNow := func() time.Time {
		return start.Add(time.Duration(sim.Clock().Micros()) * time.Microsecond)
	}

	stats := opentherm.NewStatistics()
	var recordErr error

	master := sim.NewMaster(masterOpts...)
	err = master.Begin(func(f opentherm.Frame, status opentherm.ResponseStatus) {
		var verrs []opentherm.ValidationError
		if status != opentherm.ResponseTimeout {
			verrs = opentherm.ValidateFrame(f)
		}
		stats.Update(opentherm.Exchange{Frame: f, Status: status, Timestamp: virtualNow()}, verrs)
		if err := rec.record(virtualNow(), capture.SourceSlave, f, status); err != nil && recordErr == nil {
			recordErr = err
		}
	})
	if err != nil {
		return fmt.Errorf("failed to start master: %w", err)
	}
	defer master.Close()

	fmt.Printf("otlink - Simulation\n")
	fmt.Printf("Cycles: %d, setpoint: %.1f°C, response delay: %d ms\n", simCount, simSetpoint, simDelay)
	if simSilent {
		fmt.Printf("Fault: silent boiler\n")
	}
	if simCorrupt {
		fmt.Printf("Fault: corrupted parity\n")
	}
	fmt.Println()

	send := func(label string, request opentherm.Frame) opentherm.Frame {
		if err := rec.record(virtualNow(), capture.SourceMaster, request, opentherm.ResponseNone); err != nil && recordErr == nil {
			recordErr = err
		}
		t0 := sim.Clock().Micros()
		response := master.SendRequest(request)
		elapsed := sim.Clock().Micros() - t0

		status := master.LastResponseStatus()
		switch status {
		case opentherm.ResponseSuccess:
			fmt.Printf("  %-12s %s \033[1;32m%s\033[0m (%.1f ms)\n", label, opentherm.FormatFrameShort(response), status, float64(elapsed)/1000)
		default:
			fmt.Printf("  %-12s %08X \033[1;31m%s\033[0m (%.1f ms)\n", label, uint32(request), status, float64(elapsed)/1000)
		}
		return response
	}

	for cycle := 1; cycle <= simCount; cycle++ {
		fmt.Printf("[%s] Cycle %d/%d\n", virtualNow().Format("15:04:05.000"), cycle, simCount)

		status := send("status", opentherm.BuildSetBoilerStatusRequest(true, true, false, false, false))
		send("setpoint", opentherm.BuildSetBoilerTemperatureRequest(simSetpoint))
		flow := send("flow", opentherm.BuildRequest(opentherm.ReadData, opentherm.MsgTBoiler, 0))
		send("return", opentherm.BuildRequest(opentherm.ReadData, opentherm.MsgTRet, 0))
		send("modulation", opentherm.BuildRequest(opentherm.ReadData, opentherm.MsgRelModLevel, 0))
		send("pressure", opentherm.BuildRequest(opentherm.ReadData, opentherm.MsgCHPressure, 0))

		if opentherm.IsValidResponse(status) {
			fmt.Printf("  boiler: CH=%v DHW=%v flame=%v fault=%v\n",
				opentherm.IsCentralHeatingActive(status), opentherm.IsHotWaterActive(status),
				opentherm.IsFlameOn(status), opentherm.IsFault(status))
		}
		fmt.Println()

		// Heat the water a tenth of the way toward the setpoint
		if opentherm.IsValidResponse(flow) {
			next := flow.Float() + (simSetpoint-flow.Float())/10
			sim.Boiler.SetValue(opentherm.MsgTBoiler, opentherm.FloatToData(next))
			sim.Boiler.SetValue(opentherm.MsgTRet, opentherm.FloatToData(next-15))
		}
	}

	fmt.Print(stats.String())
	if rec != nil {
		fmt.Printf("Recorded %d frames to %s\n", rec.count, simRecord)
	}
	return recordErr
}
