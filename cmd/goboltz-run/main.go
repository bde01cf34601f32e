// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command goboltz-run is the thin CLI shell around the core engine: it
// loads a configuration file and a pair of tabulated background/thermo
// providers, runs the pipeline, and writes the resulting source and Δℓ
// arrays to disk. It carries none of the engine's logic itself, mirroring
// how gofem's own main.go is a thin wrapper around fem.Start/fem.Run.
package main

import (
	"bytes"
	"encoding/json"
	"flag"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/utl"

	"github.com/cpmech/goboltz/background"
	"github.com/cpmech/goboltz/config"
	"github.com/cpmech/goboltz/pipeline"
	"github.com/cpmech/goboltz/thermo"
)

func main() {
	configPath := flag.String("config", "", "path to a goboltz JSON configuration file (defaults built in if empty)")
	backgroundPath := flag.String("background", "", "path to a JSON array of background.Row (required)")
	thermoPath := flag.String("thermo", "", "path to a JSON array of thermo.Row (required)")
	outPath := flag.String("out", "goboltz-output.json", "path to write the resulting source/transfer arrays")
	profile := flag.Bool("prof", false, "enable CPU profiling for this run")
	flag.Parse()

	defer utl.DoProf(*profile)()

	defer func() {
		if err := recover(); err != nil {
			chk.Verbose = true
			io.PfRed("goboltz-run: ERROR: %v\n", err)
		}
	}()

	if *backgroundPath == "" || *thermoPath == "" {
		chk.Panic("goboltz-run: both -background and -thermo table files are required")
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			chk.Panic("goboltz-run: %v", err)
		}
	}

	bgRows, err := readBackgroundRows(*backgroundPath)
	if err != nil {
		chk.Panic("goboltz-run: %v", err)
	}
	bgP, err := background.NewTableProvider(bgRows)
	if err != nil {
		chk.Panic("goboltz-run: %v", err)
	}

	thRows, err := readThermoRows(*thermoPath)
	if err != nil {
		chk.Panic("goboltz-run: %v", err)
	}
	thP, err := thermo.NewTableProvider(thRows)
	if err != nil {
		chk.Panic("goboltz-run: %v", err)
	}

	if cfg.Verbose {
		io.Pf("goboltz-run: loaded %d background rows, %d thermo rows\n", len(bgRows), len(thRows))
	}

	out, err := pipeline.Run(cfg, bgP, thP)
	if err != nil {
		chk.Panic("goboltz-run: %v", err)
	}

	if err := writeOutput(*outPath, out); err != nil {
		chk.Panic("goboltz-run: %v", err)
	}
	if cfg.Verbose {
		io.Pf("goboltz-run: wrote results to %s\n", *outPath)
	}
}

func readBackgroundRows(path string) ([]background.Row, error) {
	buf, err := io.ReadFile(path)
	if err != nil {
		return nil, chk.Err("cannot read background table %q:\n%v", path, err)
	}
	var rows []background.Row
	if err := json.Unmarshal(buf, &rows); err != nil {
		return nil, chk.Err("cannot parse background table %q:\n%v", path, err)
	}
	return rows, nil
}

func readThermoRows(path string) ([]thermo.Row, error) {
	buf, err := io.ReadFile(path)
	if err != nil {
		return nil, chk.Err("cannot read thermo table %q:\n%v", path, err)
	}
	var rows []thermo.Row
	if err := json.Unmarshal(buf, &rows); err != nil {
		return nil, chk.Err("cannot parse thermo table %q:\n%v", path, err)
	}
	return rows, nil
}

func writeOutput(path string, out *pipeline.Output) error {
	buf, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return chk.Err("cannot marshal pipeline output:\n%v", err)
	}
	io.WriteFileV(path, bytes.NewBuffer(buf))
	return nil
}
