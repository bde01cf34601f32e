// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pert

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/goboltz/background"
	"github.com/cpmech/goboltz/config"
	"github.com/cpmech/goboltz/internal/workerpool"
	"github.com/cpmech/goboltz/thermo"
)

// RunAll dispatches one Task per wavenumber in ks across cfg.NumWorkers
// goroutines (0 meaning GOMAXPROCS), in the independent-per-k spirit of
// the teacher's per-MPI-rank fem.NewDomains dispatch (§5's concurrency
// model). It aggregates the first failure and, on success, returns
// Results in k order.
func RunAll(cfg *config.Config, mode config.Mode, ic ICKind, ks []float64, tauIni float64, sampleTaus []float64, bgP background.Provider, thP thermo.Provider) ([]Result, error) {
	if len(ks) == 0 {
		return nil, chk.Err("pert: empty wavenumber list")
	}
	jobs := make([]workerpool.Task, len(ks))
	for i, k := range ks {
		k := k
		jobs[i] = func() (interface{}, error) {
			t := &Task{
				Cfg: cfg, Mode: mode, IC: ic, K: k, TauIni: tauIni,
				BackgroundProvider: bgP,
				ThermoProvider:      thP,
				SampleTaus:          sampleTaus,
			}
			return t.Run()
		}
	}

	if cfg.Verbose {
		io.Pf("pert: dispatching %d wavenumber tasks across %d workers\n", len(ks), cfg.NumWorkers)
	}

	raw := workerpool.Run(cfg.NumWorkers, jobs)
	if err := workerpool.FirstError(raw); err != nil {
		return nil, chk.Err("pert: perturbation integration aborted:\n%v", err)
	}

	out := make([]Result, len(raw))
	for i, r := range raw {
		out[i] = r.Value.(Result)
	}
	return out, nil
}
