// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pert

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/ode"

	"github.com/cpmech/goboltz/config"
)

// Integrator wraps gosl/ode.ODE the way ana.ColumnFluidPressure does: one
// long-lived solver instance, driven segment by segment with repeated
// Solve calls rather than a single call over the whole range, so a
// caller can inspect (and record source functions from) the vector
// between segments -- the sampling discipline of §4.P.3, implemented
// without relying on any solver-internal step hook.
type Integrator struct {
	solver ode.ODE
	neq    int
}

// StepFunc is invoked with the tau reached and the vector's value after
// each segment of the piecewise integration; used by Sampler to record
// source functions at the sampling grid's tau values.
type StepFunc func(tau float64, y []float64) error

// NewIntegrator builds a solver bound to sys's Derivatives, selecting the
// stiff NDF15/Radau5-class backend or the explicit RK alternative per
// cfg.Evolver (§4.P.3).
func NewIntegrator(sys *System, cfg *config.Config) *Integrator {
	neq := sys.Layout.Size
	in := &Integrator{neq: neq}

	method := "Radau5"
	if cfg.Evolver == config.EvolverRK {
		method = "Dopri5"
	}

	fcn := func(f []float64, dtau, tau float64, y []float64, args ...interface{}) error {
		return sys.Derivatives(tau, y, f)
	}

	var solver ode.ODE
	silent := !cfg.Verbose
	solver.Init(method, neq, fcn, nil, nil, nil, silent)
	solver.Distr = false // one goroutine per k task; no MPI-aware distribution needed
	in.solver = solver
	return in
}

// Step advances y across one segment [tauLo, tauHi], the single-segment
// primitive both Solve and the task driver's schedule-aware loop build
// on (the latter needs to stop exactly at approximation-regime switch
// times, which rarely land on a sampled tau).
func (in *Integrator) Step(y []float64, tauLo, tauHi float64) error {
	if len(y) != in.neq {
		return chk.Err("pert: integration vector has %d entries, layout expects %d", len(y), in.neq)
	}
	if tauHi <= tauLo {
		return chk.Err("pert: integration segment is not strictly increasing (tauLo=%v, tauHi=%v)", tauLo, tauHi)
	}
	dx0 := tauHi - tauLo
	if err := in.solver.Solve(y, tauLo, tauHi, dx0, false); err != nil {
		return chk.Err("pert: stiff ODE integration failed on [%v, %v]:\n%v", tauLo, tauHi, err)
	}
	return nil
}

// Solve integrates y (already populated with the initial condition)
// piecewise across the given strictly increasing sample taus, calling
// onStep after reaching each one, and returns a fatal error per §7's
// integration-failure taxonomy if any segment fails to converge.
func (in *Integrator) Solve(y []float64, tauIni float64, sampleTaus []float64, onStep StepFunc) error {
	prev := tauIni
	for i, tau := range sampleTaus {
		if tau <= prev {
			return chk.Err("pert: sampling grid is not strictly increasing at index %d (tau=%v, previous=%v)", i, tau, prev)
		}
		if err := in.Step(y, prev, tau); err != nil {
			return err
		}
		if onStep != nil {
			if err := onStep(tau, y); err != nil {
				return err
			}
		}
		prev = tau
	}
	return nil
}
