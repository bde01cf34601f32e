// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pert

import (
	"math"
	"sort"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/goboltz/approx"
	"github.com/cpmech/goboltz/background"
	"github.com/cpmech/goboltz/config"
	"github.com/cpmech/goboltz/species"
	"github.com/cpmech/goboltz/thermo"
)

// Task is the per-(mode, ic, k) unit of work dispatched by the worker
// pool: build a roster, set the initial condition, integrate to
// tau_today sampling sources along the way, and return the resulting
// rows -- the perturbation integrator's top-level responsibility
// (§4.P's "for each (mode, ic, k) produce y(tau) ... emit a source
// tuple into S").
type Task struct {
	Cfg    *config.Config
	Mode   config.Mode
	IC     ICKind
	K      float64
	TauIni float64

	BackgroundProvider background.Provider
	ThermoProvider      thermo.Provider
	SampleTaus          []float64
}

// Result is one task's output: the source rows for this k, or the error
// that aborted it.
type Result struct {
	K    float64
	IC   ICKind
	Rows []Sample
}

// Run executes the task: build the roster, bisect the approximation
// schedule (§4.P.2), seed the initial condition at the schedule's
// initial regime, then integrate piecewise across SampleTaus *and*
// every regime switch time -- transitioning the layout and refreshing
// surrogates at each one -- recording a Sample at every SampleTaus
// landing, and return the accumulated rows.
func (t *Task) Run() (Result, error) {
	if t.Cfg == nil {
		return Result{}, chk.Err("pert: task has no configuration")
	}
	if t.K <= 0 {
		return Result{}, chk.Err("pert: task wavenumber must be positive, got %v", t.K)
	}
	if t.Mode != config.ModeScalar {
		// BuildRoster only ever assembles the scalar hierarchy (metric
		// phi/eta plus the scalar species multipoles); there is no
		// vector or tensor roster to dispatch onto yet. Running the
		// scalar roster under a vector/tensor label would silently
		// mislabel scalar numbers, so this is a fatal configuration
		// error instead (tracked gap, see DESIGN.md).
		return Result{}, chk.Err("pert: mode %v has no implemented roster; only config.ModeScalar is supported", t.Mode)
	}

	builder := NewBuilder(t.Cfg)
	roster, _, err := builder.BuildRoster(t.Cfg.Gauge)
	if err != nil {
		return Result{}, err
	}

	tauToday := t.BackgroundProvider.TauToday()
	sched, err := approx.NewSchedule(t.TauIni, tauToday, t.Cfg, t.triggerSampler())
	if err != nil {
		return Result{}, chk.Err("pert: approximation schedule failed for k=%v:\n%v", t.K, err)
	}

	applyApproxState(roster, sched.Intervals[0].State)
	layout := BuildLayout(roster)
	sys := NewSystem(t.Cfg, roster, layout, t.K, t.BackgroundProvider, t.ThermoProvider)

	y, err := InitialConditions(t.IC, sys, t.TauIni, t.Cfg.K)
	if err != nil {
		return Result{}, chk.Err("pert: initial condition failed for k=%v:\n%v", t.K, err)
	}

	sampler := NewSampler(sys, t.Cfg.Sources)
	integrator := NewIntegrator(sys, t.Cfg)

	steps := mergeBreakpoints(t.SampleTaus, tauToday, sched.SwitchTimes)
	ivIdx := 0
	prev := t.TauIni
	for _, bp := range steps {
		if bp.tau > prev {
			if err := integrator.Step(y, prev, bp.tau); err != nil {
				return Result{}, chk.Err("pert: integration failed for k=%v:\n%v", t.K, err)
			}
			prev = bp.tau
		}
		if bp.isSample {
			if err := sampler.Record(bp.tau, y); err != nil {
				return Result{}, err
			}
		}
		if bp.isSwitch {
			for ivIdx+1 < len(sched.Intervals) && sched.Intervals[ivIdx].TauHi <= bp.tau {
				ivIdx++
			}
			newState := sched.Intervals[ivIdx].State

			ySlices := make(map[species.Kind][]float64, len(roster))
			for _, sp := range roster {
				if sp2, ok := sys.Layout.Lookup(sp.Kind().String()); ok {
					ySlices[sp.Kind()] = y[sp2.Offset : sp2.Offset+sp2.Length]
				}
			}
			sys.RefreshSurrogates(newState, ySlices)

			applyApproxState(roster, newState)
			newLayout := BuildLayout(roster)
			oldVec := &Vector{Layout: sys.Layout, Y: y}
			y = oldVec.Transition(newLayout).Y
			sys.Layout = newLayout
			integrator = NewIntegrator(sys, t.Cfg)
		}
	}

	return Result{K: t.K, IC: t.IC, Rows: sampler.Rows()}, nil
}

// triggerSampler evaluates approx.Trigger at a given tau from this
// task's own background/thermo providers, tracked with a private
// locality hint so the schedule's bisection (which samples
// non-monotonically) never disturbs System's own last-index state.
func (t *Task) triggerSampler() approx.TriggerSampler {
	var lastBg background.LastIndex
	var lastTh thermo.LastIndex
	return func(tau float64) (approx.Trigger, error) {
		bgState, err := t.BackgroundProvider.AtTau(tau, background.Normal, &lastBg)
		if err != nil {
			return approx.Trigger{}, err
		}
		z := 0.0
		if bgState.A > 0 {
			z = 1/bgState.A - 1
		}
		thState, err := t.ThermoProvider.AtZ(z, &lastTh)
		if err != nil {
			return approx.Trigger{}, err
		}
		trig := approx.Trigger{TauK: 1 / t.K}
		if thState.Kappa1 > 0 {
			trig.TauC = 1 / thState.Kappa1
		} else {
			trig.TauC = math.Inf(1)
		}
		ah := bgState.A * bgState.H
		if ah > 0 {
			trig.TauH = 1 / ah
		} else {
			trig.TauH = math.Inf(1)
		}
		// RSA additionally requires free streaming to have already
		// started; lacking a dedicated config knob or a z->tau lookup
		// available at this layer, tau_ini is used as the threshold,
		// leaving the tau_h/tau_k ratio as RSA's binding trigger
		// (simplification tracked in DESIGN.md).
		trig.Extra = map[string]float64{"tau_free_streaming": t.TauIni}
		return trig, nil
	}
}

// breakpoint is one tau the task driver must land on exactly: either a
// requested source-sampling tau, or an approximation-regime switch time
// (or both, in the rare case they coincide).
type breakpoint struct {
	tau              float64
	isSample, isSwitch bool
}

// mergeBreakpoints merges sampleTaus (plus tauToday, always a landing
// point) with switchTimes into one sorted, deduplicated step list, so
// the driver can integrate straight through a switch time without
// recording a spurious extra source row there -- every k's task records
// one row per distinct sample tau (sampleTaus plus tauToday, which merges
// with the last sample when the two coincide) regardless of where its own
// schedule happens to switch, keeping transfer.BuildSourceRows' shared
// tau grid intact across k.
func mergeBreakpoints(sampleTaus []float64, tauToday float64, switchTimes []float64) []breakpoint {
	const eps = 1e-9
	type mark struct {
		tau        float64
		sample, sw bool
	}
	all := make([]mark, 0, len(sampleTaus)+1+len(switchTimes))
	for _, tau := range sampleTaus {
		all = append(all, mark{tau: tau, sample: true})
	}
	all = append(all, mark{tau: tauToday, sample: true})
	for _, tau := range switchTimes {
		all = append(all, mark{tau: tau, sw: true})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].tau < all[j].tau })

	var out []breakpoint
	for _, m := range all {
		if len(out) > 0 && math.Abs(out[len(out)-1].tau-m.tau) < eps*(1+math.Abs(m.tau)) {
			out[len(out)-1].isSample = out[len(out)-1].isSample || m.sample
			out[len(out)-1].isSwitch = out[len(out)-1].isSwitch || m.sw
			continue
		}
		out = append(out, breakpoint{tau: m.tau, isSample: m.sample, isSwitch: m.sw})
	}
	return out
}
