// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pipeline orchestrates the Perturbation Integrator and the
// Transfer/Radial Projector across every enabled (mode, ic) pair,
// joining per-task futures through internal/workerpool and aggregating
// the first failure, per spec §5: "the pipeline aggregates by joining
// all futures, then returns failure once. No partial outputs are
// exposed downstream on failure."
package pipeline

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/goboltz/background"
	"github.com/cpmech/goboltz/config"
	"github.com/cpmech/goboltz/grid"
	"github.com/cpmech/goboltz/internal/workerpool"
	"github.com/cpmech/goboltz/pert"
	"github.com/cpmech/goboltz/thermo"
	"github.com/cpmech/goboltz/transfer"
)

// ModeResult is one mode's full output: the source rows for every
// enabled ic and the Δℓ arrays keyed by (ic, source-type, l).
type ModeResult struct {
	Mode    config.Mode
	Sources []transfer.SourceRow
	Deltas  []DeltaRow
}

// DeltaRow is one flattened (ic, source-type, l) row of Δℓ(q), the
// output layout named in spec §6 ("Δℓ[mode][(ic·n_tt+tt)·n_ℓ+ℓ]·n_q+q]"
// kept here as one slice-of-structs per row instead of one dense array,
// since Go callers index by field rather than by flattened offset).
type DeltaRow struct {
	IC     pert.ICKind
	Kind   pert.SourceKind
	L      int
	Values []float64 // one entry per q in the transfer q-list
}

// Output is the pipeline's full result: one ModeResult per enabled mode.
type Output struct {
	Modes []ModeResult
}

// enabledICs returns the ICKinds ICEnables turns on, in a fixed,
// deterministic order.
func enabledICs(e config.ICEnables) []pert.ICKind {
	var out []pert.ICKind
	if e.Adiabatic {
		out = append(out, pert.ICAdiabatic)
	}
	if e.BaryonIso {
		out = append(out, pert.ICBaryonIso)
	}
	if e.CdmIso {
		out = append(out, pert.ICCdmIso)
	}
	if e.NeutrinoDensityIso {
		out = append(out, pert.ICNeutrinoDensityIso)
	}
	if e.NeutrinoVelocityIso {
		out = append(out, pert.ICNeutrinoVelocityIso)
	}
	return out
}

// enabledModes returns the config.Modes turned on, in mode order
// (scalar, vector, tensor).
func enabledModes(e config.ModeEnables) []config.Mode {
	var out []config.Mode
	if e.Scalars {
		out = append(out, config.ModeScalar)
	}
	if e.Vectors {
		out = append(out, config.ModeVector)
	}
	if e.Tensors {
		out = append(out, config.ModeTensor)
	}
	return out
}

// Run executes the full pipeline: build the shared grids, dispatch one
// perturbation Task per (mode, ic, k), prepare and project sources into
// Δℓ for every enabled source type, and return one Output aggregating
// every mode's result, or the first error encountered anywhere in the
// run.
func Run(cfg *config.Config, bgP background.Provider, thP thermo.Provider) (*Output, error) {
	if err := cfg.Validate(); err != nil {
		return nil, chk.Err("pipeline: invalid configuration:\n%v", err)
	}

	modes := enabledModes(cfg.Modes)
	if len(modes) == 0 {
		return nil, chk.Err("pipeline: no mode is enabled")
	}
	ics := enabledICs(cfg.ICs)
	if len(ics) == 0 {
		return nil, chk.Err("pipeline: no initial condition is enabled")
	}

	tauToday := bgP.TauToday()
	tauIni := bgP.TauIni()
	bgToday, err := bgP.AtTau(tauToday, background.Short, &background.LastIndex{})
	if err != nil {
		return nil, chk.Err("pipeline: failed to evaluate background today:\n%v", err)
	}
	a0H0 := bgToday.A * bgToday.H
	a0H0sq := a0H0 * a0H0

	zRec := thP.ZRec()
	tauRec, err := tauAtZ(bgP, zRec)
	if err != nil {
		return nil, chk.Err("pipeline: failed to locate tau_rec:\n%v", err)
	}
	// k_rec anchors the k-grid step function to the sound-horizon scale;
	// approximated here as the wavenumber whose conformal wavelength
	// matches tau_rec, since computing the exact sound horizon is a
	// background/thermodynamics responsibility spec §1 excludes from
	// this engine.
	kRec := 2 * math.Pi / tauRec

	if cfg.Verbose {
		io.Pf("pipeline: tau_ini=%v tau_rec=%v tau_today=%v k_rec=%v\n", tauIni, tauRec, tauToday, kRec)
	}

	kgrid, err := grid.NewKGrid(cfg.K, kRec, a0H0sq, 200, 400, 600, cfg.KGrid, cfg.KGrid.OutputKValues)
	if err != nil {
		return nil, chk.Err("pipeline: k-grid construction failed:\n%v", err)
	}
	lMax := 3000
	lgrid, err := grid.NewLGrid(lMax, cfg.LGrid)
	if err != nil {
		return nil, chk.Err("pipeline: l-grid construction failed:\n%v", err)
	}

	sampleTaus := defaultSampleTaus(tauIni, tauToday, 200)

	var results []ModeResult
	for _, mode := range modes {
		mr, err := runMode(cfg, mode, ics, kgrid, lgrid, sampleTaus, bgP, thP, tauToday)
		if err != nil {
			return nil, chk.Err("pipeline: mode %v failed:\n%v", mode, err)
		}
		results = append(results, *mr)
	}
	return &Output{Modes: results}, nil
}

// tauAtZ locates the tau at which a(tau) = 1/(1+zTarget) by bisection,
// since background.Provider only exposes a(tau), not its inverse.
func tauAtZ(bgP background.Provider, zTarget float64) (float64, error) {
	lo, hi := bgP.TauIni(), bgP.TauToday()
	aOfTau := func(tau float64) (float64, error) {
		st, err := bgP.AtTau(tau, background.Short, &background.LastIndex{})
		if err != nil {
			return 0, err
		}
		return st.A, nil
	}
	targetA := 1 / (1 + zTarget)
	aLo, err := aOfTau(lo)
	if err != nil {
		return 0, err
	}
	aHi, err := aOfTau(hi)
	if err != nil {
		return 0, err
	}
	if (aLo-targetA)*(aHi-targetA) > 0 {
		return 0, chk.Err("pipeline: z_rec=%v is outside the tabulated background range", zTarget)
	}
	for it := 0; it < 200; it++ {
		mid := 0.5 * (lo + hi)
		aMid, err := aOfTau(mid)
		if err != nil {
			return 0, err
		}
		if math.Abs(aMid-targetA) < 1e-12 || (hi-lo) < 1e-10 {
			return mid, nil
		}
		if (aLo-targetA)*(aMid-targetA) <= 0 {
			hi = mid
		} else {
			lo, aLo = mid, aMid
		}
	}
	return 0.5 * (lo + hi), nil
}

func defaultSampleTaus(tauIni, tauToday float64, n int) []float64 {
	out := make([]float64, n)
	logLo, logHi := math.Log(tauIni), math.Log(tauToday)
	for i := 0; i < n; i++ {
		frac := float64(i) / float64(n-1)
		out[i] = math.Exp(logLo + frac*(logHi-logLo))
	}
	return out
}

// runMode builds one mode's k-task fleet, runs it through the
// perturbation integrator, then projects the resulting sources through
// the transfer stage for every enabled source type and multipole.
func runMode(cfg *config.Config, mode config.Mode, ics []pert.ICKind, kgrid *grid.KGrid, lgrid *grid.LGrid, sampleTaus []float64, bgP background.Provider, thP thermo.Provider, tauToday float64) (*ModeResult, error) {
	var allResults []pert.Result
	for _, ic := range ics {
		rs, err := pert.RunAll(cfg, mode, ic, kgrid.K, bgP.TauIni(), sampleTaus, bgP, thP)
		if err != nil {
			return nil, chk.Err("pipeline: perturbation stage failed for mode=%v ic=%v:\n%v", mode, ic, err)
		}
		allResults = append(allResults, rs...)
	}

	sourceRows, err := transfer.BuildSourceRows(allResults)
	if err != nil {
		return nil, chk.Err("pipeline: source regrouping failed:\n%v", err)
	}

	m := 0
	switch mode {
	case config.ModeVector:
		m = 1
	case config.ModeTensor:
		m = 2
	}
	ql, err := transfer.BuildQList(kgrid.K, cfg.K, m, cfg.KGrid)
	if err != nil {
		return nil, chk.Err("pipeline: q-list construction failed:\n%v", err)
	}

	projector, err := transfer.NewProjector(cfg, cfg.K, lMaxTarget(lgrid), 1e-3, ql.Q[len(ql.Q)-1]*tauToday, 2000)
	if err != nil {
		return nil, chk.Err("pipeline: projector construction failed:\n%v", err)
	}

	jobs := make([]workerpool.Task, len(sourceRows))
	for i, row := range sourceRows {
		row := row
		jobs[i] = func() (interface{}, error) {
			return projectRow(projector, row, ql, lgrid, m, tauToday)
		}
	}
	raw := workerpool.Run(cfg.NumWorkers, jobs)
	if err := workerpool.FirstError(raw); err != nil {
		return nil, chk.Err("pipeline: transfer stage failed:\n%v", err)
	}

	var deltas []DeltaRow
	for _, r := range raw {
		rows := r.Value.([]DeltaRow)
		deltas = append(deltas, rows...)
	}

	return &ModeResult{Mode: mode, Sources: sourceRows, Deltas: deltas}, nil
}

func lMaxTarget(lgrid *grid.LGrid) int {
	if len(lgrid.L) == 0 {
		return 2
	}
	return lgrid.L[len(lgrid.L)-1]
}

// projectRow interpolates one SourceRow onto the q-list and computes one
// DeltaRow per multipole in lgrid, choosing Limber or exact quadrature
// per transfer.UseLimber, per §4.T.3.
func projectRow(p *transfer.Projector, row transfer.SourceRow, ql *transfer.QList, lgrid *grid.LGrid, mode int, tauToday float64) ([]DeltaRow, error) {
	prepared, err := transfer.Prepare(row, ql)
	if err != nil {
		return nil, err
	}

	cat := categoryFor(row.Kind)
	kind := transfer.RadialKindFor(mode, cat, false, false)

	var out []DeltaRow
	for _, l := range lgrid.L {
		vals := make([]float64, len(ql.Q))
		for iq, q := range ql.Q {
			if transfer.UseLimber(q, l, cat, 0, false, p.Cfg.Limber) {
				sRow := make([]float64, len(prepared.Tau))
				for it := range sRow {
					sRow[it] = prepared.Values[it][iq]
				}
				tauLimb := transfer.TauLimber(tauToday, l, q)
				sAtLimb, err := transfer.SAtTauLimber(prepared.Tau, sRow, tauToday, tauLimb)
				if err != nil {
					return nil, err
				}
				vals[iq] = transfer.LimberScalarT0(l, q, p.CurvK, tauToday-tauLimb, sAtLimb*(tauToday-tauLimb))
				continue
			}
			sRow := make([]float64, len(prepared.Tau))
			for it := range sRow {
				sRow[it] = prepared.Values[it][iq]
			}
			src, err := p.PhiSourceFor(ql, iq)
			if err != nil {
				return nil, err
			}
			// truncate the tau range at tau0 - chi_at_phimin[l]/k_eff,
			// per §4.T.3: below that tau the Bessel function is
			// negligible over the whole range, so integrating it wastes
			// work without changing the result.
			chiMin, err := transfer.ChiAtPhiMin(src, l)
			if err != nil {
				return nil, err
			}
			tauMinBessel := tauToday - chiMin/q
			tauT, sT := truncateAt(prepared.Tau, sRow, tauMinBessel)
			if len(tauT) < 2 {
				vals[iq] = 0
				continue
			}
			v, err := p.ProjectExact(kind, src, l, q, q, tauToday, tauT, sT)
			if err != nil {
				return nil, err
			}
			vals[iq] = v
		}
		out = append(out, DeltaRow{IC: row.IC, Kind: row.Kind, L: l, Values: vals})
	}
	return out, nil
}

// truncateAt drops every (tau,s) sample with tau < tauMin, per §4.T.3's
// Bessel-side truncation rule.
func truncateAt(tau, s []float64, tauMin float64) ([]float64, []float64) {
	start := 0
	for start < len(tau) && tau[start] < tauMin {
		start++
	}
	return tau[start:], s[start:]
}

func categoryFor(kind pert.SourceKind) transfer.SourceCategory {
	switch kind {
	case pert.SourceLensing, pert.SourceNcLens:
		return transfer.CategoryLensing
	case pert.SourceNcRSD, pert.SourceNcGR:
		return transfer.CategoryIntegrated
	default:
		return transfer.CategoryDensity
	}
}
