// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grid

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// TauSample evaluates the quantities needed to step and bisect the
// τ-grid: aH, κ′_eff (opacity, possibly damped near reionization tail
// handling performed by the caller's thermo provider), and z (redshift)
// for CMB-start bisection.
type TauSample struct {
	AH      float64
	KappaEff float64
	Z       float64
}

// TauGrid is the conformal-time grid, with a late-sources suffix
// re-indexed for ln(τ) spline interpolation at arbitrary z (§3).
type TauGrid struct {
	Tau           []float64
	LateStart     int // index where z <= z_max_pk begins
	TauToday      float64
}

// BisectStartTau finds τ_ini such that aH/κ′ ≈ target, by bisection on
// the caller-supplied sampler, used when CMB sources are wanted (§3).
func BisectStartTau(tauLo, tauHi, target float64, sample func(tau float64) (TauSample, error)) (float64, error) {
	f := func(tau float64) (float64, error) {
		s, err := sample(tau)
		if err != nil {
			return 0, err
		}
		if s.KappaEff <= 0 {
			return 0, chk.Err("grid: kappa_eff must be positive at tau=%v for start-of-integration bisection", tau)
		}
		return s.AH/s.KappaEff - target, nil
	}
	root, err := bisect(f, tauLo, tauHi, 1e-10, 200)
	if err != nil {
		return 0, chk.Err("grid: failed to bisect start tau:\n%v", err)
	}
	return root, nil
}

// bisect is a thin wrapper giving goboltz's own error-wrapped signature
// over a plain bisection, grounded on gosl/num's root-bisection role
// (gofem/gosl use num for numerical root-finding support routines).
func bisect(f func(float64) (float64, error), lo, hi, tol float64, maxIt int) (float64, error) {
	flo, err := f(lo)
	if err != nil {
		return 0, err
	}
	fhi, err := f(hi)
	if err != nil {
		return 0, err
	}
	if flo*fhi > 0 {
		return 0, chk.Err("grid: bisection bracket does not contain a root: f(%v)=%v, f(%v)=%v", lo, flo, hi, fhi)
	}
	for it := 0; it < maxIt; it++ {
		mid := 0.5 * (lo + hi)
		fm, err := f(mid)
		if err != nil {
			return 0, err
		}
		if math.Abs(fm) < tol || (hi-lo) < tol {
			return mid, nil
		}
		if flo*fm <= 0 {
			hi, fhi = mid, fm
		} else {
			lo, flo = mid, fm
		}
	}
	return 0.5 * (lo + hi), nil
}

// NewTauGrid builds the time grid by stepping from tauIni to tauToday
// with step = stepsize * min(1/aH, 1/kappaEff), recording the index
// where the late-sources suffix (z <= zMaxPk) begins.
func NewTauGrid(tauIni, tauToday, stepsize, zMaxPk float64, sample func(tau float64) (TauSample, error)) (*TauGrid, error) {
	if tauIni >= tauToday {
		return nil, chk.Err("grid: tau_ini (%v) must be < tau_today (%v)", tauIni, tauToday)
	}
	g := &TauGrid{TauToday: tauToday}
	tau := tauIni
	g.Tau = append(g.Tau, tau)
	for tau < tauToday {
		s, err := sample(tau)
		if err != nil {
			return nil, err
		}
		if s.AH == 0 {
			return nil, chk.Err("grid: aH == 0 at queried tau=%v", tau)
		}
		dtH := 1 / math.Abs(s.AH)
		dt := dtH
		if s.KappaEff > 0 {
			dtC := 1 / s.KappaEff
			if dtC < dt {
				dt = dtC
			}
		}
		step := stepsize * dt
		if step < 1e-300 {
			return nil, chk.Err("grid: tau-step underflowed machine precision at tau=%v", tau)
		}
		tau += step
		if tau > tauToday {
			tau = tauToday
		}
		g.Tau = append(g.Tau, tau)
	}
	g.LateStart = len(g.Tau)
	for i, t := range g.Tau {
		s, err := sample(t)
		if err != nil {
			return nil, err
		}
		if s.Z <= zMaxPk {
			g.LateStart = i
			break
		}
	}
	return g, nil
}

// LateLogInterp linearly interpolates a quantity tabulated on the
// late-sources suffix in ln(τ), per §3's late-sources spline-in-ln-τ
// contract (a full natural cubic spline is used by transfer.SourcePrep;
// this helper gives the grid package's own lightweight fallback used by
// diagnostics).
func (g *TauGrid) LateLogInterp(values []float64, tau float64) (float64, error) {
	if tau <= 0 {
		return 0, chk.Err("grid: cannot ln-interpolate at tau<=0")
	}
	lnTau := math.Log(tau)
	lo := g.LateStart
	hi := len(g.Tau) - 1
	if lo >= hi {
		return 0, chk.Err("grid: late-sources suffix too short for interpolation")
	}
	if tau < g.Tau[lo] || tau > g.Tau[hi] {
		return 0, chk.Err("grid: tau=%v outside late-sources suffix [%v, %v]", tau, g.Tau[lo], g.Tau[hi])
	}
	i := lo
	for i < hi-1 && g.Tau[i+1] < tau {
		i++
	}
	x0, x1 := math.Log(g.Tau[i]), math.Log(g.Tau[i+1])
	frac := (lnTau - x0) / (x1 - x0)
	return values[i] + frac*(values[i+1]-values[i]), nil
}
