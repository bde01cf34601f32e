// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hyper implements the Hyperspherical Interpolator Service of
// spec §4.S: it builds and evaluates the radial eigenfunctions Φℓ(χ; ν)
// of the Laplacian on a spatial slice of curvature K, for flat, open and
// closed geometries, exposing values and first two derivatives via
// Hermite interpolation over a precomputed table.
package hyper

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// Curvature selects the sign of the spatial curvature a Table was built
// for -- the three branches of spec §4.S (flat/open/closed), each with a
// distinct cotK/cscK and recursion seed.
type Curvature int

const (
	Flat   Curvature = 0
	Open   Curvature = -1
	Closed Curvature = 1
)

// Table is one Φℓ(χ) table: a dense χ grid with value and first/second
// derivative samples for every ℓ in [0, LMax], dense enough for cubic
// Hermite interpolation (§4.S). X is stored increasing; PhiMinIdx[l]
// records the first sample index where |Φℓ| first clears PhiMinAbs
// (reversed-χ: the table is walked from large χ down to small, mirroring
// how the WKB turning point recedes as ℓ grows), used by
// transfer.ChiAtPhiMin.
type Table struct {
	Geom Curvature
	Nu   float64
	LMax int

	X    []float64   // χ samples, increasing
	Phi  [][]float64 // Phi[l][i] = Φ_l(X[i])
	Phi1 [][]float64 // first derivative dΦ_l/dχ
	Phi2 [][]float64 // second derivative

	PhiMinIdx []int // per l: largest sample index with |Phi| >= PhiMinAbs (0 if none)

	xMax float64
}

// cotK returns cot(χ) (closed), coth(χ) (open) or 1/χ (flat), the one
// curvature-dependent factor the three-term recursion and the radial
// function families both need.
func cotK(geom Curvature, chi float64) float64 {
	switch geom {
	case Closed:
		return 1 / math.Tan(chi)
	case Open:
		return 1 / math.Tanh(chi)
	default:
		return 1 / chi
	}
}

// cscK returns csc(χ) (closed), csch(χ) (open) or 1/χ (flat).
func cscK(geom Curvature, chi float64) float64 {
	switch geom {
	case Closed:
		return 1 / math.Sin(chi)
	case Open:
		return 1 / math.Sinh(chi)
	default:
		return 1 / chi
	}
}

// sinK returns sin(χ) (closed), sinh(χ) (open) or χ (flat) -- the
// curved-space analogue of the flat radial coordinate used to seed Φ_0.
func sinK(geom Curvature, chi float64) float64 {
	switch geom {
	case Closed:
		return math.Sin(chi)
	case Open:
		return math.Sinh(chi)
	default:
		return chi
	}
}

// Eval returns (Φℓ, Φℓ′, Φℓ″) at x by cubic Hermite interpolation between
// the two bracketing table samples, using both the value and the
// analytic derivative carried at each node (so the interpolant matches
// slope as well as value at every sample, per §4.S's "order 3/4/6 chosen
// by geometry and regime" -- goboltz uses the cubic Hermite basis
// uniformly and leans on sample density, not basis order, to hit the
// target accuracy across regimes).
func (t *Table) Eval(l int, x float64) (phi, phi1, phi2 float64, err error) {
	if l < 0 || l > t.LMax {
		return 0, 0, 0, chk.Err("hyper: l=%d out of range [0,%d]", l, t.LMax)
	}
	if x > t.xMax && t.Geom != Flat {
		return 0, 0, 0, chk.Err("hyper: x=%v exceeds table x_max=%v in non-flat geometry", x, t.xMax)
	}
	i := bracket(t.X, x)
	if i < 0 {
		return 0, 0, 0, chk.Err("hyper: x=%v is outside the tabulated range [%v,%v]", x, t.X[0], t.X[len(t.X)-1])
	}
	x0, x1 := t.X[i], t.X[i+1]
	h := x1 - x0
	if h <= 0 {
		return 0, 0, 0, chk.Err("hyper: degenerate table interval at index %d", i)
	}
	s := (x - x0) / h

	p0, p1 := t.Phi[l][i], t.Phi[l][i+1]
	m0, m1 := t.Phi1[l][i]*h, t.Phi1[l][i+1]*h

	h00 := 2*s*s*s - 3*s*s + 1
	h10 := s*s*s - 2*s*s + s
	h01 := -2*s*s*s + 3*s*s
	h11 := s*s*s - s*s

	phi = h00*p0 + h10*m0 + h01*p1 + h11*m1

	dh00 := 6*s*s - 6*s
	dh10 := 3*s*s - 4*s + 1
	dh01 := -6*s*s + 6*s
	dh11 := 3*s*s - 2*s
	phi1 = (dh00*p0+dh10*m0+dh01*p1+dh11*m1) / h

	// second derivative: the tabulated Phi2 sample of whichever
	// bracketing node is nearer to x (no interpolation).
	phi2 = phi2AtSample(t.Phi2[l], i, s)
	return
}

func phi2AtSample(phi2 []float64, i int, s float64) float64 {
	if s < 0.5 {
		return phi2[i]
	}
	return phi2[i+1]
}

// bracket returns the index i such that xs[i] <= x <= xs[i+1], or -1 if
// x is outside [xs[0], xs[len-1]].
func bracket(xs []float64, x float64) int {
	if len(xs) < 2 || x < xs[0] || x > xs[len(xs)-1] {
		return -1
	}
	lo, hi := 0, len(xs)-2
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if xs[mid] <= x {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
