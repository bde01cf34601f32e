// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transfer implements the Transfer / Radial Projector of spec
// §4.T: it convolves the perturbation stage's source functions S(k, τ)
// with hyperspherical Bessel radial functions to produce the multipole
// transfer functions Δℓ(q).
package transfer

import (
	"math"
	"sort"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/goboltz/config"
)

// QList is the transfer q-grid of §4.T.1: q² = k² + K(1+m), m=0,1,2 for
// scalar/vector/tensor, spanning [q_min, q_max] with log-to-linear
// spacing, rounded to integer ν = q/√K below hyper_flat_approximation_nu
// in the closed case (q at or above that threshold is kept as is).
type QList struct {
	Q                       []float64
	IndexFlatApproximation  int // first index where the flat approximation applies
}

// BuildQList constructs the transfer q-list for mode order m from the
// perturbation k-list and curvature curvK, per §4.T.1.
func BuildQList(kList []float64, curvK float64, m int, p config.KGridParams) (*QList, error) {
	if len(kList) == 0 {
		return nil, chk.Err("transfer: empty k-list")
	}
	ql := &QList{}
	raw := make([]float64, len(kList))
	for i, k := range kList {
		q2 := k*k + curvK*float64(1+m)
		if q2 < 0 {
			return nil, chk.Err("transfer: negative q^2=%v at k=%v (curvature too strong for mode order %d)", q2, k, m)
		}
		raw[i] = math.Sqrt(q2)
	}
	sort.Float64s(raw)

	if curvK <= 0 {
		ql.Q = raw
		ql.IndexFlatApproximation = 0
		return ql, nil
	}

	sqrtK := math.Sqrt(curvK)
	thresholdNu := p.HyperFlatApproximationNu
	var out []float64
	flatIdx := -1
	for _, q := range raw {
		nu := q / sqrtK
		if nu < thresholdNu {
			rounded := math.Round(nu) * sqrtK
			out = append(out, rounded)
		} else {
			if flatIdx < 0 {
				flatIdx = len(out)
			}
			out = append(out, q)
		}
	}
	out = dedupeSorted(out)
	if flatIdx < 0 {
		flatIdx = len(out)
	}
	ql.Q = out
	ql.IndexFlatApproximation = flatIdx
	return ql, nil
}

func dedupeSorted(xs []float64) []float64 {
	if len(xs) == 0 {
		return xs
	}
	out := xs[:1]
	for _, x := range xs[1:] {
		if x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}
