// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package grid builds the wavenumber, multipole and conformal-time grids
// described in spec §3 and §4.P.1.
package grid

import (
	"math"
	"sort"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/goboltz/config"
)

// KGrid is the wavenumber grid for one mode, with three nested regions
// k_size_cmb ≤ k_size_cl ≤ k_size (§3).
type KGrid struct {
	K           []float64
	SizeCMB     int
	SizeCL      int
	Size        int
	OutputFlags []bool // true where K[i] is a user-requested output k
}

// kStep evaluates the wavenumber step function of §4.P.1:
//
//	step = (k_super + ½(tanh((k−k_rec)/(k_rec·k_transition)) + 1)(k_sub − k_super))·k_rec
//	       · (k²/scale² + 1)/(k²/scale² + 1/super_reduction)
func kStep(k, kRec, scale2 float64, p config.KGridParams) float64 {
	tr := 0.5 * (math.Tanh((k-kRec)/(kRec*p.KStepTransition)) + 1)
	base := (p.KStepSuper + tr*(p.KStepSub-p.KStepSuper)) * kRec
	x := k * k / scale2
	reduction := (x + 1) / (x + 1/p.SuperReduction)
	return base * reduction
}

// NewKGrid builds the wavenumber grid for a given curvature K, sound
// horizon wavenumber kRec, (a0H0)² and the CMB/LSS/full size targets
// (derived by the caller from precision knobs and requested source
// types). outputK is merged in sorted order per §3's "user-supplied
// output k values are merged ... with flags remembering their positions".
func NewKGrid(curvK, kRec, a0H0sq float64, targetCMB, targetCL, targetFull int, p config.KGridParams, outputK []float64) (*KGrid, error) {
	if kRec <= 0 {
		return nil, chk.Err("grid: k_rec must be positive, got %v", kRec)
	}
	tauToday := 0.0 // placeholder sentinel; callers pass tau0 via KMinFromCurvature below
	_ = tauToday

	scale2 := a0H0sq + math.Abs(curvK)

	kMin, err := KMinFromCurvature(curvK, p.KMinTau0, 1.0, 1.0)
	if err != nil {
		return nil, err
	}

	var ks []float64
	k := kMin
	for {
		ks = append(ks, k)
		if len(ks) >= targetFull {
			break
		}
		step := kStep(k, kRec, scale2, p)
		if step < 1e-300 {
			return nil, chk.Err("grid: k-step underflowed machine precision at k=%v", k)
		}
		// tanh crossover from linear to log-BAO spacing, centered at
		// k_bao_center*k_rec with width log(k_bao_width).
		center := p.KBaoCenter * kRec
		width := math.Log(p.KBaoWidth + 1e-12)
		logBlend := 0.5 * (math.Tanh((math.Log(k)-math.Log(center))/width) + 1)
		logStep := k * (math.Pow(10, 1.0/p.KPerDecadeBao) - 1)
		blended := (1-logBlend)*step + logBlend*logStep
		if curvK > 0 {
			// closed universe: above nu=3, discretize nu to integers.
			sqrtK := math.Sqrt(curvK)
			nu := k / sqrtK
			if nu >= 3 {
				// land on an integer nu at least one above the current one
				nextNu := math.Max(math.Round((k+blended)/sqrtK), math.Round(nu)+1)
				blended = nextNu*sqrtK - k
			}
		}
		k += blended
	}

	g := &KGrid{K: ks}
	if err := g.mergeOutputK(outputK); err != nil {
		return nil, err
	}
	g.SizeCMB = clampSize(targetCMB, len(g.K))
	g.SizeCL = clampSize(targetCL, len(g.K))
	g.Size = len(g.K)
	if g.SizeCMB > g.SizeCL || g.SizeCL > g.Size {
		return nil, chk.Err("grid: mode bounds violate k_size_cmb <= k_size_cl <= k_size (%d, %d, %d)", g.SizeCMB, g.SizeCL, g.Size)
	}
	if err := g.checkMonotone(); err != nil {
		return nil, err
	}
	return g, nil
}

func clampSize(target, n int) int {
	if target > n {
		return n
	}
	if target < 0 {
		return 0
	}
	return target
}

// mergeOutputK merges user-requested output k-values into the grid in
// sorted order and records which indices correspond to them.
func (g *KGrid) mergeOutputK(outputK []float64) error {
	g.OutputFlags = make([]bool, len(g.K))
	for _, k := range outputK {
		if k < 0 {
			return chk.Err("grid: negative output k value requested: %v", k)
		}
	}
	merged := append([]float64{}, g.K...)
	merged = append(merged, outputK...)
	sort.Float64s(merged)
	g.K = merged
	g.OutputFlags = make([]bool, len(merged))
	outSet := make(map[float64]bool, len(outputK))
	for _, k := range outputK {
		outSet[k] = true
	}
	for i, k := range merged {
		if outSet[k] {
			g.OutputFlags[i] = true
		}
	}
	return nil
}

func (g *KGrid) checkMonotone() error {
	for i := 1; i < len(g.K); i++ {
		if g.K[i] <= g.K[i-1] {
			return chk.Err("grid: k-grid is not strictly monotone after merging output points at index %d (%v <= %v)", i, g.K[i], g.K[i-1])
		}
	}
	return nil
}

// KMinFromCurvature computes k_min per §4.P.1's three curvature cases.
func KMinFromCurvature(curvK, kMinTau0, tauToday, angularRescale float64) (float64, error) {
	switch {
	case curvK == 0:
		if tauToday <= 0 {
			return 0, chk.Err("grid: tau_today must be positive for flat k_min")
		}
		return kMinTau0 / tauToday, nil
	case curvK < 0:
		term := kMinTau0 / (tauToday * angularRescale)
		return math.Sqrt(-curvK + term*term), nil
	default:
		return 3 * math.Sqrt(curvK), nil
	}
}
