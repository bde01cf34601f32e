// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transfer

import (
	"math"
	"testing"

	"github.com/cpmech/goboltz/config"
)

func Test_qlist01(tst *testing.T) {
	p := config.KGridParams{HyperFlatApproximationNu: 1000}
	ks := []float64{0.001, 0.01, 0.1, 1.0}
	ql, err := BuildQList(ks, 0, 0, p)
	if err != nil {
		tst.Fatalf("BuildQList failed: %v", err)
	}
	if len(ql.Q) != len(ks) {
		tst.Errorf("flat q-list should match k-list length, got %d vs %d", len(ql.Q), len(ks))
	}
	for i, q := range ql.Q {
		if math.Abs(q-ks[i]) > 1e-12 {
			tst.Errorf("flat q should equal k at index %d: q=%v k=%v", i, q, ks[i])
		}
	}
}

func Test_qlist_closed01(tst *testing.T) {
	p := config.KGridParams{HyperFlatApproximationNu: 5}
	ks := []float64{0.1, 0.2, 0.5, 5.0}
	ql, err := BuildQList(ks, 0.01, 0, p)
	if err != nil {
		tst.Fatalf("BuildQList failed: %v", err)
	}
	if len(ql.Q) == 0 {
		tst.Fatalf("expected a non-empty q-list")
	}
	for i := 1; i < len(ql.Q); i++ {
		if ql.Q[i] < ql.Q[i-1] {
			tst.Errorf("q-list must be sorted, got %v before %v", ql.Q[i-1], ql.Q[i])
		}
	}
}

func Test_selectiongaussian01(tst *testing.T) {
	zOfTau := func(tau float64) float64 { return 10 - tau }
	tauOfZ := func(z float64) float64 { return 10 - z }
	w, err := NewSelectionWindow(config.SelectionParams{
		Kind: config.SelectionGaussian, ZMean: 1.0, Width: 0.1, CutInSigma: 5,
	}, nil, zOfTau, tauOfZ)
	if err != nil {
		tst.Fatalf("NewSelectionWindow failed: %v", err)
	}
	norm, err := w.Normalize(101)
	if err != nil {
		tst.Fatalf("Normalize failed: %v", err)
	}
	if norm <= 0 {
		tst.Errorf("normalization constant should be positive, got %v", norm)
	}
	peak := w.Eval(tauOfZ(1.0), norm)
	tail := w.Eval(tauOfZ(1.5), norm)
	if peak <= tail {
		tst.Errorf("gaussian window should peak at z_mean: peak=%v tail=%v", peak, tail)
	}
}

func Test_uselimber01(tst *testing.T) {
	lim := config.LimberParams{QMaxBessel: 100, LSwitchLimberForNcLocalOverZ: 20}
	if !UseLimber(200, 10, CategoryDensity, 1.0, false, lim) {
		tst.Errorf("q beyond q_max_bessel should always use Limber")
	}
	if UseLimber(10, 5, CategoryDensity, 1.0, false, lim) {
		tst.Errorf("low l, low q density type should not use Limber")
	}
	if UseLimber(10, 5, CategoryDensity, 1.0, true, lim) {
		tst.Errorf("Dirac selection should never use Limber below q_max_bessel")
	}
}

func Test_sfactor01(tst *testing.T) {
	s := sFactor(2, 0.01, 10.0)
	if s <= 0 || s > 1 {
		tst.Errorf("s_2 should lie in (0,1] for subcurvature k, got %v", s)
	}
	if sFactor(2, 0, 10.0) != 1 {
		tst.Errorf("flat space s_n should always be 1")
	}
}
