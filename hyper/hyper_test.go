// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyper

import (
	"math"
	"testing"
)

func Test_flattable01(tst *testing.T) {
	table, err := NewTable(Flat, 50.0, 20, 1e-3, 20, 400, 1e-6)
	if err != nil {
		tst.Fatalf("NewTable failed: %v", err)
	}
	for l := 0; l <= 20; l++ {
		for i, x := range table.X {
			v := table.Phi[l][i]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				tst.Errorf("flat Phi[%d] at x=%v is not finite: %v", l, x, v)
			}
		}
	}
}

func Test_flateval01(tst *testing.T) {
	table, err := NewTable(Flat, 50.0, 10, 1e-3, 20, 800, 1e-6)
	if err != nil {
		tst.Fatalf("NewTable failed: %v", err)
	}
	phi, _, _, err := table.Eval(5, 10.0)
	if err != nil {
		tst.Fatalf("Eval failed: %v", err)
	}
	if math.Abs(phi) > 1.5 {
		tst.Errorf("flat Phi_5 amplitude should stay O(1), got %v", phi)
	}
}

func Test_evalboundary01(tst *testing.T) {
	table, err := NewTable(Closed, 50.0, 5, 1e-3, 1.5, 200, 1e-6)
	if err != nil {
		tst.Fatalf("NewTable failed: %v", err)
	}
	if _, _, _, err := table.Eval(0, 2.0); err == nil {
		tst.Errorf("expected a fatal error evaluating x beyond x_max in closed geometry")
	}
}

func Test_lmaxthreshold01(tst *testing.T) {
	l := LMaxForThreshold(Flat, 50.0, 20.0, 200)
	if l <= 0 || l >= 200 {
		tst.Errorf("expected an interior l_max for nu=50, x_max=20, got %d", l)
	}
	// increasing x_max should never decrease the effective l_max.
	l2 := LMaxForThreshold(Flat, 50.0, 40.0, 200)
	if l2 < l {
		tst.Errorf("l_max should be monotone non-decreasing in x_max: l(20)=%d, l(40)=%d", l, l2)
	}
}

func Test_flatshared01(tst *testing.T) {
	shared, err := NewFlatShared(30.0, 15, 1e-3, 15, 300, 1e-6)
	if err != nil {
		tst.Fatalf("NewFlatShared failed: %v", err)
	}
	if _, _, _, err := shared.Eval(3, 5.0); err != nil {
		tst.Errorf("shared table eval failed: %v", err)
	}
}
