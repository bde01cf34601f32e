// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package background

import (
	"math"
	"testing"
)

func Test_tableprovider01(tst *testing.T) {
	rows := []Row{
		{Tau: 0.0, A: 0.001, H: 100, Rho: map[string]float64{"cdm": 1e6}},
		{Tau: 1.0, A: 0.01, H: 50, Rho: map[string]float64{"cdm": 1e4}},
		{Tau: 2.0, A: 0.1, H: 10, Rho: map[string]float64{"cdm": 1e2}},
	}
	p, err := NewTableProvider(rows)
	if err != nil {
		tst.Fatalf("NewTableProvider failed: %v", err)
	}
	var last LastIndex
	st, err := p.AtTau(0.5, Normal, &last)
	if err != nil {
		tst.Fatalf("AtTau failed: %v", err)
	}
	want := 0.001 + 0.5*(0.01-0.001)
	if math.Abs(st.A-want) > 1e-12 {
		tst.Errorf("interpolated A = %v, want %v", st.A, want)
	}

	_, err = p.AtTau(-1, Normal, &last)
	if err == nil {
		tst.Errorf("expected fatal error for out-of-range tau query")
	}

	_, err = NewTableProvider([]Row{{Tau: 1}, {Tau: 0.5}})
	if err == nil {
		tst.Errorf("expected fatal error for non-monotone table")
	}
}
