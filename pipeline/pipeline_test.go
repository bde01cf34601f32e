// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"math"
	"testing"

	"github.com/cpmech/goboltz/background"
	"github.com/cpmech/goboltz/config"
	"github.com/cpmech/goboltz/pert"
	"github.com/cpmech/goboltz/transfer"
)

func Test_enabledics01(tst *testing.T) {
	e := config.ICEnables{Adiabatic: true, NeutrinoVelocityIso: true}
	got := enabledICs(e)
	if len(got) != 2 || got[0] != pert.ICAdiabatic || got[1] != pert.ICNeutrinoVelocityIso {
		tst.Errorf("enabledICs returned %v, want [ad, niv] in that order", got)
	}
}

func Test_enabledmodes01(tst *testing.T) {
	e := config.ModeEnables{Tensors: true}
	got := enabledModes(e)
	if len(got) != 1 || got[0] != config.ModeTensor {
		tst.Errorf("enabledModes returned %v, want [tensor]", got)
	}
	if len(enabledModes(config.ModeEnables{})) != 0 {
		tst.Errorf("no modes enabled should yield an empty slice")
	}
}

func Test_defaultsampletaus01(tst *testing.T) {
	taus := defaultSampleTaus(1.0, 1000.0, 50)
	if len(taus) != 50 {
		tst.Fatalf("expected 50 samples, got %d", len(taus))
	}
	if math.Abs(taus[0]-1.0) > 1e-9 {
		tst.Errorf("first sample should equal tau_ini, got %v", taus[0])
	}
	if math.Abs(taus[len(taus)-1]-1000.0) > 1e-6 {
		tst.Errorf("last sample should equal tau_today, got %v", taus[len(taus)-1])
	}
	for i := 1; i < len(taus); i++ {
		if taus[i] <= taus[i-1] {
			tst.Errorf("samples must be strictly increasing at index %d: %v <= %v", i, taus[i], taus[i-1])
		}
	}
}

func Test_tauatz01(tst *testing.T) {
	rows := []background.Row{
		{Tau: 1, A: 1e-3},
		{Tau: 100, A: 1e-2},
		{Tau: 1000, A: 1},
	}
	bgP, err := background.NewTableProvider(rows)
	if err != nil {
		tst.Fatalf("NewTableProvider failed: %v", err)
	}
	zTarget := 1/rows[1].A - 1
	tau, err := tauAtZ(bgP, zTarget)
	if err != nil {
		tst.Fatalf("tauAtZ failed: %v", err)
	}
	if math.Abs(tau-rows[1].Tau) > 1e-4 {
		tst.Errorf("tauAtZ = %v, want close to %v", tau, rows[1].Tau)
	}

	_, err = tauAtZ(bgP, 1e9)
	if err == nil {
		tst.Errorf("expected fatal error for z outside tabulated range")
	}
}

func Test_categoryfor01(tst *testing.T) {
	cases := []struct {
		kind pert.SourceKind
		want transfer.SourceCategory
	}{
		{pert.SourceLensing, transfer.CategoryLensing},
		{pert.SourceNcLens, transfer.CategoryLensing},
		{pert.SourceNcRSD, transfer.CategoryIntegrated},
		{pert.SourceNcGR, transfer.CategoryIntegrated},
	}
	for _, c := range cases {
		if got := categoryFor(c.kind); got != c.want {
			tst.Errorf("categoryFor(%v) = %v, want %v", c.kind, got, c.want)
		}
	}
}

func Test_truncateat01(tst *testing.T) {
	tau := []float64{1, 2, 3, 4, 5}
	s := []float64{10, 20, 30, 40, 50}
	tauT, sT := truncateAt(tau, s, 3)
	if len(tauT) != 3 || tauT[0] != 3 {
		tst.Errorf("truncateAt kept %v, want [3 4 5]", tauT)
	}
	if len(sT) != 3 || sT[0] != 30 {
		tst.Errorf("truncateAt values kept %v, want [30 40 50]", sT)
	}

	tauAll, sAll := truncateAt(tau, s, 0)
	if len(tauAll) != len(tau) || len(sAll) != len(s) {
		tst.Errorf("truncateAt with tauMin below range should keep everything")
	}
	tauNone, sNone := truncateAt(tau, s, 10)
	if len(tauNone) != 0 || len(sNone) != 0 {
		tst.Errorf("truncateAt with tauMin above range should keep nothing")
	}
}
