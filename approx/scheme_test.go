// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package approx

import (
	"testing"

	"github.com/cpmech/goboltz/config"
)

// Test_schedule01 builds a toy trigger sampler where tau_c/tau_h grows
// past the TCA trigger partway through the range, and checks that the
// resulting schedule has exactly one switch and that TCA is on at
// tau_ini and off at tau_today.
func Test_schedule01(tst *testing.T) {
	cfg := config.Default()
	tauIni, tauToday := 1.0, 1000.0
	sample := func(tau float64) (Trigger, error) {
		// tau_c/tau_h starts tiny (tight coupling) and grows linearly
		// past the tau_c/tau_k trigger near tau ~ 10.
		ratio := (tau - tauIni) / (tauToday - tauIni)
		tauC := 1e-4 * (1 + 1000*ratio)
		tauH := 1.0
		tauK := 1.0
		return Trigger{TauC: tauC, TauH: tauH, TauK: tauK, Extra: map[string]float64{"tau_free_streaming": 1e9}}, nil
	}
	sched, err := NewSchedule(tauIni, tauToday, cfg, sample)
	if err != nil {
		tst.Fatalf("NewSchedule failed: %v", err)
	}
	if len(sched.Intervals) < 2 {
		tst.Fatalf("expected at least 2 intervals (TCA on then off), got %d", len(sched.Intervals))
	}
	if !sched.Intervals[0].State[TCA] {
		tst.Errorf("TCA should start on")
	}
	last := sched.Intervals[len(sched.Intervals)-1]
	if last.State[TCA] {
		tst.Errorf("TCA should end off")
	}
}

func Test_monotone01(tst *testing.T) {
	if err := CheckMonotone(TCA, []bool{true, true, false, false}); err != nil {
		tst.Errorf("expected monotone sequence to pass: %v", err)
	}
	if err := CheckMonotone(TCA, []bool{true, false, true}); err == nil {
		tst.Errorf("expected non-monotone sequence to fail")
	}
}
