// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package species

import (
	"math"
	"testing"
)

func Test_decaykernel01(tst *testing.T) {
	// forward recurrence branch: F_0 = 1 always
	F := DecayKernel(6, 1.5)
	if math.Abs(F[0]-1) > 1e-12 {
		tst.Errorf("F[0] should be 1, got %v", F[0])
	}

	// backward recurrence branch should also normalize to F_0 = 1 and
	// stay finite for a range of small x
	for _, x := range []float64{0.0, 0.1, 0.5, 0.89} {
		G := DecayKernel(10, x)
		if math.Abs(G[0]-1) > 1e-9 {
			tst.Errorf("backward kernel F[0] should be 1 at x=%v, got %v", x, G[0])
		}
		for l, v := range G {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				tst.Errorf("kernel entry l=%d at x=%v is not finite: %v", l, x, v)
			}
		}
	}
}

func Test_capabilities01(tst *testing.T) {
	ph := &PhotonSpecies{LmaxG: 8, LmaxPol: 8}
	if !ph.Capabilities().Has(HasShear) {
		tst.Errorf("photon species should carry shear")
	}
	cdmSync := &CDMSpecies{Newtonian: false}
	if cdmSync.NumEqs(false) != 1 {
		tst.Errorf("synchronous cdm should have 1 eq (no theta), got %d", cdmSync.NumEqs(false))
	}
	cdmNewt := &CDMSpecies{Newtonian: true}
	if cdmNewt.NumEqs(false) != 2 {
		tst.Errorf("newtonian cdm should have 2 eqs, got %d", cdmNewt.NumEqs(false))
	}
}

func Test_registry01(tst *testing.T) {
	for _, k := range AllKinds() {
		if !Registered(k) {
			tst.Errorf("species kind %v has no registered allocator", k)
		}
		sp, err := New(k)
		if err != nil {
			tst.Errorf("New(%v) failed: %v", k, err)
		}
		if sp.Kind() != k {
			tst.Errorf("New(%v) returned species with Kind()=%v", k, sp.Kind())
		}
	}
}
