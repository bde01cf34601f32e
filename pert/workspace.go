// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pert

import (
	"github.com/cpmech/goboltz/approx"
	"github.com/cpmech/goboltz/species"
)

// RefreshSurrogates recomputes System's TCA/RSA/PPF surrogate fields from
// the roster's state at a regime boundary, per §3's Workspace invariant
// ("fields created at a transition are initialized from physically
// motivated small-parameter expansions, never left uninitialized"). It is
// called by the task driver immediately after crossing a switch time in
// an approx.Schedule, before the evolver resumes with the new Layout.
func (s *System) RefreshSurrogates(state approx.State, ySlices map[species.Kind][]float64) {
	if state[approx.TCA] {
		// leading order in tau_c/tau_h, the photon shear and the baryon-
		// photon slip are both O(tau_c) and negligible at the order TCA
		// is valid to use; CLASS-family codes use the same zeroth-order
		// surrogate here and only carry the slip correction explicitly in
		// the dipole equation (species.BaryonSpecies.Slip).
		s.TCAShearG = 0
		s.TCASlip = 0
	}
	if yu, ok := ySlices[species.UR]; ok && len(yu) >= 3 {
		s.RSADeltaUR = yu[0]
		s.RSAThetaUR = 0.75 * (s.K * s.K) * yu[1]
	}
	if yi, ok := ySlices[species.IDR]; ok && len(yi) >= 3 {
		s.RSADeltaIDR = yi[0]
		s.RSAThetaIDR = 0.75 * (s.K * s.K) * yi[1]
	}
	if s.Cfg.PPF.Use {
		// PPF companion quantities collapse to the explicit-fluid values
		// at the moment PPF switches on; subsequent steps relax Gamma_fld
		// toward S_fld on timescale c_gamma (species.FLDSpecies.Derivs).
		if yf, ok := ySlices[species.FLD]; ok && len(yf) >= 2 {
			s.DeltaRhoFld = yf[0]
			s.RhoPThetaFld = yf[1]
		}
		s.GammaPrimeFld = s.Cfg.PPF.CGammaOverCFld
	}
}
