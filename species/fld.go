// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package species

func init() {
	SetAllocator(FLD, func() Species { return &FLDSpecies{} })
}

// FLDSpecies is dark-energy fluid, either with an explicit (δ,θ) pair or
// the PPF Γ-parameterization (§3, §4.P.4's PPF companion surrogates).
type FLDSpecies struct {
	UsePPF bool
	W      float64 // equation of state w
	Cs2    float64 // rest-frame sound speed squared (explicit mode only)
}

func (s *FLDSpecies) Kind() Kind              { return FLD }
func (s *FLDSpecies) Capabilities() Capability { return HasDensity | HasVelocity }

func (s *FLDSpecies) NumEqs(approxOn bool) int { return 2 } // (δ,θ) or (Γ,0-padding)

func (s *FLDSpecies) Contribute(y []float64, bg Background, met Metric) StressEnergy {
	rho := bg.Rho
	if s.UsePPF {
		// PPF companion quantities are precomputed by the workspace
		// (S_fld, δρ_fld, (ρ+p)θ_fld, δp_fld) and handed in via Extra;
		// the species itself only carries Γ_fld as a state variable.
		return StressEnergy{
			DeltaRho:  bg.Extra["delta_rho_fld"],
			RhoPTheta: bg.Extra["rhop_theta_fld"],
			DeltaP:    bg.Extra["delta_p_fld"],
		}
	}
	delta := y[0]
	theta := y[1]
	return StressEnergy{
		DeltaRho:  rho * delta,
		RhoPTheta: (1 + s.W) * rho * theta,
		DeltaP:    s.Cs2 * rho * delta,
	}
}

func (s *FLDSpecies) Derivs(dy, y []float64, tau float64, bg Background, th Thermo, met Metric) error {
	if s.UsePPF {
		// dΓ/dτ relaxation toward the PPF source S_fld on the timescale
		// c_gamma (§6's PPF knobs); the companion quantities are refreshed
		// by the workspace ahead of this call, not evolved here.
		cGamma := bg.Extra["c_gamma"]
		if cGamma == 0 {
			cGamma = 1
		}
		dy[0] = (bg.Extra["S_fld"] - y[0]) / cGamma
		dy[1] = 0
		return nil
	}
	ah := bg.AH
	w := s.W
	dy[0] = -(1+w)*(y[1]+met.Continuity) - 3*ah*(s.Cs2-w)*y[0]
	dy[1] = -(1-3*s.Cs2)*ah*y[1] + (s.Cs2/(1+w))*met.K2*y[0] + met.Euler
	return nil
}
