// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package species

func init() {
	SetAllocator(Baryon, func() Species { return &BaryonSpecies{} })
}

// BaryonSpecies carries (δ_b, θ_b) and, optionally, the perturbed-
// recombination pair (δT_b, δχ).
type BaryonSpecies struct {
	PerturbedRecombination bool
	TCAOn                  bool
	TCAScheme              func(y []float64, bg Background, th Thermo, met Metric, thetaGamma float64) float64
}

const (
	iBDelta = 0
	iBTheta = 1
	iBDTb   = 2
	iBDChi  = 3
)

func (s *BaryonSpecies) Kind() Kind              { return Baryon }
func (s *BaryonSpecies) Capabilities() Capability { return HasDensity | HasVelocity | IsInteracting }

func (s *BaryonSpecies) NumEqs(approxOn bool) int {
	n := 2
	if s.PerturbedRecombination {
		n += 2
	}
	return n
}

func (s *BaryonSpecies) Contribute(y []float64, bg Background, met Metric) StressEnergy {
	rho := bg.Rho
	delta := y[iBDelta]
	theta := y[iBTheta]
	return StressEnergy{
		DeltaRho:  rho * delta,
		RhoPTheta: rho * theta, // pressureless: ρ+p ≈ ρ
	}
}

// Slip computes (θ_b−θ_γ)′ under tight coupling with the single
// first-order Ma–Bertschinger-style form below, §4.P.4; the TCAScheme
// field is not consulted.
func (s *BaryonSpecies) Slip(y []float64, bg Background, th Thermo, met Metric, thetaGamma, thetaB, R float64) float64 {
	// Ma & Bertschinger (1995) first-order slip:
	//   slip = (-aH*slip_prev + Euler_b - R*Euler_gamma ...)/(1+R) [simplified]
	ah := bg.AH
	num := -ah*thetaB + met.K2*(th.Cb2*y[iBDelta]) + R*th.Kappa1*(thetaGamma-thetaB)
	return num / (1 + R)
}

func (s *BaryonSpecies) Derivs(dy, y []float64, tau float64, bg Background, th Thermo, met Metric) error {
	dy[iBDelta] = -(y[iBTheta] + met.Continuity)
	R := bg.Extra["R"] // R = (3/4) ρ_b/ρ_γ
	thetaGamma := bg.Extra["theta_gamma"]

	if s.TCAOn {
		slip := s.Slip(y, bg, th, met, thetaGamma, y[iBTheta], R)
		dy[iBTheta] = (-bg.AH*y[iBTheta] + met.K2*th.Cb2*y[iBDelta] + R*th.Kappa1*(thetaGamma-y[iBTheta]) + met.Euler + R*slip) / (1 + R)
	} else {
		dy[iBTheta] = -bg.AH*y[iBTheta] + met.K2*th.Cb2*y[iBDelta] + R*th.Kappa1*(thetaGamma-y[iBTheta]) + met.Euler
	}

	if s.PerturbedRecombination {
		// placeholder linear relaxation toward equilibrium values
		// (δT_b → δ_b/3, δχ → 0); both entries start at zero and are
		// not seeded at any regime transition.
		dy[iBDTb] = (y[iBDelta]/3 - y[iBDTb]) * th.Kappa1 * 0.01
		dy[iBDChi] = -y[iBDChi] * th.Kappa1 * 0.01
	}
	return nil
}
