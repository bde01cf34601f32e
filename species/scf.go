// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package species

// SCFSpecies is the quintessence-like scalar field, carrying (ϕ, ϕ′).
// Its contribution depends on ψ and must be summed after all
// shear-carrying species per §4.P.4's ordering note.
type SCFSpecies struct {
	MassSquared float64 // V''(ϕ0), background potential curvature
	PhiBg       float64 // background field value, refreshed per τ
	DPhiBg      float64 // background field derivative, refreshed per τ
}

func init() {
	SetAllocator(SCF, func() Species { return &SCFSpecies{} })
}

func (s *SCFSpecies) Kind() Kind              { return SCF }
func (s *SCFSpecies) Capabilities() Capability { return HasDensity | HasVelocity }
func (s *SCFSpecies) NumEqs(approxOn bool) int { return 2 }

const (
	iScfPhi  = 0
	iScfDPhi = 1
)

func (s *SCFSpecies) Contribute(y []float64, bg Background, met Metric) StressEnergy {
	// δρ = ϕ0′·δϕ′/a² - ψ·ϕ0′²/a² + V'·δϕ ; (ρ+p)θ = k²·ϕ0′·δϕ/a²
	a2 := bg.A * bg.A
	dphiBg := s.DPhiBg
	vprime := s.MassSquared * s.PhiBg
	deltaRho := (dphiBg*y[iScfDPhi])/a2 - met.Psi*dphiBg*dphiBg/a2 + vprime*y[iScfPhi]
	rhopTheta := met.K2 * dphiBg * y[iScfPhi] / a2
	deltaP := (dphiBg*y[iScfDPhi])/a2 - met.Psi*dphiBg*dphiBg/a2 - vprime*y[iScfPhi]
	return StressEnergy{DeltaRho: deltaRho, RhoPTheta: rhopTheta, DeltaP: deltaP}
}

func (s *SCFSpecies) Derivs(dy, y []float64, tau float64, bg Background, th Thermo, met Metric) error {
	ah := bg.AH
	a2 := bg.A * bg.A
	dy[iScfPhi] = y[iScfDPhi]
	vprime := s.MassSquared * s.PhiBg
	dy[iScfDPhi] = -2*ah*y[iScfDPhi] - met.K2*y[iScfPhi] - a2*vprime*y[iScfPhi] + s.DPhiBg*(met.PhiPrime+met.Continuity*0)
	return nil
}
