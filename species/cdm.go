// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package species

func init() {
	SetAllocator(CDM, func() Species { return &CDMSpecies{} })
}

// CDMSpecies carries δ_cdm always, and θ_cdm only in the newtonian gauge
// (synchronous gauge fixes the cdm rest frame so θ_cdm ≡ 0 and is not
// integrated).
type CDMSpecies struct {
	Newtonian bool
}

const (
	iCDelta = 0
	iCTheta = 1
)

func (s *CDMSpecies) Kind() Kind              { return CDM }
func (s *CDMSpecies) Capabilities() Capability { return HasDensity | HasVelocity }

func (s *CDMSpecies) NumEqs(approxOn bool) int {
	if s.Newtonian {
		return 2
	}
	return 1
}

func (s *CDMSpecies) Contribute(y []float64, bg Background, met Metric) StressEnergy {
	rho := bg.Rho
	out := StressEnergy{DeltaRho: rho * y[iCDelta]}
	if s.Newtonian {
		out.RhoPTheta = rho * y[iCTheta]
	}
	return out
}

func (s *CDMSpecies) Derivs(dy, y []float64, tau float64, bg Background, th Thermo, met Metric) error {
	if s.Newtonian {
		dy[iCDelta] = -(y[iCTheta] + met.Continuity)
		dy[iCTheta] = -bg.AH*y[iCTheta] + met.Euler
		return nil
	}
	// synchronous: θ_cdm ≡ 0, continuity reduces to δ' = -metric term
	dy[iCDelta] = -met.Continuity
	return nil
}
