// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package species

func init() {
	// idr is registered with zero opacity; pert.Builder also builds it
	// with zero opacity, so the idm_dr drag acts only on IDMDRSpecies.
	SetAllocator(IDR, func() Species { return NewStreamingSpecies(IDR, 8, 0) })
}

func init() {
	SetAllocator(IDMDR, func() Species { return &IDMDRSpecies{} })
}

const (
	iIdmDelta = 0
	iIdmTheta = 1
)

// IDMDRSpecies is a pressureless dark-matter species coupled to IDR by a
// momentum-exchange drag term (analogous to baryon-photon Thompson drag
// but for the dark sector), with a tight-coupling analogue TCA_idm_dr.
type IDMDRSpecies struct {
	Coupling float64 // drag rate coefficient
	TCAOn    bool
}

func (s *IDMDRSpecies) Kind() Kind              { return IDMDR }
func (s *IDMDRSpecies) Capabilities() Capability { return HasDensity | HasVelocity | IsInteracting }
func (s *IDMDRSpecies) NumEqs(approxOn bool) int { return 2 }

func (s *IDMDRSpecies) Contribute(y []float64, bg Background, met Metric) StressEnergy {
	rho := bg.Rho
	return StressEnergy{DeltaRho: rho * y[iIdmDelta], RhoPTheta: rho * y[iIdmTheta]}
}

func (s *IDMDRSpecies) Derivs(dy, y []float64, tau float64, bg Background, th Thermo, met Metric) error {
	thetaIdr := bg.Extra["idr_theta"]
	dy[iIdmDelta] = -(y[iIdmTheta] + met.Continuity)
	drag := s.Coupling * (thetaIdr - y[iIdmTheta])
	dy[iIdmTheta] = -bg.AH*y[iIdmTheta] + met.Euler + drag
	return nil
}
