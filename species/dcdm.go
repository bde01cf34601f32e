// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package species

func init() {
	SetAllocator(DCDM, func() Species { return &DCDMSpecies{} })
}

const iDcdmDelta = 0

// DCDMSpecies is pressureless decaying cold dark matter: a single
// density-contrast degree of freedom (no peculiar velocity beyond the
// metric-driven term; DCDM is comoving like CDM). The decay rate Gamma
// enters the background continuity (external, not modeled here); the
// perturbation continuity equation in Derivs carries no Γ term.
type DCDMSpecies struct {
	Gamma float64 // Γ_dcdm, decay rate
}

func (s *DCDMSpecies) Kind() Kind              { return DCDM }
func (s *DCDMSpecies) Capabilities() Capability { return HasDensity | CanDecay }
func (s *DCDMSpecies) NumEqs(approxOn bool) int { return 1 }

func (s *DCDMSpecies) Contribute(y []float64, bg Background, met Metric) StressEnergy {
	return StressEnergy{DeltaRho: bg.Rho * y[iDcdmDelta]}
}

func (s *DCDMSpecies) Derivs(dy, y []float64, tau float64, bg Background, th Thermo, met Metric) error {
	// (ρ·a³)' + aΓρ·a³ = 0 holds at the background level (§8, scenario
	// 5); the decay sink is a local reaction and drops out of the
	// perturbed continuity equation, which mirrors CDM in synchronous
	// gauge.
	dy[iDcdmDelta] = -met.Continuity
	return nil
}
