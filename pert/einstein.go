// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pert

import (
	"math"

	"github.com/cpmech/gosl/la"

	"github.com/cpmech/goboltz/config"
	"github.com/cpmech/goboltz/species"
)

// Total is the stress-energy summed over every active species (§4.P.4's
// perturb_total_stress_energy).
type Total struct {
	DeltaRho  float64
	RhoPTheta float64
	RhoPSigma float64
	DeltaP    float64
}

// TotalStressEnergy folds every species' contribution. Order matters per
// §4.P.4: scalar-field contributions depend on psi and are summed after
// all shear-carrying species, so the scalar field pass is done last and
// is handed the metric computed from the first pass.
func TotalStressEnergy(roster []species.Species, ySlices map[species.Kind][]float64, bgs map[species.Kind]species.Background, met species.Metric) Total {
	acc := make([]float64, 4) // DeltaRho, RhoPTheta, RhoPSigma, DeltaP
	var scf species.Species
	var scfY []float64
	var scfBg species.Background
	for _, sp := range roster {
		if sp.Kind() == species.SCF {
			scf, scfY, scfBg = sp, ySlices[sp.Kind()], bgs[sp.Kind()]
			continue
		}
		c := sp.Contribute(ySlices[sp.Kind()], bgs[sp.Kind()], met)
		la.VecAdd2(acc, 1, acc, 1, stressEnergyVec(c)) // acc = acc + c
	}
	if scf != nil {
		c := scf.Contribute(scfY, scfBg, met)
		la.VecAdd2(acc, 1, acc, 1, stressEnergyVec(c))
	}
	return Total{DeltaRho: acc[0], RhoPTheta: acc[1], RhoPSigma: acc[2], DeltaP: acc[3]}
}

// stressEnergyVec flattens one species' contribution into the
// (DeltaRho, RhoPTheta, RhoPSigma, DeltaP) vector gosl/la.VecAdd2 folds
// into the running total.
func stressEnergyVec(c species.StressEnergy) []float64 {
	return []float64{c.DeltaRho, c.RhoPTheta, c.RhoPSigma, c.DeltaP}
}

// EinsteinClosure computes the algebraic metric perturbations from the
// constraint equations given the total stress-energy, per §4.P.4. It
// returns the Metric consumed by every species' Contribute/Derivs, plus
// etaPrime: in synchronous gauge eta is the integrated dynamical metric
// variable (its own entry in the integration vector), while h itself is
// never integrated -- only h' appears in the species equations, computed
// here algebraically from the energy constraint. etaPrime is the caller's
// dy/dtau for eta in synchronous gauge. In newtonian gauge phi
// plays eta's role: there the second return value is phi' (also stored
// in met.PhiPrime), which the caller writes as the derivative of the
// integrated metric entry phi.
func EinsteinClosure(gauge config.Gauge, curvK, k2, a, ah float64, etaOrPhiPrev float64, tot Total) (species.Metric, float64) {
	s2 := 1.0
	if curvK != 0 {
		s2 = math.Sqrt(math.Max(1-2*curvK/k2, 1e-12))
	}
	met := species.Metric{K2: k2, S2: s2}
	a2 := a * a
	switch gauge {
	case config.Newtonian:
		// psi = phi - (9a^2/(2k^2)) (rho+p) sigma_tot
		// phi' = -aH psi + (3a^2/(2k^2)) (rho+p) theta_tot
		phi := etaOrPhiPrev
		met.Psi = phi - (9*a2/(2*k2))*tot.RhoPSigma
		met.PhiPrime = -ah*met.Psi + (3*a2/(2*k2))*tot.RhoPTheta
		met.Continuity = 3 * met.PhiPrime
		met.Euler = k2 * met.Psi
		return met, met.PhiPrime
	default: // synchronous
		eta := etaOrPhiPrev
		hPrime := (2*(k2*met.S2*met.S2*eta) + 1.5*a2*tot.DeltaRho) / ah
		etaPrime := (1.5 * a2 * tot.RhoPTheta) / (k2 * met.S2 * met.S2)
		met.Eta = eta
		met.HPrime = hPrime
		met.Continuity = hPrime / 2
		met.Euler = 0 // synchronous gauge carries no psi; species equations use Continuity/Euler only
		return met, etaPrime
	}
}

